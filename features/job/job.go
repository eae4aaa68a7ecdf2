package job

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("job not found")

// MaxListLimit caps how many failed jobs one listing returns.
const MaxListLimit = 500

// Job is an index task that could not be queued or exhausted its attempts.
type Job struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	Handler    string          `json:"handler"`
	Payload    json.RawMessage `json:"payload"`
	Error      string          `json:"error"`
	Retries    int             `json:"retries"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Filter narrows a listing. Zero values mean every document and
// MaxListLimit rows.
type Filter struct {
	DocumentID string
	Limit      int
}

func (f Filter) limit() int {
	if f.Limit <= 0 || f.Limit > MaxListLimit {
		return MaxListLimit
	}
	return f.Limit
}
