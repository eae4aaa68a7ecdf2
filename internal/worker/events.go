package worker

import "errors"

// HandlerIndex names the index worker in failed job records.
const HandlerIndex = "document.index"

var ErrNoPublisher = errors.New("no event publisher configured")

// IndexTask asks the index worker to embed and upsert a stored document's chunks.
type IndexTask struct {
	DocumentID    string `json:"document_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
