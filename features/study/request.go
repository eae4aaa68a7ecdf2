package study

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"projecttutor/backend/internal/generation"
)

var (
	ErrValidation = errors.New("invalid request")
	ErrNoItems    = errors.New("no quiz items for this difficulty")
)

const DefaultDifficulty = "easy"

// Difficulties become artifact path keys, so they are restricted to a
// plain identifier charset.
var difficultyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

type GenerateRequest struct {
	DocID      string
	Difficulty string
	Num        int
}

type ProgressRequest struct {
	DocID      string
	Difficulty string
	BatchIDs   []string
	Answers    map[string]string
}

type ChatRequest struct {
	DocID    string
	Question string
}

// ParseGenerate reads a summary, notes or quiz request. Quiz fields are
// defaulted and clamped even when the task ignores them.
func ParseGenerate(body map[string]any) (GenerateRequest, error) {
	req := GenerateRequest{
		DocID:      stringValue(body["doc_id"]),
		Difficulty: stringValue(body["difficulty"]),
		Num:        generation.ClampCount(body["num"]),
	}
	if req.DocID == "" {
		return req, fmt.Errorf("%w: doc_id missing", ErrValidation)
	}
	if req.Difficulty == "" {
		req.Difficulty = DefaultDifficulty
	}
	if !difficultyPattern.MatchString(req.Difficulty) {
		return req, fmt.Errorf("%w: difficulty %q", ErrValidation, req.Difficulty)
	}
	return req, nil
}

// ParseProgress reads a save-progress request. Answers that are not strings
// are stringified; a null answer counts as unanswered.
func ParseProgress(body map[string]any) (ProgressRequest, error) {
	req := ProgressRequest{
		DocID:      stringValue(body["doc_id"]),
		Difficulty: stringValue(body["difficulty"]),
		Answers:    map[string]string{},
	}
	if req.DocID == "" || req.Difficulty == "" {
		return req, fmt.Errorf("%w: doc_id and difficulty are required", ErrValidation)
	}
	if !difficultyPattern.MatchString(req.Difficulty) {
		return req, fmt.Errorf("%w: difficulty %q", ErrValidation, req.Difficulty)
	}

	if ids, ok := body["batch_ids"].([]any); ok {
		for _, id := range ids {
			if s := stringValue(id); s != "" {
				req.BatchIDs = append(req.BatchIDs, s)
			}
		}
	}
	if answers, ok := body["answers"].(map[string]any); ok {
		for id, a := range answers {
			req.Answers[id] = stringValue(a)
		}
	}
	return req, nil
}

func ParseChat(body map[string]any) (ChatRequest, error) {
	req := ChatRequest{
		DocID:    stringValue(body["doc_id"]),
		Question: stringValue(body["question"]),
	}
	if req.DocID == "" || strings.TrimSpace(req.Question) == "" {
		return req, fmt.Errorf("%w: doc_id and question are required", ErrValidation)
	}
	return req, nil
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
