package generation

import (
	"context"
	"log/slog"
	"time"

	"projecttutor/backend/internal/retry"
)

// Generator is a text-generation provider.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retrying retries a Generator with linear backoff and returns the last
// error once the attempts are exhausted.
type Retrying struct {
	next     Generator
	attempts int
	unit     time.Duration
}

func NewRetrying(g Generator, attempts int, unit time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	if unit <= 0 {
		unit = retry.DefaultUnit
	}
	return &Retrying{next: g, attempts: attempts, unit: unit}
}

func (r *Retrying) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := retry.Linear(ctx, r.attempts, r.unit, func() error {
		text, err := r.next.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		out = text
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		slog.WarnContext(ctx, "generation attempt failed, retrying", "attempt", attempt, "max_attempts", r.attempts, "wait", wait, "error", err)
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
