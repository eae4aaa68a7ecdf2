package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"projecttutor/backend/internal/retry"
)

var (
	ErrEmptyEmbedding    = errors.New("empty embedding received")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Provider turns one text into a vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchError reports the item that made a batch fail. No vectors are
// returned alongside it.
type BatchError struct {
	Index    int
	Attempts int
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("embedding item %d failed after %d attempts: %v", e.Index, e.Attempts, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

type Options struct {
	MaxRetries int           // total attempts per item
	Unit       time.Duration // backoff unit; wait before retry n is (1+n)*Unit
	RateLimit  float64       // provider calls per second, 0 disables pacing
}

type Gateway struct {
	provider Provider
	attempts int
	unit     time.Duration
	limiter  *rate.Limiter
}

func NewGateway(p Provider, opts Options) *Gateway {
	g := &Gateway{provider: p, attempts: opts.MaxRetries, unit: opts.Unit}
	if g.attempts < 1 {
		g.attempts = 1
	}
	if g.unit <= 0 {
		g.unit = retry.DefaultUnit
	}
	if opts.RateLimit > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return g
}

// EmbedOne embeds a single text, retrying transient provider failures.
func (g *Gateway) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := retry.Linear(ctx, g.attempts, g.unit, func() error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return retry.Permanent(err)
			}
		}
		v, err := g.provider.Embed(ctx, text)
		if err != nil {
			return err
		}
		if len(v) == 0 {
			return ErrEmptyEmbedding
		}
		vec = v
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		slog.WarnContext(ctx, "embedding attempt failed, retrying", "attempt", attempt, "max_attempts", g.attempts, "wait", wait, "error", err)
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedMany embeds texts sequentially and returns one vector per text in input
// order. The batch is all-or-nothing: the first item that exhausts its attempts
// fails the whole call with a *BatchError.
func (g *Gateway) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, t := range texts {
		v, err := g.EmbedOne(ctx, t)
		if err != nil {
			slog.ErrorContext(ctx, "embedding batch aborted", "index", i, "batch_size", len(texts), "error", err)
			return nil, &BatchError{Index: i, Attempts: g.attempts, Err: err}
		}
		if len(vectors) > 0 && len(v) != len(vectors[0]) {
			return nil, &BatchError{
				Index:    i,
				Attempts: 1,
				Err:      fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), len(vectors[0])),
			}
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}
