package job

import (
	"context"
	"fmt"
	"log/slog"

	"projecttutor/backend/internal/config"
	"projecttutor/backend/internal/worker"
)

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo Repository
	pub  EventPublisher
}

func NewService(repo Repository, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// List returns failed jobs, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Job, error) {
	return s.repo.List(ctx, f)
}

// Record stores a failed task. The cause may be nil when the attempt count
// alone explains the failure.
func (s *Service) Record(ctx context.Context, documentID, handler string, payload []byte, cause error) error {
	return s.RecordAttempts(ctx, documentID, handler, payload, cause, 0)
}

func (s *Service) RecordAttempts(ctx context.Context, documentID, handler string, payload []byte, cause error, retries int) error {
	j := &Job{
		DocumentID: documentID,
		Handler:    handler,
		Payload:    payload,
		Retries:    retries,
	}
	if cause != nil {
		j.Error = cause.Error()
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return fmt.Errorf("save failed job: %w", err)
	}
	slog.WarnContext(ctx, "recorded failed job", "job_id", j.ID, "doc_id", documentID, "handler", handler, "error", j.Error)
	return nil
}

// Retry republishes the job payload to the index topic and removes the job.
// The publish is abandoned when ctx ends first.
func (s *Service) Retry(ctx context.Context, id string) (*Job, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.pub == nil {
		return nil, worker.ErrNoPublisher
	}

	done := make(chan error, 1)
	go func() {
		done <- s.pub.Publish(config.TopicDocumentIndex, job.Payload)
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "retried failed job", "job_id", id, "doc_id", job.DocumentID)
	return job, nil
}

// Dismiss drops a failed job without retrying it.
func (s *Service) Dismiss(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "dismissed failed job", "job_id", id)
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
