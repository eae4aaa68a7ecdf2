package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockReindexer struct{ mock.Mock }

func (m *MockReindexer) Reindex(ctx context.Context, documentID string) error {
	return m.Called(ctx, documentID).Error(0)
}

type MockFailures struct{ mock.Mock }

func (m *MockFailures) RecordAttempts(ctx context.Context, documentID, handler string, payload []byte, cause error, retries int) error {
	return m.Called(ctx, documentID, handler, payload, cause, retries).Error(0)
}
