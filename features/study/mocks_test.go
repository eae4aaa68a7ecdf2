package study_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"projecttutor/backend/features/document"
	"projecttutor/backend/internal/retrieval"
)

type MockDocuments struct {
	mock.Mock
}

func (m *MockDocuments) Get(ctx context.Context, id string) (*document.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockDocuments) SetArtifact(ctx context.Context, id string, path []string, value any) error {
	return m.Called(ctx, id, path, value).Error(0)
}

type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, documentID, query string, nResults int) (*retrieval.Context, error) {
	args := m.Called(ctx, documentID, query, nResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Context), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
