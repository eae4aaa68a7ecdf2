package document_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"projecttutor/backend/features/document"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Save(ctx context.Context, doc *document.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockRepo) List(ctx context.Context) ([]document.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Document), args.Error(1)
}

func (m *MockRepo) SetIndexed(ctx context.Context, id string, indexed bool) error {
	return m.Called(ctx, id, indexed).Error(0)
}

func (m *MockRepo) SetArtifact(ctx context.Context, id string, path []string, value any) error {
	return m.Called(ctx, id, path, value).Error(0)
}

func (m *MockRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) ExtractPages(path string) ([]string, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) Upsert(ctx context.Context, documentID string, chunkIDs, texts []string, embeddings [][]float32, metadatas []map[string]interface{}) error {
	return m.Called(ctx, documentID, chunkIDs, texts, embeddings, metadatas).Error(0)
}

func (m *MockIndex) DeleteDocument(ctx context.Context, documentID string) error {
	return m.Called(ctx, documentID).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, body []byte) error {
	return m.Called(topic, body).Error(0)
}

type MockFailures struct {
	mock.Mock
}

func (m *MockFailures) Record(ctx context.Context, documentID, handler string, payload []byte, cause error) error {
	return m.Called(ctx, documentID, handler, payload, cause).Error(0)
}
