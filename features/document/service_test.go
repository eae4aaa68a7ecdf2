package document_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"projecttutor/backend/features/document"
	"projecttutor/backend/internal/config"
	"projecttutor/backend/internal/text"
	"projecttutor/backend/internal/vector"
	"projecttutor/backend/internal/worker"
)

type serviceDeps struct {
	repo     *MockRepo
	ext      *MockExtractor
	emb      *MockEmbedder
	idx      *MockIndex
	pub      *MockPublisher
	failures *MockFailures
}

func newService(withPublisher bool) (*document.Service, serviceDeps) {
	d := serviceDeps{
		repo:     new(MockRepo),
		ext:      new(MockExtractor),
		emb:      new(MockEmbedder),
		idx:      new(MockIndex),
		pub:      new(MockPublisher),
		failures: new(MockFailures),
	}
	var pub document.EventPublisher
	if withPublisher {
		pub = d.pub
	}
	svc := document.NewService(d.repo, d.ext, d.emb, d.idx, pub, d.failures, document.ChunkOptions{Size: 1000, Overlap: 200})
	return svc, d
}

func TestService_Ingest_Success(t *testing.T) {
	svc, d := newService(true)
	pages := []string{"Cells divide by mitosis.", "Plants use photosynthesis."}

	d.ext.On("ExtractPages", "/tmp/bio.pdf").Return(pages, nil)
	d.emb.On("EmbedMany", mock.Anything, []string{"Cells divide by mitosis.\n\nPlants use photosynthesis."}).
		Return([][]float32{{0.1, 0.2}}, nil)
	d.idx.On("Upsert", mock.Anything, mock.AnythingOfType("string"), []string{"0"}, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			metas := args.Get(5).([]map[string]interface{})
			require.Len(t, metas, 1)
			assert.Equal(t, "bio.pdf", metas[0][vector.MetaFilename])
			assert.Equal(t, 0, metas[0][vector.MetaStart])
		}).Return(nil)
	d.repo.On("Save", mock.Anything, mock.MatchedBy(func(doc *document.Document) bool {
		return doc.Indexed && doc.PagesCount == 2 && doc.ChunkCount == 1 && doc.Filename == "bio.pdf"
	})).Return(nil)

	doc, err := svc.Ingest(context.Background(), "bio.pdf", "/tmp/bio.pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.True(t, doc.Indexed)
	assert.NotNil(t, doc.Artifacts.MCQ)
	d.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	d.repo.AssertExpectations(t)
	d.idx.AssertExpectations(t)
}

func TestService_Ingest_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		pages   []string
		extErr  error
		wantErr error
	}{
		{"Unreadable", nil, errors.New("malformed xref"), document.ErrUnreadable},
		{"All Pages Blank", []string{"", "  \n"}, nil, document.ErrNoText},
		{"No Pages", []string{}, nil, document.ErrNoText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newService(true)
			d.ext.On("ExtractPages", "f.pdf").Return(tt.pages, tt.extErr)

			_, err := svc.Ingest(context.Background(), "f.pdf", "f.pdf")
			assert.ErrorIs(t, err, tt.wantErr)
			d.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Ingest_EmbeddingFailureQueuesIndexTask(t *testing.T) {
	svc, d := newService(true)
	d.ext.On("ExtractPages", "f.pdf").Return([]string{"Some text."}, nil)
	d.emb.On("EmbedMany", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

	var saved *document.Document
	d.repo.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*document.Document)
	}).Return(nil)
	d.pub.On("Publish", config.TopicDocumentIndex, mock.Anything).Run(func(args mock.Arguments) {
		var task worker.IndexTask
		require.NoError(t, json.Unmarshal(args.Get(1).([]byte), &task))
		assert.Equal(t, saved.ID, task.DocumentID)
	}).Return(nil)

	doc, err := svc.Ingest(context.Background(), "f.pdf", "f.pdf")
	require.NoError(t, err)
	assert.False(t, doc.Indexed)
	d.idx.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	d.failures.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	d.pub.AssertExpectations(t)
}

func TestService_Ingest_PublishFailureRecordsFailedJob(t *testing.T) {
	svc, d := newService(true)
	d.ext.On("ExtractPages", "f.pdf").Return([]string{"Some text."}, nil)
	d.emb.On("EmbedMany", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))
	d.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	d.pub.On("Publish", config.TopicDocumentIndex, mock.Anything).Return(errors.New("nsq down"))
	d.failures.On("Record", mock.Anything, mock.AnythingOfType("string"), worker.HandlerIndex, mock.Anything, mock.Anything).Return(nil)

	doc, err := svc.Ingest(context.Background(), "f.pdf", "f.pdf")
	require.NoError(t, err)
	assert.False(t, doc.Indexed)
	d.failures.AssertExpectations(t)
}

func TestService_Ingest_NoPublisherRecordsFailedJob(t *testing.T) {
	svc, d := newService(false)
	d.ext.On("ExtractPages", "f.pdf").Return([]string{"Some text."}, nil)
	d.emb.On("EmbedMany", mock.Anything, mock.Anything).Return([][]float32{{1}}, nil)
	d.idx.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("weaviate down"))
	d.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	d.failures.On("Record", mock.Anything, mock.Anything, worker.HandlerIndex, mock.Anything, worker.ErrNoPublisher).Return(nil)

	_, err := svc.Ingest(context.Background(), "f.pdf", "f.pdf")
	require.NoError(t, err)
	d.failures.AssertExpectations(t)
}

func TestService_Ingest_SaveError(t *testing.T) {
	svc, d := newService(true)
	d.ext.On("ExtractPages", "f.pdf").Return([]string{"Some text."}, nil)
	d.emb.On("EmbedMany", mock.Anything, mock.Anything).Return([][]float32{{1}}, nil)
	d.idx.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	d.repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db error"))

	_, err := svc.Ingest(context.Background(), "f.pdf", "f.pdf")
	assert.EqualError(t, err, "db error")
}

func TestService_Reindex(t *testing.T) {
	doc := &document.Document{
		ID:       "doc-1",
		Filename: "bio.pdf",
		Chunks: []text.Chunk{
			{ID: "0", Text: "alpha", Start: 0, End: 5},
			{ID: "1", Text: "beta", Start: 4, End: 9},
		},
	}

	t.Run("Success", func(t *testing.T) {
		svc, d := newService(true)
		d.repo.On("Get", mock.Anything, "doc-1").Return(doc, nil)
		d.emb.On("EmbedMany", mock.Anything, []string{"alpha", "beta"}).Return([][]float32{{1, 0}, {0, 1}}, nil)
		d.idx.On("Upsert", mock.Anything, "doc-1", []string{"0", "1"}, []string{"alpha", "beta"}, mock.Anything, mock.Anything).Return(nil)
		d.repo.On("SetIndexed", mock.Anything, "doc-1", true).Return(nil)

		require.NoError(t, svc.Reindex(context.Background(), "doc-1"))
		d.repo.AssertExpectations(t)
	})

	t.Run("Embedding Error Keeps Flag", func(t *testing.T) {
		svc, d := newService(true)
		d.repo.On("Get", mock.Anything, "doc-1").Return(doc, nil)
		d.emb.On("EmbedMany", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

		assert.Error(t, svc.Reindex(context.Background(), "doc-1"))
		d.repo.AssertNotCalled(t, "SetIndexed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Not Found", func(t *testing.T) {
		svc, d := newService(true)
		d.repo.On("Get", mock.Anything, "missing").Return(nil, document.ErrNotFound)

		assert.ErrorIs(t, svc.Reindex(context.Background(), "missing"), document.ErrNotFound)
	})
}

func TestService_RequestReindex(t *testing.T) {
	svc, d := newService(true)
	d.repo.On("Get", mock.Anything, "doc-1").Return(&document.Document{ID: "doc-1"}, nil)
	d.pub.On("Publish", config.TopicDocumentIndex, mock.Anything).Return(nil)

	require.NoError(t, svc.RequestReindex(context.Background(), "doc-1"))
	d.pub.AssertExpectations(t)
}

func TestService_Delete(t *testing.T) {
	t.Run("Removes Records Then Document", func(t *testing.T) {
		svc, d := newService(true)
		var order []string
		d.repo.On("Get", mock.Anything, "doc-1").Return(&document.Document{ID: "doc-1"}, nil)
		d.idx.On("DeleteDocument", mock.Anything, "doc-1").Run(func(mock.Arguments) { order = append(order, "index") }).Return(nil)
		d.repo.On("Delete", mock.Anything, "doc-1").Run(func(mock.Arguments) { order = append(order, "repo") }).Return(nil)

		require.NoError(t, svc.Delete(context.Background(), "doc-1"))
		assert.Equal(t, []string{"index", "repo"}, order)
	})

	t.Run("Index Error Keeps Document", func(t *testing.T) {
		svc, d := newService(true)
		d.repo.On("Get", mock.Anything, "doc-1").Return(&document.Document{ID: "doc-1"}, nil)
		d.idx.On("DeleteDocument", mock.Anything, "doc-1").Return(errors.New("weaviate down"))

		assert.Error(t, svc.Delete(context.Background(), "doc-1"))
		d.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
