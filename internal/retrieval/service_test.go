package retrieval_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"projecttutor/backend/internal/middleware"
	"projecttutor/backend/internal/retrieval"
	"projecttutor/backend/internal/vector"
)

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockIndex struct{ mock.Mock }

func (m *MockIndex) Query(ctx context.Context, embedding []float32, documentID string, nResults int) ([]vector.Hit, error) {
	args := m.Called(ctx, embedding, documentID, nResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vector.Hit), args.Error(1)
}

func TestService_Retrieve(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*MockEmbedder, *MockIndex)
		wantErr error
		check   func(*testing.T, *retrieval.Context)
	}{
		{
			name: "Joins Hits In Rank Order",
			setup: func(e *MockEmbedder, idx *MockIndex) {
				e.On("EmbedOne", mock.Anything, "summary of bio.pdf").Return([]float32{0.1}, nil).Once()
				idx.On("Query", mock.Anything, []float32{0.1}, "doc-1", 8).Return([]vector.Hit{
					{ID: "doc-1__3", Document: "C", Distance: 0.1},
					{ID: "doc-1__0", Document: "A", Distance: 0.2},
					{ID: "doc-1__1", Document: "B", Distance: 0.3},
				}, nil)
			},
			check: func(t *testing.T, c *retrieval.Context) {
				assert.Equal(t, "C\n---\nA\n---\nB", c.Text)
				assert.Equal(t, []string{"C", "A", "B"}, c.Chunks())
				assert.Equal(t, "doc-1__3", c.Hits[0].ID)
			},
		},
		{
			name: "Single Hit Has No Separator",
			setup: func(e *MockEmbedder, idx *MockIndex) {
				e.On("EmbedOne", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
				idx.On("Query", mock.Anything, mock.Anything, "doc-1", 8).Return([]vector.Hit{{Document: "only"}}, nil)
			},
			check: func(t *testing.T, c *retrieval.Context) {
				assert.Equal(t, "only", c.Text)
			},
		},
		{
			name: "Zero Hits",
			setup: func(e *MockEmbedder, idx *MockIndex) {
				e.On("EmbedOne", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
				idx.On("Query", mock.Anything, mock.Anything, "doc-1", 8).Return([]vector.Hit{}, nil)
			},
			wantErr: retrieval.ErrNoGrounding,
		},
		{
			name: "Embedding Error Propagates",
			setup: func(e *MockEmbedder, idx *MockIndex) {
				e.On("EmbedOne", mock.Anything, mock.Anything).Return(nil, errors.New("quota"))
			},
			wantErr: errors.New("quota"),
		},
		{
			name: "Index Error Propagates",
			setup: func(e *MockEmbedder, idx *MockIndex) {
				e.On("EmbedOne", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
				idx.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("weaviate down"))
			},
			wantErr: errors.New("weaviate down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := new(MockEmbedder)
			idx := new(MockIndex)
			tt.setup(e, idx)

			svc := retrieval.NewService(e, idx, nil)
			got, err := svc.Retrieve(context.Background(), "doc-1", "summary of bio.pdf", 8)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, got)
				if errors.Is(tt.wantErr, retrieval.ErrNoGrounding) {
					assert.ErrorIs(t, err, retrieval.ErrNoGrounding)
				} else {
					assert.EqualError(t, err, tt.wantErr.Error())
				}
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
			e.AssertExpectations(t)
			idx.AssertExpectations(t)
		})
	}
}

func TestService_Retrieve_EmbedsEveryCall(t *testing.T) {
	e := new(MockEmbedder)
	idx := new(MockIndex)
	e.On("EmbedOne", mock.Anything, "what is osmosis").Return([]float32{0.5}, nil).Times(2)
	idx.On("Query", mock.Anything, []float32{0.5}, "doc-1", 4).Return([]vector.Hit{{Document: "x"}}, nil)

	svc := retrieval.NewService(e, idx, nil)
	for i := 0; i < 2; i++ {
		_, err := svc.Retrieve(context.Background(), "doc-1", "what is osmosis", 4)
		require.NoError(t, err)
	}
	e.AssertNumberOfCalls(t, "EmbedOne", 2)
}

func TestService_Retrieve_WritesQueryLog(t *testing.T) {
	var buf bytes.Buffer
	e := new(MockEmbedder)
	idx := new(MockIndex)
	e.On("EmbedOne", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	idx.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]vector.Hit{{Document: "a"}, {Document: "b"}}, nil)

	svc := retrieval.NewService(e, idx, retrieval.NewQueryLogger(&buf))
	ctx := middleware.WithCorrelationID(context.Background(), "corr-1")
	_, err := svc.Retrieve(ctx, "doc-9", "key terms from x.pdf", 10)
	require.NoError(t, err)

	var entry retrieval.QueryLogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "doc-9", entry.DocumentID)
	assert.Equal(t, "key terms from x.pdf", entry.Query)
	assert.Equal(t, 10, entry.Requested)
	assert.Equal(t, 2, entry.NumResults)
	assert.Equal(t, "corr-1", entry.CorrelationID)
	assert.Equal(t, retrieval.OutcomeOK, entry.Outcome)
}

func TestTopK(t *testing.T) {
	cases := []struct {
		task  retrieval.Task
		pages int
		want  int
	}{
		{retrieval.TaskSummary, 8, 8},
		{retrieval.TaskSummary, 9, 12},
		{retrieval.TaskNotes, 10, 10},
		{retrieval.TaskNotes, 11, 14},
		{retrieval.TaskMCQ, 100, 10},
		{retrieval.TaskFillups, 1, 10},
		{retrieval.TaskChat, 50, 4},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, retrieval.TopK(c.task, c.pages), "%s/%d", c.task, c.pages)
	}
}

func TestQuery(t *testing.T) {
	assert.Equal(t, "summary of bio.pdf", retrieval.Query(retrieval.TaskSummary, "bio.pdf"))
	assert.Equal(t, "detailed notes for bio.pdf", retrieval.Query(retrieval.TaskNotes, "bio.pdf"))
	assert.Equal(t, "important topics from bio.pdf", retrieval.Query(retrieval.TaskMCQ, "bio.pdf"))
	assert.Equal(t, "key terms from bio.pdf", retrieval.Query(retrieval.TaskFillups, "bio.pdf"))
}
