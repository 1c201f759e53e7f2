package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflowwise/workflowwise/internal/contextstore"
	"github.com/workflowwise/workflowwise/internal/docstore"
	"github.com/workflowwise/workflowwise/internal/embedding"
	"github.com/workflowwise/workflowwise/internal/models"
	"github.com/workflowwise/workflowwise/internal/understanding"
	"github.com/workflowwise/workflowwise/internal/vector"
)

// fakeIndex returns canned hits or a canned error.
type fakeIndex struct {
	hits []vector.Hit
	err  error
}

func (f *fakeIndex) EnsureIndex(ctx context.Context, name string, dimensions int, opts vector.IndexOptions) error {
	return nil
}
func (f *fakeIndex) Upsert(ctx context.Context, items []vector.UpsertItem) error { return nil }
func (f *fakeIndex) Search(ctx context.Context, query []float32, topK int, filter map[string]interface{}) ([]vector.Hit, error) {
	if f.err != nil {
		return nil, f.err
	}
	if topK < len(f.hits) {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}
func (f *fakeIndex) Close() error { return nil }

// fakeDocStore serves documents from a map; ids absent from the map are
// not found.
type fakeDocStore struct {
	docs      map[string]*models.KnowledgeItem
	connected bool
}

func (f *fakeDocStore) Connect(ctx context.Context) error { f.connected = true; return nil }
func (f *fakeDocStore) Connected() bool                   { return f.connected }
func (f *fakeDocStore) GetDocument(ctx context.Context, id string) (*models.KnowledgeItem, error) {
	if doc, ok := f.docs[id]; ok {
		return doc, nil
	}
	return nil, docstore.ErrNotFound
}
func (f *fakeDocStore) SearchDocuments(ctx context.Context, query string) ([]*models.KnowledgeItem, error) {
	return nil, nil
}
func (f *fakeDocStore) UpsertDocument(ctx context.Context, item *models.KnowledgeItem) error {
	return nil
}
func (f *fakeDocStore) CountDocuments(ctx context.Context) (int64, error) {
	return int64(len(f.docs)), nil
}
func (f *fakeDocStore) Close() error { return nil }

func hit(id, title, snippet string, score float64) vector.Hit {
	return vector.Hit{
		ID:    id,
		Score: score,
		Metadata: map[string]interface{}{
			"title":           title,
			"source":          "Confluence",
			"type":            "document",
			"content_snippet": snippet,
		},
	}
}

func longContent(n int) string {
	out := ""
	for len(out) < n {
		out += "All work and no play makes for dull documentation. "
	}
	return out
}

func newOrchestrator(t *testing.T, index vector.Index, store docstore.Store) (*Orchestrator, *contextstore.Store) {
	t.Helper()
	contexts := contextstore.New(0, nil)
	stage := understanding.NewStage(embedding.NewMockEmbedder(8), nil)
	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return NewOrchestrator(stage, contexts, index, store, pool, nil), contexts
}

func TestRunEndToEnd(t *testing.T) {
	content := longContent(300)
	store := &fakeDocStore{connected: true, docs: map[string]*models.KnowledgeItem{
		"doc_001": {ID: "doc_001", Title: "Project Phoenix Overview", Content: content},
		"doc_002": {ID: "doc_002", Title: "Q3 Marketing Strategy", Content: content},
	}}
	index := &fakeIndex{hits: []vector.Hit{
		hit("doc_001", "Project Phoenix Overview", "snippet one", 0.9),
		hit("doc_002", "Q3 Marketing Strategy", "snippet two", 0.7),
	}}
	orch, _ := newOrchestrator(t, index, store)

	resp, err := orch.Run(context.Background(), models.SearchRequest{Query: "project phoenix", SessionID: "sess-1"})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "doc_001", resp.Results[0].ID, "retrieval order must be preserved")
	assert.Equal(t, "doc_002", resp.Results[1].ID)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Empty(t, resp.Message)
	for _, r := range resp.Results {
		assert.Equal(t, content[:200]+"...", r.FullContentPreview)
	}
}

func TestRunGeneratesSessionID(t *testing.T) {
	store := &fakeDocStore{connected: true}
	orch, _ := newOrchestrator(t, &fakeIndex{}, store)

	resp, err := orch.Run(context.Background(), models.SearchRequest{Query: "anything"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
}

func TestRunEmptyResults(t *testing.T) {
	store := &fakeDocStore{connected: true}
	orch, _ := newOrchestrator(t, &fakeIndex{}, store)

	resp, err := orch.Run(context.Background(), models.SearchRequest{Query: "obscure topic", SessionID: "sess-2"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, "No relevant documents found.", resp.Message)
}

func TestRunRetrievalFailure(t *testing.T) {
	store := &fakeDocStore{connected: true}
	index := &fakeIndex{err: errors.New("index offline")}
	orch, contexts := newOrchestrator(t, index, store)

	_, err := orch.Run(context.Background(), models.SearchRequest{Query: "anything", SessionID: "sess-3"})
	require.ErrorIs(t, err, ErrRetrievalFailed)

	// The understanding event was written before retrieval failed; nothing
	// else is recorded for the turn.
	events, err := contexts.Get("sess-3")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRunInvalidInput(t *testing.T) {
	store := &fakeDocStore{connected: true}
	orch, _ := newOrchestrator(t, &fakeIndex{}, store)

	_, err := orch.Run(context.Background(), models.SearchRequest{Query: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = orch.Run(context.Background(), models.SearchRequest{Query: "q", TopK: 99})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRunEnrichmentFallback(t *testing.T) {
	// Store is connected but has no documents, so every lookup misses and
	// results fall back to the metadata snippet.
	store := &fakeDocStore{connected: true}
	index := &fakeIndex{hits: []vector.Hit{hit("doc_404", "Ghost Doc", "metadata snippet", 0.5)}}
	orch, _ := newOrchestrator(t, index, store)

	resp, err := orch.Run(context.Background(), models.SearchRequest{Query: "ghost", SessionID: "sess-4"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "metadata snippet", resp.Results[0].ContentSnippet)
	assert.Equal(t, "metadata snippet", resp.Results[0].FullContentPreview)
	assert.Equal(t, "Ghost Doc", resp.Results[0].Title)
}

func TestRunPlaceholderMetadata(t *testing.T) {
	store := &fakeDocStore{connected: true}
	index := &fakeIndex{hits: []vector.Hit{{ID: "doc_bare", Score: 0.3}}}
	orch, _ := newOrchestrator(t, index, store)

	resp, err := orch.Run(context.Background(), models.SearchRequest{Query: "bare"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "N/A", resp.Results[0].Title)
	assert.Equal(t, "N/A", resp.Results[0].Source)
	assert.Equal(t, "N/A", resp.Results[0].Type)
	assert.Empty(t, resp.Results[0].ContentSnippet)
}

func TestRunWritesOneContextEventPerTurn(t *testing.T) {
	store := &fakeDocStore{connected: true}
	index := &fakeIndex{hits: []vector.Hit{hit("doc_001", "T", "s", 0.9)}}
	orch, contexts := newOrchestrator(t, index, store)

	for i := 0; i < 3; i++ {
		_, err := orch.Run(context.Background(), models.SearchRequest{Query: fmt.Sprintf("query %d", i), SessionID: "sess-5"})
		require.NoError(t, err)
	}

	events, err := contexts.Get("sess-5")
	require.NoError(t, err)
	require.Len(t, events, 3)
	ev, ok := events[0].(ContextEvent)
	require.True(t, ok)
	assert.Equal(t, "query_understanding_result", ev.Type)
}

// nilEmbedder produces no vectors, driving the understanding stage to its
// partial status.
type nilEmbedder struct{}

func (nilEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("model unavailable")
}
func (nilEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("model unavailable")
}
func (nilEmbedder) Dimensions() int { return 8 }
func (nilEmbedder) Close() error    { return nil }

func TestRunAbortsWithoutEmbedding(t *testing.T) {
	store := &fakeDocStore{connected: true}
	stage := understanding.NewStage(nilEmbedder{}, nil)
	orch := NewOrchestrator(stage, contextstore.New(0, nil), &fakeIndex{}, store, nil, nil)

	_, err := orch.Run(context.Background(), models.SearchRequest{Query: "anything"})
	assert.ErrorIs(t, err, ErrQueryProcessingFailed)
}

func TestReadyNamesMissingCollaborators(t *testing.T) {
	orch := NewOrchestrator(nil, contextstore.New(0, nil), nil, &fakeDocStore{}, nil, nil)
	err := orch.Ready()
	require.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "query understanding")
	assert.Contains(t, err.Error(), "vector index")
	assert.NotContains(t, err.Error(), "context store")
}

func TestRunRefusedWhenNotReady(t *testing.T) {
	orch := NewOrchestrator(nil, nil, nil, nil, nil, nil)
	_, err := orch.Run(context.Background(), models.SearchRequest{Query: "anything"})
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestRunWithoutPoolEnrichesSequentially(t *testing.T) {
	content := longContent(250)
	store := &fakeDocStore{connected: true, docs: map[string]*models.KnowledgeItem{
		"doc_001": {ID: "doc_001", Title: "T", Content: content},
	}}
	index := &fakeIndex{hits: []vector.Hit{hit("doc_001", "T", "s", 0.9)}}
	stage := understanding.NewStage(embedding.NewMockEmbedder(8), nil)
	orch := NewOrchestrator(stage, contextstore.New(0, nil), index, store, nil, nil)

	resp, err := orch.Run(context.Background(), models.SearchRequest{Query: "anything"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, content[:200]+"...", resp.Results[0].FullContentPreview)
}
