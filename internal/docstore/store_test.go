package docstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflowwise/workflowwise/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	store := NewSQLiteStore(filepath.Join(dir, "documents.db"), filepath.Join(dir, "bleve"), nil)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedItem(id, title, content string) *models.KnowledgeItem {
	return &models.KnowledgeItem{
		ID:      id,
		Title:   title,
		Content: content,
		Source:  "Confluence",
		Type:    "document",
	}
}

func TestStoreRefusesDataOpsBeforeConnect(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.False(t, store.Connected())

	_, err := store.GetDocument(ctx, "doc_001")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = store.SearchDocuments(ctx, "phoenix")
	assert.ErrorIs(t, err, ErrNotConnected)

	err = store.UpsertDocument(ctx, seedItem("doc_001", "t", "c"))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestStoreUpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Connect(ctx))
	assert.True(t, store.Connected())

	item := seedItem("doc_001", "Project Phoenix Overview", "Project Phoenix is an AI initiative.")
	item.Metadata = map[string]any{"team": "platform"}
	require.NoError(t, store.UpsertDocument(ctx, item))

	got, err := store.GetDocument(ctx, "doc_001")
	require.NoError(t, err)
	assert.Equal(t, "Project Phoenix Overview", got.Title)
	assert.Equal(t, "Confluence", got.Source)
	assert.Equal(t, "platform", got.Metadata["team"])

	// Upsert with the same id replaces the record.
	item.Content = "Project Phoenix moved to Q1."
	require.NoError(t, store.UpsertDocument(ctx, item))
	got, err = store.GetDocument(ctx, "doc_001")
	require.NoError(t, err)
	assert.Equal(t, "Project Phoenix moved to Q1.", got.Content)

	count, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStoreGetMissingDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Connect(ctx))

	_, err := store.GetDocument(ctx, "doc_404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSearchDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Connect(ctx))

	require.NoError(t, store.UpsertDocument(ctx, seedItem("doc_001", "Project Phoenix Overview", "AI customer engagement initiative.")))
	require.NoError(t, store.UpsertDocument(ctx, seedItem("doc_002", "Q3 Marketing Strategy", "Digital channels and content marketing.")))

	results, err := store.SearchDocuments(ctx, "phoenix")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc_001", results[0].ID)

	results, err = store.SearchDocuments(ctx, "kubernetes")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSendDisconnected(t *testing.T) {
	store := newTestStore(t)

	resp := Send(context.Background(), store, Request{Action: ActionGetDocumentByID, DocID: "doc_001"})
	assert.Equal(t, StatusFailure, resp.Status)
	assert.Equal(t, "Not connected", resp.Error)
}

func TestSendGetDocumentByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Connect(ctx))
	require.NoError(t, store.UpsertDocument(ctx, seedItem("doc_001", "Project Phoenix Overview", "AI initiative.")))

	resp := Send(ctx, store, Request{Action: ActionGetDocumentByID, DocID: "doc_001"})
	assert.Equal(t, StatusSuccess, resp.Status)
	require.NotNil(t, resp.Document)
	assert.Equal(t, "doc_001", resp.Document.ID)

	resp = Send(ctx, store, Request{Action: ActionGetDocumentByID, DocID: "doc_404"})
	assert.Equal(t, StatusNotFound, resp.Status)
	assert.Equal(t, "doc_404", resp.DocID)
}

func TestSendSearchDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Connect(ctx))
	require.NoError(t, store.UpsertDocument(ctx, seedItem("doc_003", "Onboarding Guide", "Checklist for new hires.")))

	resp := Send(ctx, store, Request{Action: ActionSearchDocuments, Query: "onboarding"})
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "doc_003", resp.Results[0].ID)
}

func TestSendUnknownAction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Connect(ctx))

	resp := Send(ctx, store, Request{Action: "delete_everything"})
	assert.Equal(t, StatusFailure, resp.Status)
	assert.Contains(t, resp.Error, "delete_everything")
}

func TestStoreCloseDisconnects(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Connect(ctx))
	require.NoError(t, store.Close())
	assert.False(t, store.Connected())

	_, err := store.GetDocument(ctx, "doc_001")
	assert.ErrorIs(t, err, ErrNotConnected)
}
