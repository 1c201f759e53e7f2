// Package ingest loads the knowledge corpus into the document store and the
// vector index.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/workflowwise/workflowwise/internal/docstore"
	"github.com/workflowwise/workflowwise/internal/embedding"
	"github.com/workflowwise/workflowwise/internal/models"
	"github.com/workflowwise/workflowwise/internal/vector"
	"github.com/workflowwise/workflowwise/pkg/utils"
)

const metadataSnippetLen = 150

// Ingestor writes documents into the document store and upserts their
// embeddings into the vector index.
type Ingestor struct {
	store     docstore.Store
	embedder  embedding.Embedder
	index     vector.Index
	indexName string
	indexOpts vector.IndexOptions
	logger    *zap.Logger
}

// NewIngestor wires an ingestor. indexName and opts are used to ensure the
// vector index exists before the first upsert.
func NewIngestor(
	store docstore.Store,
	embedder embedding.Embedder,
	index vector.Index,
	indexName string,
	opts vector.IndexOptions,
	logger *zap.Logger,
) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		store:     store,
		embedder:  embedder,
		index:     index,
		indexName: indexName,
		indexOpts: opts,
		logger:    logger,
	}
}

// IngestFile loads documents from a seed file and ingests them. Returns the
// number of documents ingested.
func (ing *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	items, err := docstore.LoadSeed(path)
	if err != nil {
		return 0, err
	}
	if err := ing.Ingest(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// Ingest stores each document, embeds title and content together, and upserts
// the vectors with lookup metadata. Documents whose embedding fails are stored
// but skipped in the vector index.
func (ing *Ingestor) Ingest(ctx context.Context, items []*models.KnowledgeItem) error {
	if len(items) == 0 {
		ing.logger.Info("no documents to ingest")
		return nil
	}
	if err := ing.index.EnsureIndex(ctx, ing.indexName, ing.embedder.Dimensions(), ing.indexOpts); err != nil {
		return fmt.Errorf("failed to ensure vector index: %w", err)
	}

	texts := make([]string, len(items))
	for i, item := range items {
		if err := ing.store.UpsertDocument(ctx, item); err != nil {
			return fmt.Errorf("failed to store document %s: %w", item.ID, err)
		}
		// Embed title and content together; titles carry a lot of signal in
		// short corpora.
		texts[i] = item.Title + ". " + item.Content
	}

	embeddings, err := ing.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	upserts := make([]vector.UpsertItem, 0, len(items))
	for i, item := range items {
		if i >= len(embeddings) || embeddings[i] == nil {
			ing.logger.Warn("no embedding for document", zap.String("id", item.ID))
			continue
		}
		upserts = append(upserts, vector.UpsertItem{
			ID:     item.ID,
			Values: embeddings[i],
			Metadata: map[string]any{
				"title":           item.Title,
				"source":          item.Source,
				"type":            item.Type,
				"content_snippet": utils.Truncate(item.Content, metadataSnippetLen),
			},
		})
	}
	if len(upserts) == 0 {
		ing.logger.Info("no vectors to upsert")
		return nil
	}
	if err := ing.index.Upsert(ctx, upserts); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	ing.logger.Info("documents ingested",
		zap.Int("documents", len(items)), zap.Int("vectors", len(upserts)))
	return nil
}
