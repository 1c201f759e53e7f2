// Package pipeline sequences one query turn: understanding, context write,
// vector retrieval, and per-hit document enrichment.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/workflowwise/workflowwise/internal/contextstore"
	"github.com/workflowwise/workflowwise/internal/docstore"
	"github.com/workflowwise/workflowwise/internal/models"
	"github.com/workflowwise/workflowwise/internal/understanding"
	"github.com/workflowwise/workflowwise/internal/vector"
	"github.com/workflowwise/workflowwise/pkg/utils"
)

const (
	// NoResultsMessage accompanies a successful turn with zero hits.
	NoResultsMessage = "No relevant documents found."

	previewLen = 200
)

// ContextEvent is what a turn records in the session history.
type ContextEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Orchestrator drives query turns against its collaborators. It holds no
// per-turn state and is safe for concurrent use.
type Orchestrator struct {
	stage    *understanding.Stage
	contexts *contextstore.Store
	index    vector.Index
	store    docstore.Store
	pool     *ants.Pool
	logger   *zap.Logger
}

// NewOrchestrator wires an orchestrator. pool may be nil, in which case
// enrichment runs sequentially.
func NewOrchestrator(
	stage *understanding.Stage,
	contexts *contextstore.Store,
	index vector.Index,
	store docstore.Store,
	pool *ants.Pool,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		stage:    stage,
		contexts: contexts,
		index:    index,
		store:    store,
		pool:     pool,
		logger:   logger,
	}
}

// Ready reports whether all required collaborators are wired, naming the
// missing ones in the error.
func (o *Orchestrator) Ready() error {
	var missing []string
	if o.stage == nil {
		missing = append(missing, "query understanding")
	}
	if o.contexts == nil {
		missing = append(missing, "context store")
	}
	if o.index == nil {
		missing = append(missing, "vector index")
	}
	if o.store == nil {
		missing = append(missing, "document store")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrServiceUnavailable, strings.Join(missing, ", "))
	}
	return nil
}

// Run executes one query turn. The response carries the session id used,
// generated when the caller supplied none.
func (o *Orchestrator) Run(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	if err := o.Ready(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	result, err := o.stage.Process(ctx, req.Query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryProcessingFailed, err)
	}
	if result.Embedding == nil {
		return nil, fmt.Errorf("%w: no embedding generated", ErrQueryProcessingFailed)
	}

	// Best effort: a failed context write never aborts the turn.
	event := ContextEvent{Type: "query_understanding_result", Data: result}
	if err := o.contexts.Update(sessionID, event); err != nil {
		o.logger.Warn("context write failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	hits, err := o.index.Search(ctx, result.Embedding, req.TopK, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}
	if len(hits) == 0 {
		return &models.SearchResponse{
			Query:     req.Query,
			Results:   []models.DocumentResult{},
			Message:   NoResultsMessage,
			SessionID: sessionID,
		}, nil
	}

	return &models.SearchResponse{
		Query:     req.Query,
		Results:   o.enrich(ctx, hits),
		SessionID: sessionID,
	}, nil
}

// enrich resolves each hit against the document store, in parallel when a
// pool is available. Output order matches hit order.
func (o *Orchestrator) enrich(ctx context.Context, hits []vector.Hit) []models.DocumentResult {
	results := make([]models.DocumentResult, len(hits))
	if o.pool == nil {
		for i, hit := range hits {
			results[i] = o.enrichHit(ctx, hit)
		}
		return results
	}
	var wg sync.WaitGroup
	for i, hit := range hits {
		i, hit := i, hit
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = o.enrichHit(ctx, hit)
		}
		if err := o.pool.Submit(task); err != nil {
			// Pool saturated or closed; run inline rather than drop the hit.
			task()
		}
	}
	wg.Wait()
	return results
}

// enrichHit builds one result from a hit, falling back to the metadata
// snippet when the document store cannot supply the full record.
func (o *Orchestrator) enrichHit(ctx context.Context, hit vector.Hit) models.DocumentResult {
	result := models.DocumentResult{
		ID:     hit.ID,
		Score:  hit.Score,
		Title:  metadataString(hit.Metadata, "title", "N/A"),
		Source: metadataString(hit.Metadata, "source", "N/A"),
		Type:   metadataString(hit.Metadata, "type", "N/A"),
	}
	result.ContentSnippet = metadataString(hit.Metadata, "content_snippet", "")
	result.FullContentPreview = result.ContentSnippet

	resp := docstore.Send(ctx, o.store, docstore.Request{
		Action: docstore.ActionGetDocumentByID,
		DocID:  hit.ID,
	})
	if resp.Status == docstore.StatusSuccess && resp.Document != nil && resp.Document.Content != "" {
		result.FullContentPreview = utils.Truncate(resp.Document.Content, previewLen)
	} else if resp.Status != docstore.StatusSuccess {
		o.logger.Debug("enrichment lookup failed",
			zap.String("doc_id", hit.ID), zap.String("status", resp.Status))
	}
	return result
}

func metadataString(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
