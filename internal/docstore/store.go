// Package docstore implements the document-store collaborator: full knowledge
// records addressable by id, with an action-dispatched request front mirroring
// the upstream document management protocol.
package docstore

import (
	"context"

	"github.com/workflowwise/workflowwise/internal/models"
)

// Actions understood by Send.
const (
	ActionGetDocumentByID = "get_document_by_id"
	ActionSearchDocuments = "search_documents"
)

// Response statuses.
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusFailure  = "failure"
)

// Store defines the document-store collaborator contract. Implementations
// must refuse data operations before Connect.
type Store interface {
	// Connect opens the store. Data operations before Connect fail with
	// ErrNotConnected.
	Connect(ctx context.Context) error
	Connected() bool

	GetDocument(ctx context.Context, id string) (*models.KnowledgeItem, error)
	SearchDocuments(ctx context.Context, query string) ([]*models.KnowledgeItem, error)
	UpsertDocument(ctx context.Context, item *models.KnowledgeItem) error
	CountDocuments(ctx context.Context) (int64, error)

	Close() error
}

// Request is one action-dispatched call against the store.
type Request struct {
	Action string `json:"action"`
	DocID  string `json:"doc_id,omitempty"`
	Query  string `json:"query,omitempty"`
}

// Response is the uniform reply shape for Send.
type Response struct {
	Status   string                  `json:"status"`
	Document *models.KnowledgeItem   `json:"document,omitempty"`
	Results  []*models.KnowledgeItem `json:"results,omitempty"`
	Count    int                     `json:"count,omitempty"`
	DocID    string                  `json:"doc_id,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// Send dispatches req against s. A disconnected store yields a failure
// response with the "Not connected" error; an unrecognized action yields a
// failure response naming it. Lookup misses are reported as not_found, never
// as transport failures.
func Send(ctx context.Context, s Store, req Request) Response {
	if !s.Connected() {
		return Response{Status: StatusFailure, Error: ErrNotConnected.Error()}
	}
	switch req.Action {
	case ActionGetDocumentByID:
		doc, err := s.GetDocument(ctx, req.DocID)
		if err != nil {
			return Response{Status: StatusNotFound, DocID: req.DocID}
		}
		return Response{Status: StatusSuccess, Document: doc}
	case ActionSearchDocuments:
		results, err := s.SearchDocuments(ctx, req.Query)
		if err != nil {
			return Response{Status: StatusFailure, Error: err.Error()}
		}
		return Response{Status: StatusSuccess, Results: results, Count: len(results)}
	default:
		return Response{Status: StatusFailure, Error: ErrUnsupportedAction.Error() + ": " + req.Action}
	}
}
