package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/workflowwise/workflowwise/internal/docstore"
	"github.com/workflowwise/workflowwise/internal/models"
	"github.com/workflowwise/workflowwise/internal/pipeline"
)

const missingIndexHTML = `<h1>Error: index.html not found</h1><p>Please ensure the 'static' directory with 'index.html' is correctly placed at the project root.</p>`

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.String("query", req.Query), zap.Int("top_k", req.TopK),
		zap.String("session_id", req.SessionID))

	response, err := s.orchestrator.Run(r.Context(), req)
	if err != nil {
		s.logger.Error("search turn failed", zap.Error(err))
		s.respondError(w, statusForError(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// statusForError maps pipeline error kinds onto HTTP statuses. Validation
// failures are the caller's fault; unavailable collaborators are a degraded
// service; everything else is an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleDocumentQuery exposes the document store's action protocol: get a
// record by id or run a full-text search over the corpus.
func (s *Server) handleDocumentQuery(w http.ResponseWriter, r *http.Request) {
	var req docstore.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("document query",
		zap.String("action", req.Action), zap.String("doc_id", req.DocID))

	resp := docstore.Send(r.Context(), s.store, req)
	status := http.StatusOK
	switch resp.Status {
	case docstore.StatusNotFound:
		status = http.StatusNotFound
	case docstore.StatusFailure:
		status = http.StatusBadRequest
		if resp.Error == docstore.ErrNotConnected.Error() {
			status = http.StatusServiceUnavailable
		}
	}
	s.respondJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{"status": "ok"}
	if err := s.orchestrator.Ready(); err != nil {
		health["status"] = "degraded"
		health["detail"] = err.Error()
	}
	if s.store != nil && s.store.Connected() {
		if count, err := s.store.CountDocuments(r.Context()); err == nil {
			health["documents"] = count
		}
	}
	s.respondJSON(w, http.StatusOK, health)
}

// handleIndex serves the static landing page, or an HTML error when the
// static directory is absent.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	indexPath := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Error("index.html not found", zap.String("path", indexPath))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(missingIndexHTML))
		return
	}
	http.ServeFile(w, r, indexPath)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
