package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/workflowwise/workflowwise/internal/models"
)

// SQLiteStore implements Store using SQLite for by-id lookups and a Bleve
// index for full-text search.
type SQLiteStore struct {
	dbPath    string
	blevePath string
	logger    *zap.Logger

	mu        sync.RWMutex
	db        *sql.DB
	textIndex *TextIndex
	connected bool
}

// NewSQLiteStore configures a store; no I/O happens until Connect.
func NewSQLiteStore(dbPath, blevePath string, logger *zap.Logger) *SQLiteStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteStore{dbPath: dbPath, blevePath: blevePath, logger: logger}
}

// Connect opens the database and the text index, creating both as needed.
func (s *SQLiteStore) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return nil
	}
	if dir := filepath.Dir(s.dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	textIndex, err := NewTextIndex(s.blevePath)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to open text index: %w", err)
	}

	s.db = db
	s.textIndex = textIndex
	s.connected = true
	s.logger.Info("document store connected",
		zap.String("db_path", s.dbPath), zap.String("bleve_path", s.blevePath))
	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT,
		content TEXT NOT NULL,
		source TEXT,
		type TEXT,
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Connected reports whether Connect has completed.
func (s *SQLiteStore) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// GetDocument returns a document by id. A missing id yields ErrNotFound.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*models.KnowledgeItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return nil, ErrNotConnected
	}
	var item models.KnowledgeItem
	var metadataJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, source, type, metadata, created_at, updated_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&item.ID, &item.Title, &item.Content, &item.Source, &item.Type,
		&metadataJSON, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &item.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &item, nil
}

// SearchDocuments runs a full-text match over titles and content.
func (s *SQLiteStore) SearchDocuments(ctx context.Context, query string) ([]*models.KnowledgeItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return nil, ErrNotConnected
	}
	ids, err := s.textIndex.Search(ctx, query, 50)
	if err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}
	results := make([]*models.KnowledgeItem, 0, len(ids))
	for _, id := range ids {
		item, err := s.getDocumentLocked(ctx, id)
		if err != nil {
			// Index and database can briefly disagree during re-ingestion.
			s.logger.Warn("indexed document missing from database", zap.String("id", id))
			continue
		}
		results = append(results, item)
	}
	return results, nil
}

func (s *SQLiteStore) getDocumentLocked(ctx context.Context, id string) (*models.KnowledgeItem, error) {
	var item models.KnowledgeItem
	var metadataJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, source, type, metadata, created_at, updated_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&item.ID, &item.Title, &item.Content, &item.Source, &item.Type,
		&metadataJSON, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &item.Metadata); err != nil {
			return nil, err
		}
	}
	return &item, nil
}

// UpsertDocument inserts or replaces a document and refreshes its text-index entry.
func (s *SQLiteStore) UpsertDocument(ctx context.Context, item *models.KnowledgeItem) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return ErrNotConnected
	}
	if item.ID == "" {
		return fmt.Errorf("document id is required")
	}
	metadataJSON, err := json.Marshal(item.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, content, source, type, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			source = excluded.source,
			type = excluded.type,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`,
		item.ID, item.Title, item.Content, item.Source, item.Type,
		string(metadataJSON), item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return s.textIndex.Index(ctx, item)
}

// CountDocuments returns the number of stored documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return 0, ErrNotConnected
	}
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Close closes the database and the text index. The store reports
// disconnected afterwards.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	s.connected = false
	var firstErr error
	if err := s.textIndex.Close(); err != nil {
		firstErr = err
	}
	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
