// Package models defines core data structures for knowledge items, queries, and search results.
package models

import "time"

// KnowledgeItem is a single record in the knowledge corpus: a document, message,
// or ticket pulled from one of the upstream sources.
type KnowledgeItem struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	Source    string                 `json:"source,omitempty"` // e.g. "Confluence", "SharePoint"
	Type      string                 `json:"type,omitempty"`   // e.g. "document", "message", "ticket"
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at,omitempty"`
	UpdatedAt time.Time              `json:"updated_at,omitempty"`
}
