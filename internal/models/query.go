package models

import "fmt"

// Search request bounds. TopK is capped so a single turn never fans out into
// more than MaxTopK enrichment lookups.
const (
	DefaultTopK = 5
	MaxTopK     = 10
)

// SearchRequest is the inbound query for one pipeline turn, from HTTP or CLI.
type SearchRequest struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Validate checks required fields and applies the TopK default.
// Returns an error for an empty query or an out-of-range top_k.
func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if r.TopK == 0 {
		r.TopK = DefaultTopK
	}
	if r.TopK < 1 || r.TopK > MaxTopK {
		return fmt.Errorf("top_k must be between 1 and %d, got %d", MaxTopK, r.TopK)
	}
	return nil
}
