package models

// DocumentResult is one ranked hit in a search response, enriched with
// document content where the document store could supply it.
type DocumentResult struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Score              float64 `json:"score"`
	ContentSnippet     string  `json:"content_snippet,omitempty"`
	FullContentPreview string  `json:"full_content_preview,omitempty"`
	Source             string  `json:"source,omitempty"`
	Type               string  `json:"type,omitempty"`
}

// SearchResponse is the outcome of one pipeline turn. Results preserve the
// retrieval collaborator's ordering; Message is set when there is something
// to tell the caller beyond the results themselves (e.g. an empty result set).
type SearchResponse struct {
	Query     string           `json:"query"`
	Results   []DocumentResult `json:"results"`
	Message   string           `json:"message,omitempty"`
	SessionID string           `json:"session_id"`
}
