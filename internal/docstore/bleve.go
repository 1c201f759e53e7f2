package docstore

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/workflowwise/workflowwise/internal/models"
)

// TextIndex is a Bleve full-text index over document titles and content,
// backing the search_documents action.
type TextIndex struct {
	index bleve.Index
}

// NewTextIndex creates or opens a Bleve index at path. An existing index is
// reused so unchanged documents are not re-indexed on restart. Changing the
// mapping requires removing the index directory first.
func NewTextIndex(path string) (*TextIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &TextIndex{index: index}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so queries match
	// exact words instead of stems.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("id", bleve.NewKeywordFieldMapping())
	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &TextIndex{index: index}, nil
}

type indexedDocument struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Index adds or replaces a document in the index.
func (t *TextIndex) Index(ctx context.Context, item *models.KnowledgeItem) error {
	return t.index.Index(item.ID, indexedDocument{
		ID:      item.ID,
		Title:   item.Title,
		Content: item.Content,
	})
}

// Search runs a match query over all fields and returns up to limit document
// ids ordered by relevance.
func (t *TextIndex) Search(ctx context.Context, query string, limit int) ([]string, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	results, err := t.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	ids := make([]string, len(results.Hits))
	for i, hit := range results.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// Delete removes a document from the index.
func (t *TextIndex) Delete(ctx context.Context, id string) error {
	return t.index.Delete(id)
}

// DocCount returns the number of indexed documents.
func (t *TextIndex) DocCount() (uint64, error) {
	return t.index.DocCount()
}

// Close closes the underlying index.
func (t *TextIndex) Close() error {
	return t.index.Close()
}
