package docstore

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/workflowwise/workflowwise/internal/models"
)

// LoadSeed reads a JSON array of documents from path. It is used to populate
// the knowledge base from the bundled sample corpus.
func LoadSeed(path string) ([]*models.KnowledgeItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var items []*models.KnowledgeItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	for i, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("seed document %d has no id", i)
		}
	}
	return items, nil
}
