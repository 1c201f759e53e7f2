// Package vector provides the retrieval collaborator boundary: vector storage
// and similarity search. Vendor response shapes stay behind this package; the
// rest of the system only sees Hit.
package vector

import "context"

// Hit is one nearest-neighbor match. Higher score means more similar.
type Hit struct {
	ID       string
	Score    float64
	Metadata map[string]interface{}
}

// UpsertItem is one vector to store, with its metadata payload.
type UpsertItem struct {
	ID       string
	Values   []float32
	Metadata map[string]interface{}
}

// IndexOptions describes the topology of the index to provision.
type IndexOptions struct {
	Serverless     bool
	Cloud          string
	Region         string
	PodEnvironment string
	Metric         string // defaults to "cosine"
}

// Index defines vector storage and similarity search operations.
type Index interface {
	// EnsureIndex creates the named index with the given dimension if it does
	// not already exist.
	EnsureIndex(ctx context.Context, name string, dimensions int, opts IndexOptions) error
	Upsert(ctx context.Context, items []UpsertItem) error
	// Search returns up to topK hits ordered by descending similarity.
	// An optional metadata filter restricts candidates.
	Search(ctx context.Context, query []float32, topK int, filter map[string]interface{}) ([]Hit, error)
	Close() error
}
