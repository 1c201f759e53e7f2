// Package embedding provides the embedding collaborator boundary: text to
// dense vector conversion through an OpenAI-compatible service, with caching.
package embedding

import "context"

// Embedder produces vector embeddings for text.
//
// Dimensions must report a best-effort positive value even when the backing
// service is unreachable, so index provisioning can proceed from configuration.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
