package embedding

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// OpenAIEmbedder generates embeddings through an OpenAI-compatible API.
type OpenAIEmbedder struct {
	embedder   embeddings.Embedder
	dimensions int
	logger     *zap.Logger
}

// OpenAIConfig configures the OpenAI-compatible embedding client.
type OpenAIConfig struct {
	Host       string
	Model      string
	Dimensions int
	APIKeyEnv  string
}

// NewOpenAIEmbedder creates an embedder backed by the configured service.
// When the API key env var is unset, "none" is sent so local services that
// skip authentication still work.
func NewOpenAIEmbedder(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIEmbedder, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive, got %d", cfg.Dimensions)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	token := os.Getenv(cfg.APIKeyEnv)
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.Host),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return &OpenAIEmbedder{
		embedder:   embedder,
		dimensions: cfg.Dimensions,
		logger:     logger,
	}, nil
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding service returned no vectors")
	}
	if len(vectors[0]) != e.dimensions {
		e.logger.Warn("embedding dimension differs from configuration",
			zap.Int("got", len(vectors[0])), zap.Int("configured", e.dimensions))
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("batch embedding request failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

// Dimensions returns the configured embedding dimension. This stays valid even
// when the remote model is unreachable.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the underlying client holds no persistent connections.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
