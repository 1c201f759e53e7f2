package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	pineconeControlPlane = "https://api.pinecone.io"
	pineconeAPIVersion   = "2024-07"
)

// PineconeIndex is a minimal REST client for a Pinecone index. It talks to the
// control plane for provisioning and to the index host for data operations,
// translating vendor responses into Hit at this boundary.
type PineconeIndex struct {
	apiKey       string
	indexName    string
	controlPlane string
	host         string // data-plane host, resolved by EnsureIndex
	client       *http.Client
	logger       *zap.Logger
}

// PineconeConfig configures the Pinecone client.
type PineconeConfig struct {
	APIKey    string
	IndexName string
	Timeout   time.Duration
}

// NewPineconeIndex creates a Pinecone client. The index itself is provisioned
// and resolved by EnsureIndex.
func NewPineconeIndex(cfg PineconeConfig, logger *zap.Logger) (*PineconeIndex, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone api key is required")
	}
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("pinecone index name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &PineconeIndex{
		apiKey:       cfg.APIKey,
		indexName:    cfg.IndexName,
		controlPlane: pineconeControlPlane,
		client:       &http.Client{Timeout: timeout},
		logger:       logger,
	}, nil
}

type pineconeIndexDescription struct {
	Name   string `json:"name"`
	Host   string `json:"host"`
	Status struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

// EnsureIndex creates the index if it does not exist and resolves the
// data-plane host. Pod-based indexes require opts.PodEnvironment.
func (p *PineconeIndex) EnsureIndex(ctx context.Context, name string, dimensions int, opts IndexOptions) error {
	if name != p.indexName {
		p.logger.Warn("requested index differs from configured index, using configured",
			zap.String("requested", name), zap.String("configured", p.indexName))
	}
	if dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}

	var desc pineconeIndexDescription
	status, err := p.doJSON(ctx, http.MethodGet, p.controlPlane+"/indexes/"+p.indexName, nil, &desc)
	if err != nil {
		return fmt.Errorf("describe index: %w", err)
	}
	if status == http.StatusNotFound {
		if err := p.createIndex(ctx, dimensions, opts); err != nil {
			return err
		}
		if _, err := p.doJSON(ctx, http.MethodGet, p.controlPlane+"/indexes/"+p.indexName, nil, &desc); err != nil {
			return fmt.Errorf("describe index after create: %w", err)
		}
	}
	if desc.Host == "" {
		return fmt.Errorf("index %q has no host yet (state %s)", p.indexName, desc.Status.State)
	}
	if strings.Contains(desc.Host, "://") {
		p.host = desc.Host
	} else {
		p.host = "https://" + desc.Host
	}
	p.logger.Info("pinecone index ready",
		zap.String("index", p.indexName), zap.String("host", desc.Host))
	return nil
}

func (p *PineconeIndex) createIndex(ctx context.Context, dimensions int, opts IndexOptions) error {
	metric := opts.Metric
	if metric == "" {
		metric = "cosine"
	}
	spec := map[string]interface{}{}
	if opts.Serverless {
		spec["serverless"] = map[string]interface{}{
			"cloud":  opts.Cloud,
			"region": opts.Region,
		}
	} else {
		if opts.PodEnvironment == "" {
			return fmt.Errorf("pod environment is required for pod-based indexes")
		}
		spec["pod"] = map[string]interface{}{
			"environment": opts.PodEnvironment,
			"pod_type":    "p1.x1",
		}
	}
	body := map[string]interface{}{
		"name":      p.indexName,
		"dimension": dimensions,
		"metric":    metric,
		"spec":      spec,
	}
	p.logger.Info("creating pinecone index",
		zap.String("index", p.indexName), zap.Int("dimension", dimensions), zap.Bool("serverless", opts.Serverless))
	status, err := p.doJSON(ctx, http.MethodPost, p.controlPlane+"/indexes", body, nil)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	// 409 means another process created it between describe and create.
	if status >= 300 && status != http.StatusConflict {
		return fmt.Errorf("create index %q: unexpected status %d", p.indexName, status)
	}
	return nil
}

// Upsert writes vectors to the index.
func (p *PineconeIndex) Upsert(ctx context.Context, items []UpsertItem) error {
	if p.host == "" {
		return fmt.Errorf("index host not resolved; call EnsureIndex first")
	}
	vectors := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if item.ID == "" || len(item.Values) == 0 {
			return fmt.Errorf("upsert item missing id or values")
		}
		vectors = append(vectors, map[string]interface{}{
			"id":       item.ID,
			"values":   item.Values,
			"metadata": item.Metadata,
		})
	}
	var resp struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	status, err := p.doJSON(ctx, http.MethodPost, p.host+"/vectors/upsert", map[string]interface{}{"vectors": vectors}, &resp)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("upsert: unexpected status %d", status)
	}
	p.logger.Debug("upserted vectors", zap.Int("count", resp.UpsertedCount))
	return nil
}

// Search queries the index and returns hits ordered by descending score.
func (p *PineconeIndex) Search(ctx context.Context, query []float32, topK int, filter map[string]interface{}) ([]Hit, error) {
	if p.host == "" {
		return nil, fmt.Errorf("index host not resolved; call EnsureIndex first")
	}
	if topK <= 0 {
		topK = 5
	}
	body := map[string]interface{}{
		"vector":          query,
		"topK":            topK,
		"includeMetadata": true,
	}
	if filter != nil {
		body["filter"] = filter
	}
	var resp struct {
		Matches []struct {
			ID       string                 `json:"id"`
			Score    float64                `json:"score"`
			Metadata map[string]interface{} `json:"metadata"`
		} `json:"matches"`
	}
	status, err := p.doJSON(ctx, http.MethodPost, p.host+"/query", body, &resp)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if status >= 300 {
		return nil, fmt.Errorf("query: unexpected status %d", status)
	}
	hits := make([]Hit, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		metadata := m.Metadata
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		hits = append(hits, Hit{ID: m.ID, Score: m.Score, Metadata: metadata})
	}
	return hits, nil
}

// Close is a no-op; the client keeps no persistent connections.
func (p *PineconeIndex) Close() error {
	return nil
}

// doJSON performs a JSON request and decodes the response into out when it is
// non-nil and the status is 2xx. Non-2xx statuses are returned to the caller,
// not treated as transport errors.
func (p *PineconeIndex) doJSON(ctx context.Context, method, url string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Api-Key", p.apiKey)
	req.Header.Set("X-Pinecone-API-Version", pineconeAPIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
