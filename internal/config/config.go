// Package config provides configuration loading and structs for the WorkflowWise server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Storage   StorageConfig   `yaml:"storage"`
	Context   ContextConfig   `yaml:"context"`
	Data      DataConfig      `yaml:"data"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// EmbeddingConfig holds settings for the OpenAI-compatible embedding service.
type EmbeddingConfig struct {
	Host       string `yaml:"host"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	APIKeyEnv  string `yaml:"api_key_env"`
	CacheSize  int    `yaml:"cache_size"`
}

// VectorConfig selects and configures the vector index backend.
// Credentials are never stored in the file; APIKey and PodEnvironment are
// read from PINECONE_API_KEY and PINECONE_ENVIRONMENT at load time.
type VectorConfig struct {
	Type       string `yaml:"type"` // "pinecone" or "memory"
	IndexName  string `yaml:"index_name"`
	Serverless *bool  `yaml:"serverless"`
	Cloud      string `yaml:"cloud"`
	Region     string `yaml:"region"`
	Metric     string `yaml:"metric"`

	APIKey         string `yaml:"-"`
	PodEnvironment string `yaml:"-"`
}

// ServerlessOrDefault returns whether to use a serverless index; defaults to true when unset.
func (v *VectorConfig) ServerlessOrDefault() bool {
	if v.Serverless != nil {
		return *v.Serverless
	}
	return true
}

// StorageConfig holds paths for the document database and its text index.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// ContextConfig holds session context retention settings.
type ContextConfig struct {
	Capacity int `yaml:"capacity"`
}

// DataConfig holds seed corpus and static asset locations.
type DataConfig struct {
	SeedPath  string `yaml:"seed_path"`
	Watch     bool   `yaml:"watch"`
	StaticDir string `yaml:"static_dir"`
}

// Load reads and parses the config file at path, applies defaults, and
// overlays credentials from the environment. A missing file is not an error;
// defaults are used so the memory-backed setup works with no config at all.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	cfg.Vector.APIKey = os.Getenv("PINECONE_API_KEY")
	cfg.Vector.PodEnvironment = os.Getenv("PINECONE_ENVIRONMENT")
	if name := os.Getenv("PINECONE_INDEX_NAME"); name != "" {
		cfg.Vector.IndexName = name
	}
	if cloud := os.Getenv("PINECONE_CLOUD"); cloud != "" {
		cfg.Vector.Cloud = cloud
	}
	if region := os.Getenv("PINECONE_REGION"); region != "" {
		cfg.Vector.Region = region
	}
	if v := os.Getenv("USE_SERVERLESS_INDEX"); v != "" {
		serverless := v == "true" || v == "1"
		cfg.Vector.Serverless = &serverless
	}

	return &cfg, nil
}

// ValidateCredentials checks that the selected vector backend has the
// credentials it needs. Pod-based Pinecone indexes additionally require the
// pod environment.
func (c *Config) ValidateCredentials() error {
	if c.Vector.Type != "pinecone" {
		return nil
	}
	if c.Vector.APIKey == "" {
		return fmt.Errorf("PINECONE_API_KEY must be set for the pinecone vector backend")
	}
	if !c.Vector.ServerlessOrDefault() && c.Vector.PodEnvironment == "" {
		return fmt.Errorf("PINECONE_ENVIRONMENT must be set for pod-based indexes")
	}
	return nil
}
