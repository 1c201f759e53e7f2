package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Embedding.Host == "" {
		cfg.Embedding.Host = "https://api.openai.com/v1"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Vector.Type == "" {
		cfg.Vector.Type = "memory"
	}
	if cfg.Vector.IndexName == "" {
		cfg.Vector.IndexName = "workflowwise-index"
	}
	if cfg.Vector.Cloud == "" {
		cfg.Vector.Cloud = "aws"
	}
	if cfg.Vector.Region == "" {
		cfg.Vector.Region = "us-east-1"
	}
	if cfg.Vector.Metric == "" {
		cfg.Vector.Metric = "cosine"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/documents.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "./data/bleve"
	}
	if cfg.Context.Capacity == 0 {
		cfg.Context.Capacity = 10
	}
	if cfg.Data.SeedPath == "" {
		cfg.Data.SeedPath = "./data/sample_documents.json"
	}
	if cfg.Data.StaticDir == "" {
		cfg.Data.StaticDir = "./static"
	}
}
