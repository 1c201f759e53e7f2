// Package main is the WorkflowWise CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/workflowwise/workflowwise/internal/cli"
	"github.com/workflowwise/workflowwise/internal/config"
	"github.com/workflowwise/workflowwise/internal/contextstore"
	"github.com/workflowwise/workflowwise/internal/docstore"
	"github.com/workflowwise/workflowwise/internal/embedding"
	"github.com/workflowwise/workflowwise/internal/ingest"
	"github.com/workflowwise/workflowwise/internal/models"
	"github.com/workflowwise/workflowwise/internal/pipeline"
	"github.com/workflowwise/workflowwise/internal/server"
	"github.com/workflowwise/workflowwise/internal/understanding"
	"github.com/workflowwise/workflowwise/internal/vector"
	"github.com/workflowwise/workflowwise/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

func main() {
	// Credentials commonly live in a .env file during development; absence is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "chat":
		runChat()
	case "ingest":
		runIngest()
	case "version", "--version", "-v":
		fmt.Printf("workflowwise version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func loadConfigAndLogger(fs *flag.FlagSet, args []string) (*config.Config, *zap.Logger) {
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	cfg, logger := loadConfigAndLogger(fs, os.Args[2:])
	defer logger.Sync()

	// Missing credentials degrade the HTTP path instead of killing it: the
	// server comes up and answers 503 until the backend is configured.
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Error("initialization incomplete, serving degraded", zap.Error(err))
		components = &Components{
			// Unwired orchestrator and unconnected store: search answers 503,
			// document queries answer "Not connected".
			Orchestrator: pipeline.NewOrchestrator(nil, nil, nil, nil, nil, logger),
			Store:        docstore.NewSQLiteStore(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, logger),
		}
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if components.Ingestor != nil {
		if n, err := components.Ingestor.IngestFile(ctx, cfg.Data.SeedPath); err != nil {
			logger.Warn("seed ingestion failed", zap.String("path", cfg.Data.SeedPath), zap.Error(err))
		} else {
			logger.Info("seed corpus ingested", zap.Int("documents", n))
		}
		if cfg.Data.Watch {
			watch := ingest.NewWatcher(cfg.Data.SeedPath, func(path string) {
				if _, err := components.Ingestor.IngestFile(ctx, path); err != nil {
					logger.Warn("seed re-ingestion failed", zap.String("path", path), zap.Error(err))
				} else {
					logger.Info("seed corpus re-ingested", zap.String("path", path))
				}
			}, logger)
			if err := watch.Start(ctx); err != nil {
				logger.Warn("seed watcher failed to start", zap.Error(err))
			} else {
				defer watch.Stop()
			}
		}
	}

	srv := server.NewServer(components.Orchestrator, components.Store, &cfg.Server, cfg.Data.StaticDir, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	cfg, logger := loadConfigAndLogger(fs, os.Args[2:])
	defer logger.Sync()

	// The interactive path cannot run degraded: fail up front.
	if err := cfg.ValidateCredentials(); err != nil {
		logger.Fatal("missing credentials", zap.Error(err))
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if n, err := components.Ingestor.IngestFile(ctx, cfg.Data.SeedPath); err != nil {
		logger.Warn("seed ingestion failed", zap.String("path", cfg.Data.SeedPath), zap.Error(err))
	} else {
		logger.Info("seed corpus ingested", zap.Int("documents", n))
	}

	chat := cli.NewChat(components.Orchestrator, logger)
	if err := chat.Run(ctx, os.Stdin, os.Stdout); err != nil {
		logger.Fatal("chat failed", zap.Error(err))
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	cfg, logger := loadConfigAndLogger(fs, os.Args[2:])
	defer logger.Sync()

	if err := cfg.ValidateCredentials(); err != nil {
		logger.Fatal("missing credentials", zap.Error(err))
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	path := cfg.Data.SeedPath
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	n, err := components.Ingestor.IngestFile(context.Background(), path)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.String("path", path), zap.Error(err))
	}
	abs, _ := filepath.Abs(path)
	fmt.Printf("Ingested %d document(s) from %s\n", n, abs)
}

// Components holds initialized services.
type Components struct {
	Store        docstore.Store
	Embedder     embedding.Embedder
	Index        vector.Index
	Contexts     *contextstore.Store
	Ingestor     *ingest.Ingestor
	Orchestrator *pipeline.Orchestrator
	Pool         *ants.Pool
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Pool != nil {
		c.Pool.Release()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store := docstore.NewSQLiteStore(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, logger)
	if err := store.Connect(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect document store: %w", err)
	}

	openaiEmbedder, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
		Host:       cfg.Embedding.Host,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		APIKeyEnv:  cfg.Embedding.APIKeyEnv,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	embedder := embedding.NewCachedEmbedder(openaiEmbedder, cfg.Embedding.CacheSize)

	var index vector.Index
	switch cfg.Vector.Type {
	case "pinecone":
		if err := cfg.ValidateCredentials(); err != nil {
			_ = store.Close()
			return nil, err
		}
		index, err = vector.NewPineconeIndex(vector.PineconeConfig{
			APIKey:    cfg.Vector.APIKey,
			IndexName: cfg.Vector.IndexName,
		}, logger)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize vector index: %w", err)
		}
	default:
		index = vector.NewMemoryIndex()
	}
	logger.Info("vector index initialized",
		zap.String("type", cfg.Vector.Type), zap.String("index_name", cfg.Vector.IndexName))

	indexOpts := vector.IndexOptions{
		Serverless:     cfg.Vector.ServerlessOrDefault(),
		Cloud:          cfg.Vector.Cloud,
		Region:         cfg.Vector.Region,
		PodEnvironment: cfg.Vector.PodEnvironment,
		Metric:         cfg.Vector.Metric,
	}
	ingestor := ingest.NewIngestor(store, embedder, index, cfg.Vector.IndexName, indexOpts, logger)

	pool, err := ants.NewPool(models.MaxTopK)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	contexts := contextstore.New(cfg.Context.Capacity, logger)
	stage := understanding.NewStage(embedder, logger)
	orchestrator := pipeline.NewOrchestrator(stage, contexts, index, store, pool, logger)

	return &Components{
		Store:        store,
		Embedder:     embedder,
		Index:        index,
		Contexts:     contexts,
		Ingestor:     ingestor,
		Orchestrator: orchestrator,
		Pool:         pool,
	}, nil
}

func printUsage() {
	fmt.Println(`workflowwise - knowledge search over your team's documents

Usage:
  workflowwise server [flags]    Start the HTTP API server
  workflowwise chat [flags]      Start the interactive query loop
  workflowwise ingest [flags] [file]  Ingest a document corpus (default: configured seed file)
  workflowwise version           Show version
  workflowwise help              Show this help

Flags (server, chat, ingest):
  --config string    Config file path (default: config.yaml)
  --debug            Enable debug logging

Environment:
  PINECONE_API_KEY        Pinecone credentials (required for the pinecone backend)
  PINECONE_ENVIRONMENT    Pod environment (pod-based indexes only)
  PINECONE_INDEX_NAME     Override the configured index name
  PINECONE_CLOUD          Serverless cloud provider (default: aws)
  PINECONE_REGION         Serverless region (default: us-east-1)
  USE_SERVERLESS_INDEX    "true" (default) or "false"
  OPENAI_API_KEY          Embedding service credentials

Examples:
  workflowwise server
  workflowwise chat
  workflowwise ingest data/sample_documents.json`)
}
