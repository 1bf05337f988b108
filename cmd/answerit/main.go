// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/answerit"
	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/ai/openai"
	"github.com/poiesic/answerit/api"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/pipeline"
	"github.com/poiesic/answerit/reindex"
	"github.com/poiesic/answerit/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "answerit",
		Usage: "Retrieval-augmented question answering with a semantic answer cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Path to BadgerDB database directory",
				Value:   "./answerit_db",
				EnvVars: []string{"DATA_DIR"},
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for the answer cache",
				Value:   "localhost:6379",
				EnvVars: []string{"REDIS_ADDR"},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{"REDIS_PASSWORD"},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis logical database number",
				EnvVars: []string{"REDIS_DB"},
			},
			&cli.StringFlag{
				Name:    "ai-host",
				Usage:   "Base URL of the OpenAI-compatible AI service",
				Value:   "http://localhost:11434",
				EnvVars: []string{"OLLAMA_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "model",
				Usage:   "Model for answer generation and entity extraction",
				Value:   "llama3.1",
				EnvVars: []string{"OLLAMA_MODEL"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Model for text embeddings",
				Value:   "nomic-embed-text",
				EnvVars: []string{"OLLAMA_EMBEDDING_MODEL"},
			},
			&cli.BoolFlag{
				Name:    "cache-enabled",
				Usage:   "Enable the semantic answer cache",
				Value:   true,
				EnvVars: []string{"CACHE_ENABLED"},
			},
			&cli.Int64Flag{
				Name:    "cache-ttl",
				Usage:   "Answer cache TTL in seconds",
				Value:   3600,
				EnvVars: []string{"CACHE_TTL"},
			},
			&cli.Float64Flag{
				Name:    "cache-threshold",
				Usage:   "Minimum cosine similarity for a cache hit",
				Value:   0.95,
				EnvVars: []string{"SEMANTIC_THRESHOLD"},
			},
			&cli.Int64Flag{
				Name:    "cache-size",
				Usage:   "Maximum number of cached answers",
				Value:   10000,
				EnvVars: []string{"MAX_CACHE_SIZE"},
			},
			&cli.IntFlag{
				Name:  "top-k",
				Usage: "Number of passages retrieved per question",
				Value: 3,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Set logging format (text, json)",
				Value: "text",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "listen",
						Usage:   "Address for the HTTP server to listen on",
						Value:   ":8000",
						EnvVars: []string{"LISTEN_ADDR"},
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Skip the answer cache for this question",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Index a document from a file or stdin",
				ArgsUsage: "[file]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Document origin descriptor (defaults to the file path)",
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Answer cache administration",
				Subcommands: []*cli.Command{
					{
						Name:   "stats",
						Usage:  "Show answer cache statistics",
						Action: cacheStatsCommand,
					},
					{
						Name:   "clear",
						Usage:  "Remove every cached answer",
						Action: cacheClearCommand,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show document and chunk counts",
				Action: statsCommand,
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed all stored chunks with a new embedding model",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "new-embedding-model",
						Usage:    "Embedding model to re-embed with",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Report what would be re-embedded without writing",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func configFromFlags(c *cli.Context) answerit.Config {
	return answerit.Config{
		DataDir:        c.String("data-dir"),
		RedisAddr:      c.String("redis-addr"),
		RedisPassword:  c.String("redis-password"),
		RedisDB:        c.Int("redis-db"),
		CacheEnabled:   c.Bool("cache-enabled"),
		CacheTTL:       time.Duration(c.Int64("cache-ttl")) * time.Second,
		CacheThreshold: c.Float64("cache-threshold"),
		CacheMaxSize:   c.Int64("cache-size"),
	}
}

func aiConfigFromFlags(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithGeneratorModel(c.String("model")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
}

func serveCommand(c *cli.Context) error {
	svc, err := answerit.New(configFromFlags(c), answerit.WithAIConfig(aiConfigFromFlags(c)))
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	engine, err := svc.NewEngine(pipeline.WithTopK(c.Int("top-k")))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	retriever, err := svc.NewRetriever()
	if err != nil {
		return fmt.Errorf("failed to create retriever: %w", err)
	}

	ingest, err := svc.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer ingest.Release()

	api.RegisterMetrics()

	server, err := api.NewServer(api.Components{
		Engine:    engine,
		Retriever: retriever,
		Ingestion: ingest,
		Documents: svc.DocumentRepository(),
		Chunks:    svc.ChunkRepository(),
		Cache:     svc.Cache(),
		Extractor: svc.NewExtractionChain(),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	srv := &http.Server{
		Addr:              c.String("listen"),
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	slog.Info("starting server", "addr", srv.Addr)

	// Start server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server shutdown complete")
	return nil
}

func askCommand(c *cli.Context) error {
	ctx := context.Background()

	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("usage: answerit ask <question>")
	}

	svc, err := answerit.New(configFromFlags(c), answerit.WithAIConfig(aiConfigFromFlags(c)))
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	engine, err := svc.NewEngine()
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	var result *core.CachedResult
	if c.Bool("no-cache") {
		result, err = engine.AskUncached(ctx, question, c.Int("top-k"))
	} else {
		result, err = engine.Ask(ctx, question, c.Int("top-k"))
	}
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}

	fmt.Println(result.Answer)

	if result.Cached {
		fmt.Fprintf(os.Stderr, "\n(cached answer, similarity %.3f", result.Similarity)
		if result.OriginalQuery != question {
			fmt.Fprintf(os.Stderr, ", originally asked as %q", result.OriginalQuery)
		}
		fmt.Fprintln(os.Stderr, ")")
	}

	if len(result.Sources) > 0 {
		fmt.Fprintln(os.Stderr, "\nSources:")
		for _, source := range result.Sources {
			title := source.DocTitle
			if title == "" {
				title = "Unknown"
			}
			fmt.Fprintf(os.Stderr, "  %.3f  %s\n", source.Score, title)
		}
	}

	return nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	var content []byte
	var err error
	path := c.Args().First()
	title := c.String("title")
	source := c.String("source")

	if path == "" || path == "-" {
		if title == "" {
			return fmt.Errorf("--title is required when reading from stdin")
		}
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if title == "" {
			title = filepath.Base(path)
		}
		if source == "" {
			source = path
		}
	}

	// Ingestion never consults the answer cache, so skip the Redis connection.
	cfg := configFromFlags(c)
	cfg.CacheEnabled = false

	svc, err := answerit.New(cfg, answerit.WithAIConfig(aiConfigFromFlags(c)))
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	pipe, err := svc.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipe.Release()

	doc, chunks, err := pipe.Ingest(ctx, &core.Document{Title: title, Source: source}, string(content))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed document %d (%s) into %d chunks\n", doc.Id, doc.Title, len(chunks))
	return nil
}

func cacheStatsCommand(c *cli.Context) error {
	ctx := context.Background()

	svc, err := answerit.New(configFromFlags(c), answerit.WithAIConfig(aiConfigFromFlags(c)))
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	stats := svc.Cache().Stats(ctx)
	encoded, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	fmt.Println(string(encoded))
	return nil
}

func cacheClearCommand(c *cli.Context) error {
	ctx := context.Background()

	svc, err := answerit.New(configFromFlags(c), answerit.WithAIConfig(aiConfigFromFlags(c)))
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	if !svc.Cache().Clear(ctx) {
		return fmt.Errorf("cache clear failed")
	}

	fmt.Fprintln(os.Stderr, "Cache cleared")
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	// Store counts need no answer cache, so skip the Redis connection.
	cfg := configFromFlags(c)
	cfg.CacheEnabled = false

	svc, err := answerit.New(cfg, answerit.WithAIConfig(aiConfigFromFlags(c)))
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	documents, err := svc.DocumentRepository().CountDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}
	chunks, err := svc.ChunkRepository().CountChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	fmt.Printf("Documents: %d\nChunks:    %d\n", documents, chunks)
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	// Open database
	backend, err := badger.OpenBackend(c.String("data-dir"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	// Create AI config
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("new-embedding-model")),
	)

	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	// Create embedder
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	// Create reindexing config
	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		DryRun:         c.Bool("dry-run"),
	}

	// Validate config
	if reindexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	// Create reindexer
	reindexer := reindex.NewReindexer(repo, embedder, reindexConfig, os.Stderr)

	// Run reindexing
	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("data-dir"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("new-embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reindexer.Run(ctx); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}

	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}

	// Map format to a handler
	var handler slog.Handler
	switch strings.ToLower(c.String("log-format")) {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", c.String("log-format"))
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
