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


package answerit

import (
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/ai/openai"
	"github.com/poiesic/answerit/cache"
	"github.com/poiesic/answerit/extract"
	"github.com/poiesic/answerit/ingestion"
	"github.com/poiesic/answerit/pipeline"
	"github.com/poiesic/answerit/reindex"
	"github.com/poiesic/answerit/retrieval"
	"github.com/poiesic/answerit/storage"
	"github.com/poiesic/answerit/storage/badger"
	"github.com/poiesic/answerit/storage/redis"
)

// Config holds the process-level settings a Service is wired from.
type Config struct {
	// DataDir is the Badger database directory.
	DataDir string

	// Redis connection for the semantic answer cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// CacheEnabled switches the answer cache on. When false the service
	// uses a no-op cache and never connects to Redis.
	CacheEnabled   bool
	CacheTTL       time.Duration
	CacheThreshold float64
	CacheMaxSize   int64
}

// DefaultConfig returns the settings for a local deployment.
func DefaultConfig() Config {
	return Config{
		DataDir:        "./answerit_db",
		RedisAddr:      "localhost:6379",
		CacheEnabled:   true,
		CacheTTL:       cache.DefaultTTL,
		CacheThreshold: cache.DefaultSimilarityThreshold,
		CacheMaxSize:   cache.DefaultMaxCacheSize,
	}
}

type Service struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	provider  ai.AIProvider
	answers   cache.Cache
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig *ai.Config
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(cfg *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = cfg
	}
}

func New(cfg Config, opts ...ServiceOption) (*Service, error) {
	// Apply options
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(cfg.DataDir, false)
	if err != nil {
		return nil, err
	}

	// Create document repository
	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create chunk repository
	chunks, err := badger.NewChunkRepository(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	// Connect the answer cache
	answers, err := openCache(cfg)
	if err != nil {
		provider.Close()
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	return &Service{
		backend:   backend,
		documents: documents,
		chunks:    chunks,
		provider:  provider,
		answers:   answers,
		logger:    slog.Default(),
	}, nil
}

// openCache connects the semantic cache, or hands back the no-op cache for
// cache-disabled deployments.
func openCache(cfg Config) (cache.Cache, error) {
	if !cfg.CacheEnabled {
		return cache.NewNoopCache(), nil
	}

	store, err := redis.NewStore(redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}

	return cache.NewSemanticCache(store,
		cache.WithTTL(cfg.CacheTTL),
		cache.WithSimilarityThreshold(cfg.CacheThreshold),
		cache.WithMaxSize(cfg.CacheMaxSize),
	), nil
}

func (s *Service) Close() error {
	// Close AI provider first
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	// Close the answer cache and its store connection
	if err := s.answers.Close(); err != nil {
		s.logger.Error("error closing answer cache", "err", err)
	}

	// Close repositories
	if err := s.chunks.Close(); err != nil {
		s.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := s.documents.Close(); err != nil {
		s.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close backend
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *Service) DocumentRepository() storage.DocumentRepository {
	return s.documents
}

func (s *Service) ChunkRepository() storage.ChunkRepository {
	return s.chunks
}

func (s *Service) Provider() ai.AIProvider {
	return s.provider
}

func (s *Service) Cache() cache.Cache {
	return s.answers
}

func (s *Service) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(s.documents, s.chunks, s.provider, opts...)
}

func (s *Service) NewRetriever(opts ...retrieval.Option) (*retrieval.Retriever, error) {
	return retrieval.NewRetriever(s.chunks, s.provider, opts...)
}

// NewEngine builds an answer engine over a fresh retriever. Retrievers are
// stateless, so every engine getting its own costs nothing.
func (s *Service) NewEngine(opts ...pipeline.Option) (*pipeline.Engine, error) {
	retriever, err := s.NewRetriever()
	if err != nil {
		return nil, err
	}
	return pipeline.NewEngine(retriever, s.provider, s.answers, opts...)
}

func (s *Service) NewExtractionChain(opts ...extract.Option) *extract.Chain {
	return extract.NewDefaultChain(s.provider.EntityExtractor(), opts...)
}

func (s *Service) NewReindexer(config *reindex.Config, progress io.Writer) *reindex.Reindexer {
	return reindex.NewReindexer(s.chunks, s.provider.Embedder(), config, progress)
}
