package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/poiesic/answerit/cache"
	"github.com/poiesic/answerit/extract"
	"github.com/poiesic/answerit/ingestion"
	"github.com/poiesic/answerit/pipeline"
	"github.com/poiesic/answerit/retrieval"
	"github.com/poiesic/answerit/storage"
)

// Components holds the collaborators the HTTP surface is built from.
// All fields are required; cache-disabled deployments pass
// cache.NewNoopCache().
type Components struct {
	Engine    *pipeline.Engine
	Retriever *retrieval.Retriever
	Ingestion *ingestion.Pipeline
	Documents storage.DocumentRepository
	Chunks    storage.ChunkRepository
	Cache     cache.Cache
	Extractor *extract.Chain
}

// Server exposes query, search, document, cache, and extraction
// operations over HTTP. It implements http.Handler.
type Server struct {
	engine    *pipeline.Engine
	retriever *retrieval.Retriever
	ingest    *ingestion.Pipeline
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	answers   cache.Cache
	entities  *extract.Chain
	logger    *slog.Logger
	router    chi.Router
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer creates an HTTP server over the given components.
func NewServer(c Components, opts ...Option) (*Server, error) {
	if c.Engine == nil {
		return nil, ErrEngineRequired
	}
	if c.Retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if c.Ingestion == nil {
		return nil, ErrIngestionRequired
	}
	if c.Documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if c.Chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if c.Cache == nil {
		return nil, ErrCacheRequired
	}
	if c.Extractor == nil {
		return nil, ErrExtractorRequired
	}

	s := &Server{
		engine:    c.Engine,
		retriever: c.Retriever,
		ingest:    c.Ingestion,
		documents: c.Documents,
		chunks:    c.Chunks,
		answers:   c.Cache,
		entities:  c.Extractor,
		logger:    slog.Default().With("component", "api"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.router = s.routes()
	return s, nil
}

// ServeHTTP dispatches to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes builds the router with middleware and endpoint bindings.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(MetricsMiddleware)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Post("/query/batch", s.handleQueryBatch)
		r.Post("/search", s.handleSearch)
		r.Get("/chunks/{id}/context", s.handleChunkContext)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", s.handleAddDocument)
			r.Get("/", s.handleListDocuments)
			r.Delete("/{id}", s.handleDeleteDocument)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", s.handleCacheStats)
			r.Post("/clear", s.handleCacheClear)
			r.Get("/health", s.handleCacheHealth)
		})

		r.Get("/entities", s.handleEntities)
	})

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", MetricsHandler())

	return r
}
