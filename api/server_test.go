package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/answerit/ai/mock"
	"github.com/poiesic/answerit/cache"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/extract"
	"github.com/poiesic/answerit/ingestion"
	"github.com/poiesic/answerit/pipeline"
	"github.com/poiesic/answerit/retrieval"
	"github.com/poiesic/answerit/storage"
	"github.com/poiesic/answerit/storage/badger"
	redisstore "github.com/poiesic/answerit/storage/redis"
)

// serverFixture wires a full server over an in-memory corpus, a mock
// provider, and a real semantic cache backed by miniredis.
type serverFixture struct {
	server    *Server
	embedder  *mock.MockEmbedder
	generator *mock.MockGenerator
	docRepo   storage.DocumentRepository
	chunkRepo storage.ChunkRepository
	answers   cache.Cache
	redis     *miniredis.Miniredis
	doc       *core.Document
	chunks    []*core.Chunk
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	ctx := context.Background()

	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	docs, err := docRepo.AddDocuments(ctx, &core.Document{
		Title:  "Redis Persistence Guide",
		Source: "redis/persistence.md",
	})
	require.NoError(t, err)

	chunks := []*core.Chunk{
		{DocumentId: docs[0].Id, Position: 0, Text: "RDB takes point-in-time snapshots.", Vector: []float32{0.9, 0.1, 0.0}},
		{DocumentId: docs[0].Id, Position: 1, Text: "AOF logs every write operation.", Vector: []float32{0.8, 0.2, 0.0}},
		{DocumentId: docs[0].Id, Position: 2, Text: "Both modes can be combined.", Vector: []float32{0.7, 0.3, 0.0}},
	}
	added, err := chunkRepo.AddChunks(ctx, chunks...)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{0.9, 0.1, 0.0}, nil
	}
	generator := mock.NewMockGenerator()
	provider := mock.NewMockProviderWithServices(embedder, generator, mock.NewMockEntityExtractor())

	retriever, err := retrieval.NewRetriever(chunkRepo, provider)
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	answerCache := cache.NewSemanticCache(redisstore.NewStoreWithClient(client))
	t.Cleanup(func() { answerCache.Close() })

	engine, err := pipeline.NewEngine(retriever, provider, answerCache)
	require.NoError(t, err)

	ingest, err := ingestion.NewPipeline(docRepo, chunkRepo, provider)
	require.NoError(t, err)
	t.Cleanup(ingest.Release)

	server, err := NewServer(Components{
		Engine:    engine,
		Retriever: retriever,
		Ingestion: ingest,
		Documents: docRepo,
		Chunks:    chunkRepo,
		Cache:     answerCache,
		Extractor: extract.NewDefaultChain(provider.EntityExtractor()),
	})
	require.NoError(t, err)

	return &serverFixture{
		server:    server,
		embedder:  embedder,
		generator: generator,
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		answers:   answerCache,
		redis:     mr,
		doc:       docs[0],
		chunks:    added,
	}
}

// failingChunkRepo makes chunk counting fail while passing everything else
// through to the wrapped repository.
type failingChunkRepo struct {
	storage.ChunkRepository
}

func (f *failingChunkRepo) CountChunks(ctx context.Context) (int, error) {
	return 0, assert.AnError
}

// doRequest runs one request through the server's router and returns the
// recorded response.
func (f *serverFixture) doRequest(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

// doRawRequest is doRequest for bodies that are deliberately not valid JSON.
func (f *serverFixture) doRawRequest(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestNewServer(t *testing.T) {
	f := newServerFixture(t)
	valid := Components{
		Engine:    f.server.engine,
		Retriever: f.server.retriever,
		Ingestion: f.server.ingest,
		Documents: f.server.documents,
		Chunks:    f.server.chunks,
		Cache:     f.server.answers,
		Extractor: f.server.entities,
	}

	t.Run("valid configuration", func(t *testing.T) {
		server, err := NewServer(valid)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("nil engine", func(t *testing.T) {
		c := valid
		c.Engine = nil
		_, err := NewServer(c)
		assert.Equal(t, ErrEngineRequired, err)
	})

	t.Run("nil retriever", func(t *testing.T) {
		c := valid
		c.Retriever = nil
		_, err := NewServer(c)
		assert.Equal(t, ErrRetrieverRequired, err)
	})

	t.Run("nil ingestion", func(t *testing.T) {
		c := valid
		c.Ingestion = nil
		_, err := NewServer(c)
		assert.Equal(t, ErrIngestionRequired, err)
	})

	t.Run("nil document repository", func(t *testing.T) {
		c := valid
		c.Documents = nil
		_, err := NewServer(c)
		assert.Equal(t, ErrDocumentRepositoryRequired, err)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		c := valid
		c.Chunks = nil
		_, err := NewServer(c)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil cache", func(t *testing.T) {
		c := valid
		c.Cache = nil
		_, err := NewServer(c)
		assert.Equal(t, ErrCacheRequired, err)
	})

	t.Run("nil extractor", func(t *testing.T) {
		c := valid
		c.Extractor = nil
		_, err := NewServer(c)
		assert.Equal(t, ErrExtractorRequired, err)
	})
}

func TestHealthz(t *testing.T) {
	t.Run("all components healthy", func(t *testing.T) {
		f := newServerFixture(t)

		rec := f.doRequest(t, http.MethodGet, "/healthz", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp healthResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "ok", resp.Components["storage"])
		assert.Equal(t, "ok", resp.Components["cache"])
	})

	t.Run("unreachable cache degrades", func(t *testing.T) {
		f := newServerFixture(t)
		f.redis.Close()

		rec := f.doRequest(t, http.MethodGet, "/healthz", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp healthResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unreachable", resp.Components["cache"])
		assert.Equal(t, "ok", resp.Components["storage"])
	})

	t.Run("failed storage is unavailable", func(t *testing.T) {
		f := newServerFixture(t)
		f.server.chunks = &failingChunkRepo{ChunkRepository: f.chunkRepo}

		rec := f.doRequest(t, http.MethodGet, "/healthz", nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp healthResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "unavailable", resp.Status)
		assert.Equal(t, "unavailable", resp.Components["storage"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	RegisterMetrics()
	f := newServerFixture(t)

	// Generate at least one observation before scraping.
	f.doRequest(t, http.MethodGet, "/healthz", nil)

	rec := f.doRequest(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "answerit_requests_total")
	assert.Contains(t, rec.Body.String(), "answerit_request_duration_seconds")
}

func TestUnknownRoute(t *testing.T) {
	f := newServerFixture(t)

	rec := f.doRequest(t, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
