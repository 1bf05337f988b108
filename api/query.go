package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/pipeline"
)

// queryRequest is the body of POST /api/v1/query.
// UseCache defaults to true when absent.
type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
	UseCache *bool  `json:"use_cache"`
}

type queryResponse struct {
	core.CachedResult
	DurationMs float64 `json:"duration_ms"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	useCache := req.UseCache == nil || *req.UseCache
	start := time.Now()

	var result *core.CachedResult
	var err error
	if useCache {
		result, err = s.engine.Ask(r.Context(), req.Question, req.TopK)
	} else {
		result, err = s.engine.AskUncached(r.Context(), req.Question, req.TopK)
	}
	if err != nil {
		s.respondError(w, err)
		return
	}

	if result.Cached {
		CacheHitsTotal.Inc()
	} else {
		CacheMissesTotal.Inc()
	}

	writeJSON(w, http.StatusOK, queryResponse{
		CachedResult: *result,
		DurationMs:   float64(time.Since(start).Microseconds()) / 1000.0,
	})
}

// batchQueryRequest is the body of POST /api/v1/query/batch.
type batchQueryRequest struct {
	Questions []string `json:"questions"`
	TopK      int      `json:"top_k"`
}

type batchItemResponse struct {
	Question string            `json:"question"`
	Result   *core.QueryResult `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type batchQueryResponse struct {
	Results []batchItemResponse `json:"results"`
}

func (s *Server) handleQueryBatch(w http.ResponseWriter, r *http.Request) {
	var req batchQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, "questions are required")
		return
	}

	items := s.engine.AskBatch(r.Context(), req.Questions, req.TopK)

	results := make([]batchItemResponse, len(items))
	for i, item := range items {
		results[i] = batchItemResponse{Question: item.Question, Result: item.Result}
		if item.Err != nil {
			results[i].Error = item.Err.Error()
		}
	}

	writeJSON(w, http.StatusOK, batchQueryResponse{Results: results})
}

// searchRequest is the body of POST /api/v1/search.
type searchRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
	Hybrid   bool   `json:"hybrid"`
}

type searchHit struct {
	ChunkId      core.ID `json:"chunk_id"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
	EnrichedText string  `json:"enriched_text,omitempty"`
	DocTitle     string  `json:"doc_title,omitempty"`
}

type searchResponse struct {
	Results []searchHit `json:"results"`
	Count   int         `json:"count"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = pipeline.DefaultTopK
	}

	var hits []*core.ChunkResult
	var err error
	if req.Hybrid {
		hits, err = s.retriever.HybridSearch(r.Context(), req.Question, topK)
	} else {
		hits, err = s.retriever.VectorSearch(r.Context(), req.Question, topK)
	}
	if err != nil {
		s.respondError(w, err)
		return
	}

	results := make([]searchHit, len(hits))
	for i, hit := range hits {
		results[i] = searchHit{
			ChunkId:      hit.ChunkId,
			Text:         hit.Text,
			Score:        hit.Score,
			EnrichedText: hit.EnrichedText,
			DocTitle:     hit.DocTitle,
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: results, Count: len(results)})
}

type entitiesResponse struct {
	Entities []core.Entity `json:"entities"`
	Count    int           `json:"count"`
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "text query parameter is required")
		return
	}

	entities := s.entities.Extract(r.Context(), text)
	writeJSON(w, http.StatusOK, entitiesResponse{Entities: entities, Count: len(entities)})
}
