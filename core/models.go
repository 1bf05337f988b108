package core

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NormalizeQuestion canonicalizes question text for identity purposes:
// surrounding whitespace is trimmed and the text is lowercased.
func NormalizeQuestion(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// QueryID generates a deterministic hex identifier for a question from a
// BLAKE2b hash of its normalized text. Two questions that differ only in
// case or surrounding whitespace share an ID. Hash collisions between
// distinct questions are possible in principle; they are accepted as an
// approximation and not corrected.
func QueryID(question string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(NormalizeQuestion(question)))
	return hex.EncodeToString(h.Sum(nil))
}

// SearchType identifies which retrieval route produced an answer.
type SearchType string

const (
	// SearchTypeVector is plain vector similarity retrieval.
	SearchTypeVector SearchType = "vector"
	// SearchTypeHybrid is vector retrieval with neighbor context enrichment.
	SearchTypeHybrid SearchType = "hybrid"
)

// Document represents a source document whose text is split into chunks.
type Document struct {
	Id         ID
	Title      string
	Source     string // Optional origin descriptor (file path, URL)
	InsertedAt time.Time
}

// Chunk is a bounded-length segment of a document, the unit of retrieval.
// Position is the zero-based order of the chunk within its document.
type Chunk struct {
	Id         ID
	DocumentId ID
	Position   int
	Text       string
	Vector     []float32 // Embedding vector (populated by ingestion)
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// SimilarChunk represents a chunk match from vector similarity search.
type SimilarChunk struct {
	Chunk *Chunk
	Score float64
}

// Neighbors holds the passages immediately surrounding a chunk within its
// document, plus the owning document's title. Previous and Next are nil at
// document boundaries.
type Neighbors struct {
	Previous *Chunk
	Next     *Chunk
	DocTitle string
}

// ChunkResult is one ranked retrieval hit. It lives only for the duration
// of a single retrieval call and is never persisted.
type ChunkResult struct {
	ChunkId      ID
	Text         string
	Score        float64
	EnrichedText string
	DocTitle     string
}

// Source is the snapshot of a retrieval hit stored alongside a generated
// answer. Later deletion of the underlying chunk does not affect it.
type Source struct {
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	DocTitle string  `json:"doc_title,omitempty"`
}

// Entity represents a named entity identified in text.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult is the outcome of answering one question.
type QueryResult struct {
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Sources    []Source   `json:"sources"`
	SearchType SearchType `json:"search_type"`
	Steps      []string   `json:"processing_steps"`
}

// CachedResult is a QueryResult annotated with cache provenance. For a
// cache hit, Similarity is the cosine similarity between the incoming
// question and the cached one, and OriginalQuery is the question text the
// cached answer was generated for.
type CachedResult struct {
	QueryResult
	Cached        bool    `json:"cached"`
	Similarity    float64 `json:"cache_similarity,omitempty"`
	OriginalQuery string  `json:"original_query,omitempty"`
}
