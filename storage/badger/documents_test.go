package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
)

func TestDocumentBasics(t *testing.T) {
	// Create in-memory repositories
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	// Test adding a document
	doc := &core.Document{
		Title:  "Redis Persistence",
		Source: "docs/redis-persistence.md",
	}

	added, err := docRepo.AddDocuments(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if len(added) != 1 {
		t.Fatalf("Expected 1 document, got %d", len(added))
	}

	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	if added[0].InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	// Test retrieving the document
	retrieved, err := docRepo.GetDocument(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}

	if retrieved.Title != "Redis Persistence" {
		t.Fatalf("Expected 'Redis Persistence', got '%s'", retrieved.Title)
	}
}

func TestDocumentContentBasedID(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	// Same title and source produce the same ID
	first, err := docRepo.AddDocuments(ctx, &core.Document{Title: "Guide", Source: "a.md"})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	second, err := docRepo.AddDocuments(ctx, &core.Document{Title: "Guide", Source: "a.md"})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if first[0].Id != second[0].Id {
		t.Fatalf("Expected identical IDs, got %d and %d", first[0].Id, second[0].Id)
	}

	// Different source produces a different ID
	third, err := docRepo.AddDocuments(ctx, &core.Document{Title: "Guide", Source: "b.md"})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	if third[0].Id == first[0].Id {
		t.Fatal("Expected a distinct ID for a different source")
	}
}

func TestDocumentNotFound(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = docRepo.GetDocument(ctx, core.ID(12345))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	err = docRepo.DeleteDocument(ctx, core.ID(12345))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListAndCountDocuments(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	docs := []*core.Document{
		{Title: "First"},
		{Title: "Second"},
		{Title: "Third"},
	}
	if _, err := docRepo.AddDocuments(ctx, docs...); err != nil {
		t.Fatalf("Failed to add documents: %v", err)
	}

	listed, err := docRepo.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(listed))
	}

	// Listing is ordered by ID ascending
	for i := 0; i < len(listed)-1; i++ {
		if listed[i].Id > listed[i+1].Id {
			t.Fatalf("Documents out of order at index %d", i)
		}
	}

	count, err := docRepo.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("Failed to count documents: %v", err)
	}
	if count != 3 {
		t.Fatalf("Expected count 3, got %d", count)
	}
}

func TestDeleteDocumentCascades(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	docs, err := docRepo.AddDocuments(ctx, &core.Document{Title: "Doomed"})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	docID := docs[0].Id

	chunks := []*core.Chunk{
		{DocumentId: docID, Position: 0, Text: "first"},
		{DocumentId: docID, Position: 1, Text: "second"},
	}
	added, err := chunkRepo.AddChunks(ctx, chunks...)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	if err := docRepo.DeleteDocument(ctx, docID); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}

	// Document is gone
	if _, err := docRepo.GetDocument(ctx, docID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for deleted document, got %v", err)
	}

	// Chunks are gone too
	for _, chunk := range added {
		if _, err := chunkRepo.GetChunk(ctx, chunk.Id); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound for chunk %d, got %v", chunk.Id, err)
		}
	}

	count, err := chunkRepo.CountChunks(ctx)
	if err != nil {
		t.Fatalf("Failed to count chunks: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected 0 chunks after cascade, got %d", count)
	}
}
