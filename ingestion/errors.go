package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrDocumentRequired is returned when no document is provided.
	ErrDocumentRequired = errors.New("document required")

	// ErrEmptyContent is returned when a document has no text to ingest.
	ErrEmptyContent = errors.New("document content is empty")
)
