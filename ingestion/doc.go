// Package ingestion provides pipeline orchestration for loading documents.
//
// The Pipeline type manages the ingestion workflow for documents, including:
//   - Splitting document content into positioned chunks
//   - Persisting the document and its chunks to storage
//   - Generating chunk embeddings, synchronously or in the background
//
// Ingest persists and embeds in one call. IngestAsync persists synchronously
// and hands embedding to a worker pool; errors during async embedding are
// logged but do not fail the ingestion operation.
package ingestion
