// Package reindex provides functionality for reembedding stored chunks
// with new or updated embedding models.
//
// This package supports batch processing of chunks, progress tracking,
// retry logic with exponential backoff, and a dry-run mode for sizing a
// migration before committing to it.
package reindex
