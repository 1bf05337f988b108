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


package api

import "errors"

var (
	// ErrEngineRequired is returned when no answer engine is provided.
	ErrEngineRequired = errors.New("answer engine required")

	// ErrRetrieverRequired is returned when no retriever is provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrIngestionRequired is returned when no ingestion pipeline is provided.
	ErrIngestionRequired = errors.New("ingestion pipeline required")

	// ErrDocumentRepositoryRequired is returned when no document repository is provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when no chunk repository is provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrCacheRequired is returned when no cache is provided.
	// Pass cache.NewNoopCache() for cache-disabled deployments.
	ErrCacheRequired = errors.New("cache required")

	// ErrExtractorRequired is returned when no extraction chain is provided.
	ErrExtractorRequired = errors.New("extraction chain required")
)
