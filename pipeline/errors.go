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


package pipeline

import "errors"

var (
	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrCacheRequired is returned when an answer cache is not provided.
	// Pass cache.NewNoopCache() for cache-disabled deployments.
	ErrCacheRequired = errors.New("answer cache required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrRetrievalFailed wraps embedding and similarity-index failures.
	// Callers receive it instead of a partial answer.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrGenerationFailed wraps answer-generation failures. A failed
	// generation never writes the answer cache.
	ErrGenerationFailed = errors.New("generation failed")
)
