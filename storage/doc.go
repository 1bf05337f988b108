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


// Package storage provides the storage abstraction layer for answerit.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic. Documents and their embedded chunks persist in BadgerDB;
// the semantic cache persists in Redis behind the CacheStore interface. Both
// sides can be swapped for alternative backends without touching consumers.
//
// # Constructor Return Type Pattern
//
// Cross-package consumers hold the interface types defined here, never the
// backend's concrete repositories:
//
//	var chunks storage.ChunkRepository = repo   // badger.NewChunkRepository result
//	store, err := redis.NewStore(opts)          // returns storage.CacheStore interface
//
// Entry points meant to be swapped (redis.NewStore, the test helper
// NewMemoryRepositories) return interfaces directly; backend constructors
// return their concrete types for wiring within the backend package.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - Repository: Transaction and lifecycle operations shared by repositories
//   - DocumentRepository: Operations for source documents
//   - ChunkRepository: Operations for embedded chunks, including similarity
//     search and positional neighbor lookup
//   - CacheStore: Key-value, scored-set, and counter primitives backing the
//     semantic cache
//
// # Usage
//
// Create repositories over a shared BadgerDB backend:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	docs, err := badger.NewDocumentRepository(backend)
//	chunks, err := badger.NewChunkRepository(backend)
//
// Use in tests with in-memory storage:
//
//	docs, chunks, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
