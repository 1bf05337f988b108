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


// Package cache implements semantic caching of answered questions.
//
// Unlike an exact-match cache, lookups compare the incoming question's
// embedding against every cached entry by cosine similarity. A prior
// question whose similarity reaches the configured threshold counts as a
// hit and its stored answer is returned without re-running retrieval or
// generation.
//
// # Behavior
//
//   - Entries are immutable once written; only TTL expiry, FIFO eviction,
//     and explicit Clear remove them.
//   - Eviction is strict FIFO by insertion time, never LRU: when the cache
//     is at capacity, the oldest-inserted entry is removed regardless of
//     how recently it was hit.
//   - Lookup is a linear scan over live entries. That is deliberate: the
//     entry count is bounded by the configured maximum, and the scan's
//     enumeration order fixes which entry wins a similarity tie (the first
//     maximum seen is kept).
//   - The cache is an optimization layer only. Every operation degrades to
//     a miss or a false return when the backing store misbehaves; callers
//     never see an error from it.
//
// # Usage
//
//	store, err := redis.NewStore(redis.Options{Addr: "localhost:6379"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sc := cache.NewSemanticCache(store,
//	    cache.WithSimilarityThreshold(0.95),
//	    cache.WithTTL(time.Hour),
//	)
//	defer sc.Close()
//
//	if hit := sc.Get(ctx, question, embedding); hit != nil {
//	    return hit
//	}
//	// ... answer the question, then:
//	sc.Put(ctx, embedding, result)
//
// Disable caching without conditional call sites by substituting
// NewNoopCache().
package cache
