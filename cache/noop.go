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


package cache

import (
	"context"

	"github.com/poiesic/answerit/core"
)

// NoopCache is a Cache that stores nothing and always misses.
// Used when caching is disabled so callers need no conditionals.
type NoopCache struct{}

var _ Cache = (*NoopCache)(nil)

// NewNoopCache creates a cache that never hits.
func NewNoopCache() Cache {
	return &NoopCache{}
}

// Put discards the result.
func (n *NoopCache) Put(ctx context.Context, embedding []float32, result *core.QueryResult) bool {
	return false
}

// Get always misses.
func (n *NoopCache) Get(ctx context.Context, question string, embedding []float32) *core.CachedResult {
	return nil
}

// Clear has nothing to remove.
func (n *NoopCache) Clear(ctx context.Context) bool {
	return true
}

// Stats reports nothing cached.
func (n *NoopCache) Stats(ctx context.Context) Stats {
	return Stats{}
}

// Ping always succeeds.
func (n *NoopCache) Ping(ctx context.Context) error {
	return nil
}

// Close has nothing to release.
func (n *NoopCache) Close() error {
	return nil
}
