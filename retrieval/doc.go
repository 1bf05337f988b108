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


// Package retrieval turns questions into ranked, context-enriched passages.
//
// The Retriever type implements two retrieval routes:
//   - VectorSearch: plain similarity search over chunk embeddings
//   - HybridSearch: similarity search plus neighboring-passage enrichment
//
// HybridSearch wraps each hit with the passages immediately before and
// after it in the source document, giving the answer generator a wider
// window than the matched chunk alone. Both routes preserve the order the
// similarity index returned.
package retrieval
