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


package ingestion

import (
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the target size of a chunk in characters.
	DefaultChunkSize = 500

	// DefaultChunkOverlap is how many characters adjacent chunks share.
	DefaultChunkOverlap = 50
)

// defaultSeparators are tried in order, so splits prefer paragraph
// boundaries, then lines, then sentences, then words.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// chunker splits document content into overlapping text chunks.
type chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// newChunker creates a chunker with the given size and overlap.
func newChunker(chunkSize, chunkOverlap int) *chunker {
	return &chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(defaultSeparators),
		),
	}
}

// split breaks content into chunk texts, preserving order.
func (c *chunker) split(content string) ([]string, error) {
	return c.splitter.SplitText(content)
}
