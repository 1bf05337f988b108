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


package core

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxQuestionLength is the maximum accepted question length in runes.
const MaxQuestionLength = 1000

// ValidateQuestion validates question text according to domain rules.
//
// Validation rules:
//   - Text must not be empty after trimming whitespace
//   - Text must not exceed MaxQuestionLength runes
func ValidateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuestion, ErrEmptyQuestion)
	}

	if utf8.RuneCountInString(question) > MaxQuestionLength {
		return fmt.Errorf("%w: %w (%d > %d)", ErrInvalidQuestion, ErrQuestionTooLong,
			utf8.RuneCountInString(question), MaxQuestionLength)
	}

	return nil
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//
// NOT validated:
//   - Source (optional origin descriptor)
//   - ID (0 is valid until content hashing assigns one)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentTitle)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Position must not be negative
//
// NOT validated (populated by ingestion):
//   - Vector (can be empty until the embedding step runs)
//   - ID (0 is valid until content hashing assigns one)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}

	if chunk.Position < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativePosition)
	}

	return nil
}
