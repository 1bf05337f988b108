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


package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/poiesic/answerit/core"
)

// documentRecord is the persisted form of a core.Document.
type documentRecord struct {
	Id         core.ID   `json:"id"`
	Title      string    `json:"title"`
	Source     string    `json:"source,omitempty"`
	InsertedAt time.Time `json:"inserted_at"`
}

// chunkRecord is the persisted form of a core.Chunk. The embedding vector
// is stored packed (see MarshalVector) rather than as a JSON number array.
type chunkRecord struct {
	Id         core.ID   `json:"id"`
	DocumentId core.ID   `json:"document_id"`
	Position   int       `json:"position"`
	Text       string    `json:"text"`
	Vector     []byte    `json:"vector,omitempty"`
	InsertedAt time.Time `json:"inserted_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MarshalID serializes an ID to its fixed 8-byte big-endian form.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("%w: id needs 8 bytes, got %d", ErrTruncatedData, len(data))
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

// MarshalVector packs a vector as consecutive little-endian float32 values.
// This is the same layout the semantic cache persists embeddings in.
func MarshalVector(vector []float32) []byte {
	if len(vector) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// UnmarshalVector decodes a packed little-endian float32 vector.
// Returns ErrTruncatedData when the length is not a multiple of 4.
func UnmarshalVector(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: vector payload of %d bytes", ErrTruncatedData, len(data))
	}
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector, nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) ([]byte, error) {
	data, err := json.Marshal(documentRecord{
		Id:         doc.Id,
		Title:      doc.Title,
		Source:     doc.Source,
		InsertedAt: doc.InsertedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	var rec documentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &core.Document{
		Id:         rec.Id,
		Title:      rec.Title,
		Source:     rec.Source,
		InsertedAt: rec.InsertedAt,
	}, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) ([]byte, error) {
	data, err := json.Marshal(chunkRecord{
		Id:         chunk.Id,
		DocumentId: chunk.DocumentId,
		Position:   chunk.Position,
		Text:       chunk.Text,
		Vector:     MarshalVector(chunk.Vector),
		InsertedAt: chunk.InsertedAt,
		UpdatedAt:  chunk.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	var rec chunkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	vector, err := UnmarshalVector(rec.Vector)
	if err != nil {
		return nil, err
	}
	return &core.Chunk{
		Id:         rec.Id,
		DocumentId: rec.DocumentId,
		Position:   rec.Position,
		Text:       rec.Text,
		Vector:     vector,
		InsertedAt: rec.InsertedAt,
		UpdatedAt:  rec.UpdatedAt,
	}, nil
}
