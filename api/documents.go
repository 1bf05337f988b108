package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/poiesic/answerit/core"
)

// addDocumentRequest is the body of POST /api/v1/documents.
// When Async is true the response returns before embeddings are computed.
type addDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
	Async   bool   `json:"async"`
}

type documentResponse struct {
	Id     core.ID `json:"id"`
	Title  string  `json:"title"`
	Source string  `json:"source,omitempty"`
	Chunks int     `json:"chunks"`
	Status string  `json:"status"`
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	document := &core.Document{Title: req.Title, Source: req.Source}

	if req.Async {
		stored, chunks, err := s.ingest.IngestAsync(r.Context(), document, req.Content)
		if err != nil {
			s.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, documentResponse{
			Id:     stored.Id,
			Title:  stored.Title,
			Source: stored.Source,
			Chunks: len(chunks),
			Status: "accepted",
		})
		return
	}

	stored, chunks, err := s.ingest.Ingest(r.Context(), document, req.Content)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, documentResponse{
		Id:     stored.Id,
		Title:  stored.Title,
		Source: stored.Source,
		Chunks: len(chunks),
		Status: "indexed",
	})
}

type listedDocument struct {
	Id         core.ID   `json:"id"`
	Title      string    `json:"title"`
	Source     string    `json:"source,omitempty"`
	InsertedAt time.Time `json:"inserted_at"`
	Chunks     int       `json:"chunks"`
}

type listDocumentsResponse struct {
	Documents []listedDocument `json:"documents"`
	Count     int              `json:"count"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.ListDocuments(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	listed := make([]listedDocument, len(docs))
	for i, doc := range docs {
		chunks, err := s.chunks.GetChunksByDocument(r.Context(), doc.Id)
		if err != nil {
			s.respondError(w, err)
			return
		}
		listed[i] = listedDocument{
			Id:         doc.Id,
			Title:      doc.Title,
			Source:     doc.Source,
			InsertedAt: doc.InsertedAt,
			Chunks:     len(chunks),
		}
	}

	writeJSON(w, http.StatusOK, listDocumentsResponse{Documents: listed, Count: len(listed)})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := s.documents.DeleteDocument(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "id": id})
}

type chunkDTO struct {
	Id         core.ID `json:"id"`
	DocumentId core.ID `json:"document_id"`
	Position   int     `json:"position"`
	Text       string  `json:"text"`
}

type chunkContextResponse struct {
	Chunk    chunkDTO  `json:"chunk"`
	Previous *chunkDTO `json:"previous,omitempty"`
	Next     *chunkDTO `json:"next,omitempty"`
	DocTitle string    `json:"doc_title"`
}

func (s *Server) handleChunkContext(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chunk id")
		return
	}

	chunk, err := s.chunks.GetChunk(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	neighbors, err := s.chunks.Neighbors(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	title := neighbors.DocTitle
	if title == "" {
		title = "Unknown"
	}

	writeJSON(w, http.StatusOK, chunkContextResponse{
		Chunk:    toChunkDTO(chunk),
		Previous: toChunkDTOPtr(neighbors.Previous),
		Next:     toChunkDTOPtr(neighbors.Next),
		DocTitle: title,
	})
}

func parseID(raw string) (core.ID, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return core.ID(id), nil
}

func toChunkDTO(chunk *core.Chunk) chunkDTO {
	return chunkDTO{
		Id:         chunk.Id,
		DocumentId: chunk.DocumentId,
		Position:   chunk.Position,
		Text:       chunk.Text,
	}
}

func toChunkDTOPtr(chunk *core.Chunk) *chunkDTO {
	if chunk == nil {
		return nil
	}
	dto := toChunkDTO(chunk)
	return &dto
}
