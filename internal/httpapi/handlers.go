package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sahej/vectordb"
	"github.com/sahej/vectordb/pkg/core"
)

// --- libraries ---

type libraryRequest struct {
	LibraryID string         `json:"library_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (s *Server) handleCreateLibrary(w http.ResponseWriter, r *http.Request) {
	var req libraryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.LibraryID == "" {
		writeError(w, http.StatusBadRequest, errors.New("library_id is required"))
		return
	}
	lib := s.store.CreateLibrary(req.LibraryID, req.Metadata)
	writeJSON(w, http.StatusCreated, lib)
}

func (s *Server) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "libraryID")
	lib := s.store.GetLibrary(id)
	if lib == nil {
		writeError(w, http.StatusNotFound, vectordb.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

func (s *Server) handleUpdateLibrary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "libraryID")
	var req struct {
		Metadata map[string]any `json:"metadata"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lib := s.store.UpdateLibrary(id, req.Metadata)
	if lib == nil {
		writeError(w, http.StatusNotFound, vectordb.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

func (s *Server) handleDeleteLibrary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "libraryID")
	if !s.store.DeleteLibrary(id) {
		writeError(w, http.StatusNotFound, vectordb.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIndexLibrary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "libraryID")
	if !s.store.IndexLibrary(id) {
		writeError(w, http.StatusNotFound, vectordb.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"indexed": true})
}

// handleSwitchIndex maps the spec's documented algorithm names
// (?algorithm=lsh|vector) onto pkg/core's IndexClass identifiers; "vector"
// is the spec's name for the exact/brute-force strategy.
func (s *Server) handleSwitchIndex(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "libraryID")
	algo := r.URL.Query().Get("algorithm")

	var class core.IndexClass
	switch algo {
	case "lsh":
		class = core.IndexClassLSH
	case "vector":
		class = core.IndexClassExact
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown algorithm %q, want lsh or vector", algo))
		return
	}

	if !s.store.SwitchIndexAlgorithm(id, class) {
		writeError(w, http.StatusNotFound, vectordb.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"switched": true})
}

func (s *Server) handleChunkCount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "libraryID")
	writeJSON(w, http.StatusOK, map[string]int{"count": s.store.GetChunkCount(id)})
}

// --- search ---

type searchRequest struct {
	Embedding      []float32      `json:"embedding"`
	K              *int           `json:"k,omitempty"`
	MetadataFilter map[string]any `json:"metadata_filter,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	libraryID := chi.URLParam(r, "libraryID")

	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	// §6: SearchQuery.k defaults to 1 when omitted from the request body;
	// a *present* 0 is a valid request for zero results, hence the pointer.
	k := 1
	if req.K != nil {
		k = *req.K
	}

	results, err := s.store.Search(core.SearchQuery{
		LibraryID:      libraryID,
		Embedding:      req.Embedding,
		K:              k,
		MetadataFilter: req.MetadataFilter,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// --- documents ---

type documentRequest struct {
	ID            string         `json:"id,omitempty"`
	DocumentTitle string         `json:"document_title"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Chunks        []chunkRequest `json:"chunks,omitempty"`
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	libraryID := chi.URLParam(r, "libraryID")

	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ccs := make([]core.ChunkCreate, len(req.Chunks))
	for i, c := range req.Chunks {
		ccs[i] = core.ChunkCreate{ID: c.ID, Text: c.Text, Embedding: c.Embedding, Metadata: c.Metadata}
	}

	doc := s.store.AddDocument(libraryID, core.DocumentCreate{
		ID:            req.ID,
		DocumentTitle: req.DocumentTitle,
		Metadata:      req.Metadata,
		Chunks:        ccs,
	})
	if doc == nil {
		writeError(w, http.StatusNotFound, vectordb.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	libraryID, documentID := chi.URLParam(r, "libraryID"), chi.URLParam(r, "documentID")
	doc := s.store.GetDocument(libraryID, documentID)
	if doc == nil {
		writeError(w, http.StatusNotFound, vectordb.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	libraryID, documentID := chi.URLParam(r, "libraryID"), chi.URLParam(r, "documentID")

	var req struct {
		DocumentTitle *string        `json:"document_title"`
		Metadata      map[string]any `json:"metadata"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	doc := s.store.UpdateDocument(libraryID, documentID, req.DocumentTitle, req.Metadata)
	if doc == nil {
		writeError(w, http.StatusNotFound, vectordb.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	libraryID, documentID := chi.URLParam(r, "libraryID"), chi.URLParam(r, "documentID")
	if !s.store.DeleteDocument(libraryID, documentID) {
		writeError(w, http.StatusNotFound, vectordb.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- chunks ---

type chunkRequest struct {
	ID        string         `json:"id,omitempty"`
	Text      string         `json:"text"`
	Embedding []float32      `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	libraryID, documentID := chi.URLParam(r, "libraryID"), chi.URLParam(r, "documentID")
	chunks := s.store.ListChunks(libraryID, documentID)
	if chunks == nil {
		writeError(w, http.StatusNotFound, vectordb.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, chunks)
}

func (s *Server) handleAddChunk(w http.ResponseWriter, r *http.Request) {
	libraryID, documentID := chi.URLParam(r, "libraryID"), chi.URLParam(r, "documentID")

	var req chunkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	chunk, err := s.store.AddChunk(libraryID, documentID, core.ChunkCreate{
		ID: req.ID, Text: req.Text, Embedding: req.Embedding, Metadata: req.Metadata,
	})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, chunk)
}

func (s *Server) handleAddChunksBulk(w http.ResponseWriter, r *http.Request) {
	libraryID, documentID := chi.URLParam(r, "libraryID"), chi.URLParam(r, "documentID")

	var req struct {
		Chunks []chunkRequest `json:"chunks"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ccs := make([]core.ChunkCreate, len(req.Chunks))
	for i, c := range req.Chunks {
		ccs[i] = core.ChunkCreate{ID: c.ID, Text: c.Text, Embedding: c.Embedding, Metadata: c.Metadata}
	}

	outcomes := s.store.AddChunksBulk(libraryID, documentID, ccs)
	writeJSON(w, http.StatusOK, bulkResponse(outcomes))
}

type bulkItemResponse struct {
	Chunk *core.Chunk `json:"chunk,omitempty"`
	Error string      `json:"error,omitempty"`
}

func bulkResponse(outcomes []core.ChunkOutcome) []bulkItemResponse {
	out := make([]bulkItemResponse, len(outcomes))
	for i, o := range outcomes {
		if o.Err != nil {
			out[i] = bulkItemResponse{Error: o.Err.Error()}
			continue
		}
		out[i] = bulkItemResponse{Chunk: o.Chunk}
	}
	return out
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	libraryID, documentID, chunkID := chi.URLParam(r, "libraryID"), chi.URLParam(r, "documentID"), chi.URLParam(r, "chunkID")
	chunk := s.store.GetChunk(libraryID, documentID, chunkID)
	if chunk == nil {
		writeError(w, http.StatusNotFound, vectordb.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (s *Server) handleUpdateChunk(w http.ResponseWriter, r *http.Request) {
	libraryID, documentID, chunkID := chi.URLParam(r, "libraryID"), chi.URLParam(r, "documentID"), chi.URLParam(r, "chunkID")

	var req struct {
		Text      *string        `json:"text"`
		Embedding []float32      `json:"embedding"`
		Metadata  map[string]any `json:"metadata"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	chunk, err := s.store.UpdateChunk(libraryID, documentID, chunkID, req.Text, req.Embedding, req.Metadata)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	if chunk == nil {
		writeError(w, http.StatusNotFound, vectordb.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (s *Server) handleDeleteChunk(w http.ResponseWriter, r *http.Request) {
	libraryID, documentID, chunkID := chi.URLParam(r, "libraryID"), chi.URLParam(r, "documentID"), chi.URLParam(r, "chunkID")
	if !s.store.DeleteChunk(libraryID, documentID, chunkID) {
		writeError(w, http.StatusNotFound, vectordb.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusForError maps a Store error to an HTTP status. AddChunk and
// UpdateChunk only ever return a dimension/invalid-embedding error or a
// not-found error for a missing library/document, so anything that isn't
// the former is the latter.
func statusForError(err error) int {
	var de *vectordb.DimensionError
	if errors.As(err, &de) || errors.Is(err, vectordb.ErrInvalidEmbedding) {
		return http.StatusBadRequest
	}
	return http.StatusNotFound
}
