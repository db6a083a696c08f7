package core

import (
	"fmt"
	"time"

	"github.com/sahej/vectordb"
)

var (
	errLibraryNotFound  = fmt.Errorf("library %w", vectordb.ErrNotFound)
	errDocumentNotFound = fmt.Errorf("document %w", vectordb.ErrNotFound)
)

// ChunkCreate describes a chunk to add to a document.
type ChunkCreate struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]any
}

// AddChunk appends a chunk to the given document, inserting it into the
// library's index if the library is indexed. Returns a nil chunk and a
// wrapped error if the embedding is invalid (dimension mismatch or
// non-finite values) or if the library or document is absent.
func (s *Store) AddChunk(libraryID, documentID string, cc ChunkCreate) (*Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateEmbedding(cc.Embedding); err != nil {
		return nil, vectordb.WrapError("add_chunk", err)
	}

	lib, ok := s.libraries[libraryID]
	if !ok {
		return nil, vectordb.WrapError("add_chunk", errLibraryNotFound)
	}
	doc := lib.findDocument(documentID)
	if doc == nil {
		return nil, vectordb.WrapError("add_chunk", errDocumentNotFound)
	}

	c := s.addChunkLocked(lib, doc, cc)
	lib.UpdatedAt = time.Now()
	if s.cache != nil {
		s.invalidateLibraryCacheLocked(libraryID)
	}
	s.markDirtyLocked()

	out := cloneChunk(c)
	return &out, nil
}

// addChunkLocked appends cc to doc (a member of lib's Documents slice),
// inserting it into lib's index when indexed. Caller must hold s.mu and
// have already validated cc.Embedding. Returns a pointer into doc.Chunks.
func (s *Store) addChunkLocked(lib *Library, doc *Document, cc ChunkCreate) *Chunk {
	now := time.Now()
	id := cc.ID
	if id == "" {
		id = s.config.IDGen()
	}

	c := Chunk{
		Logged:    newLogged(id, cloneMetadata(cc.Metadata), now),
		Text:      cc.Text,
		Embedding: append([]float32(nil), cc.Embedding...),
	}
	syncChunkMetadata(&c, doc)

	doc.Chunks = append(doc.Chunks, c)
	stored := &doc.Chunks[len(doc.Chunks)-1]

	if lib.IsIndexed {
		if idx, ok := s.indexes[lib.LibraryID]; ok {
			_ = idx.Insert(toIndexChunk(stored))
		}
	}
	return stored
}

// GetChunk returns a copy of the chunk, or nil if any ancestor or the
// chunk itself is absent.
func (s *Store) GetChunk(libraryID, documentID, chunkID string) *Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lib, ok := s.libraries[libraryID]
	if !ok {
		return nil
	}
	doc := lib.findDocument(documentID)
	if doc == nil {
		return nil
	}
	c := doc.findChunk(chunkID)
	if c == nil {
		return nil
	}
	out := cloneChunk(c)
	return &out
}

// UpdateChunk replaces a chunk's text, embedding, and/or metadata. Since
// neither concrete index supports in-place update, the owning library's
// entire index is rebuilt when it is indexed (§4.4, §9).
func (s *Store) UpdateChunk(libraryID, documentID, chunkID string, text *string, embedding []float32, metadata map[string]any) (*Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if embedding != nil {
		if err := s.validateEmbedding(embedding); err != nil {
			return nil, vectordb.WrapError("update_chunk", err)
		}
	}

	lib, ok := s.libraries[libraryID]
	if !ok {
		return nil, vectordb.WrapError("update_chunk", errLibraryNotFound)
	}
	doc := lib.findDocument(documentID)
	if doc == nil {
		return nil, vectordb.WrapError("update_chunk", errDocumentNotFound)
	}
	c := doc.findChunk(chunkID)
	if c == nil {
		return nil, nil
	}

	if text != nil {
		c.Text = *text
	}
	if embedding != nil {
		c.Embedding = append([]float32(nil), embedding...)
	}
	for k, v := range metadata {
		c.Metadata[k] = v
	}
	syncChunkMetadata(c, doc)
	c.UpdatedAt = time.Now()

	if lib.IsIndexed {
		s.indexLibraryLocked(libraryID)
	}
	if s.cache != nil {
		s.invalidateLibraryCacheLocked(libraryID)
	}
	s.markDirtyLocked()

	out := cloneChunk(c)
	return &out, nil
}

// DeleteChunk removes a chunk from its document, rebuilding the owning
// library's index when it is indexed.
func (s *Store) DeleteChunk(libraryID, documentID, chunkID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, ok := s.libraries[libraryID]
	if !ok {
		return false
	}
	doc := lib.findDocument(documentID)
	if doc == nil {
		return false
	}

	idx := -1
	for i := range doc.Chunks {
		if doc.Chunks[i].ID == chunkID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	doc.Chunks = append(doc.Chunks[:idx], doc.Chunks[idx+1:]...)
	doc.UpdatedAt = time.Now()

	if lib.IsIndexed {
		s.indexLibraryLocked(libraryID)
	}
	if s.cache != nil {
		s.invalidateLibraryCacheLocked(libraryID)
	}
	s.markDirtyLocked()
	return true
}
