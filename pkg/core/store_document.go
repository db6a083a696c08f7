package core

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sahej/vectordb"
)

// DocumentCreate describes a document to add, optionally with chunks to
// attach atomically in the same call.
type DocumentCreate struct {
	ID            string
	DocumentTitle string
	Metadata      map[string]any
	Chunks        []ChunkCreate
}

// AddDocument attaches a new document to libraryID, inserting any initial
// chunks into the library's index if it is indexed. Returns nil if the
// library does not exist.
func (s *Store) AddDocument(libraryID string, dc DocumentCreate) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, ok := s.libraries[libraryID]
	if !ok {
		return nil
	}

	id := dc.ID
	if id == "" {
		id = s.config.IDGen()
	}

	now := time.Now()
	doc := Document{
		Logged:        newLogged(id, dc.Metadata, now),
		DocumentTitle: dc.DocumentTitle,
		Chunks:        []Chunk{},
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["document_title"] = doc.DocumentTitle

	lib.Documents = append(lib.Documents, doc)
	target := &lib.Documents[len(lib.Documents)-1]

	for _, cc := range dc.Chunks {
		s.addChunkLocked(lib, target, cc)
	}

	lib.UpdatedAt = now
	if s.cache != nil {
		s.invalidateLibraryCacheLocked(libraryID)
	}
	s.markDirtyLocked()

	out := cloneDocument(target)
	return &out
}

// GetDocument returns a copy of the document, or nil if the library or
// document does not exist.
func (s *Store) GetDocument(libraryID, documentID string) *Document {
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
	out := cloneDocument(doc)
	return &out
}

// ListChunks returns a copy of every chunk in the document, in order.
func (s *Store) ListChunks(libraryID, documentID string) []Chunk {
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
	out := make([]Chunk, len(doc.Chunks))
	for i, c := range doc.Chunks {
		out[i] = cloneChunk(&c)
	}
	return out
}

// UpdateDocument merges metadata (and optionally retitles) a document,
// keeping every chunk's mirrored document_title metadata in sync.
func (s *Store) UpdateDocument(libraryID, documentID string, title *string, metadata map[string]any) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, ok := s.libraries[libraryID]
	if !ok {
		return nil
	}
	doc := lib.findDocument(documentID)
	if doc == nil {
		return nil
	}

	for k, v := range metadata {
		doc.Metadata[k] = v
	}
	doc.Metadata["document_title"] = doc.DocumentTitle
	if title != nil {
		doc.DocumentTitle = *title
		doc.Metadata["document_title"] = *title
		for i := range doc.Chunks {
			syncChunkMetadata(&doc.Chunks[i], doc)
		}
	}
	doc.UpdatedAt = time.Now()
	s.markDirtyLocked()

	out := cloneDocument(doc)
	return &out
}

// DeleteDocument removes a document and every one of its chunks. If the
// library is indexed, the index is rebuilt to exclude them — this
// resolves §9's "Open question — delete_document and the index" in favor
// of correctness over the source's behavior.
func (s *Store) DeleteDocument(libraryID, documentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, ok := s.libraries[libraryID]
	if !ok {
		return false
	}

	idx := -1
	for i := range lib.Documents {
		if lib.Documents[i].ID == documentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	lib.Documents = append(lib.Documents[:idx], lib.Documents[idx+1:]...)
	lib.UpdatedAt = time.Now()

	if lib.IsIndexed {
		s.indexLibraryLocked(libraryID)
	}
	if s.cache != nil {
		s.invalidateLibraryCacheLocked(libraryID)
	}
	s.markDirtyLocked()
	return true
}

// ChunkOutcome is the per-item result of a bulk chunk ingest.
type ChunkOutcome struct {
	Chunk *Chunk
	Err   error
}

// AddChunksBulk attempts to add every chunk in ccs to documentID
// independently, fanning the embedding validation out across a bounded
// pool of goroutines; a failure on one item never blocks the others. The
// actual map mutation happens serially under the store lock once all
// items have validated, since the map and index are not safe for
// concurrent mutation.
func (s *Store) AddChunksBulk(libraryID, documentID string, ccs []ChunkCreate) []ChunkOutcome {
	outcomes := make([]ChunkOutcome, len(ccs))

	s.mu.RLock()
	dimension := s.config.EmbeddingDimension
	s.mu.RUnlock()

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(8)
	for i, cc := range ccs {
		i, cc := i, cc
		g.Go(func() error {
			if len(cc.Embedding) != dimension {
				outcomes[i] = ChunkOutcome{Err: vectordb.WrapError("add_chunk_bulk", vectordb.NewDimensionError(dimension, len(cc.Embedding)))}
			} else if !vectordb.IsFinite(cc.Embedding) {
				outcomes[i] = ChunkOutcome{Err: vectordb.WrapError("add_chunk_bulk", vectordb.ErrInvalidEmbedding)}
			}
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	lib, ok := s.libraries[libraryID]
	if !ok {
		for i := range outcomes {
			if outcomes[i].Err == nil {
				outcomes[i] = ChunkOutcome{Err: vectordb.WrapError("add_chunk_bulk", errLibraryNotFound)}
			}
		}
		return outcomes
	}
	doc := lib.findDocument(documentID)
	if doc == nil {
		for i := range outcomes {
			if outcomes[i].Err == nil {
				outcomes[i] = ChunkOutcome{Err: vectordb.WrapError("add_chunk_bulk", errDocumentNotFound)}
			}
		}
		return outcomes
	}

	for i, cc := range ccs {
		if outcomes[i].Err != nil {
			continue
		}
		c := s.addChunkLocked(lib, doc, cc)
		out := cloneChunk(c)
		outcomes[i] = ChunkOutcome{Chunk: &out}
	}

	lib.UpdatedAt = time.Now()
	if s.cache != nil {
		s.invalidateLibraryCacheLocked(libraryID)
	}
	s.markDirtyLocked()
	return outcomes
}
