package core

import "github.com/sahej/vectordb/pkg/index"

// toIndexChunk projects a stored chunk into the shape the index package
// operates on. Ref carries the chunk's metadata so Search can apply a
// post-selection filter without a second lookup into the document tree.
func toIndexChunk(c *Chunk) index.Chunk {
	return index.Chunk{
		ID:        c.ID,
		Embedding: c.Embedding,
		Ref:       indexedChunkRef{Text: c.Text, Metadata: c.Metadata},
	}
}

// indexedChunkRef is the payload an index.Chunk carries in Ref.
type indexedChunkRef struct {
	Text     string
	Metadata map[string]any
}
