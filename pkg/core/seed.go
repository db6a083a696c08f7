package core

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/sahej/vectordb"
)

// seedItem is one row of the seed file: a chunk's text, embedding, and
// metadata, grouped into documents by metadata.document_title.
type seedItem struct {
	Text      string         `json:"text"`
	Embedding []float32      `json:"embedding"`
	Metadata  map[string]any `json:"metadata"`
}

// SeedLibraryID is the library created by LoadSeedFile, mirroring the
// original's "default_library" convention.
const SeedLibraryID = "default_library"

// LoadSeedFile populates the store from a JSON array of
// {text, embedding, metadata} objects, grouping items into documents by
// their metadata.document_title (§4.4 "Seeding"). It is a boundary
// convenience, not part of the tested core contract, used on first
// startup when no snapshot is present. A missing file is not an error —
// the store simply starts empty.
func (s *Store) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return vectordb.WrapError("load_seed_file", fmt.Errorf("read seed file: %w", err))
	}

	var items []seedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return vectordb.WrapError("load_seed_file", fmt.Errorf("parse seed file: %w", err))
	}
	return s.seedFromItems(items)
}

func (s *Store) seedFromItems(items []seedItem) error {
	cfg := s.Config()
	log := cfg.Logger.With("component", "seed")
	log.Info("seeding store from embeddings file", "items", len(items))

	s.CreateLibrary(SeedLibraryID, nil)

	order := make([]string, 0)
	byTitle := make(map[string][]seedItem)
	for _, item := range items {
		title := "Untitled"
		if item.Metadata != nil {
			if t, ok := item.Metadata["document_title"].(string); ok && t != "" {
				title = t
			}
		}
		if _, seen := byTitle[title]; !seen {
			order = append(order, title)
		}
		byTitle[title] = append(byTitle[title], item)
	}

	docIDs := make(map[string]string, len(order))
	for _, title := range order {
		doc := s.AddDocument(SeedLibraryID, DocumentCreate{
			DocumentTitle: title,
			Metadata:      map[string]any{"document_title": title},
		})
		if doc == nil {
			continue
		}
		docIDs[title] = doc.ID
	}

	total := 0
	for _, title := range order {
		docID, ok := docIDs[title]
		if !ok {
			continue
		}
		for _, item := range byTitle[title] {
			if _, err := s.AddChunk(SeedLibraryID, docID, ChunkCreate{
				Text:      item.Text,
				Embedding: item.Embedding,
				Metadata:  item.Metadata,
			}); err != nil {
				log.Warn("skipping seed chunk", "document_title", title, "error", err)
				continue
			}
			total++
		}
	}

	s.IndexLibrary(SeedLibraryID)
	log.Info("seed complete", "documents", len(docIDs), "chunks", total)
	return nil
}

// WatchSeedFile re-seeds the store whenever path changes on disk, using
// fsnotify. It blocks until stop is closed or the watcher cannot be set
// up — a convenience for the demo data flow, not part of the tested core
// contract. It runs only when called directly: nothing in this module
// reads Config.WatchSeedFile or starts the watch.
func (s *Store) WatchSeedFile(path string, stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return vectordb.WrapError("watch_seed_file", fmt.Errorf("create seed watcher: %w", err))
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return vectordb.WrapError("watch_seed_file", fmt.Errorf("watch seed file: %w", err))
	}

	log := s.Config().Logger.With("component", "seed-watch")
	for {
		select {
		case <-stop:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Info("seed file changed, reloading", "path", path)
			if err := s.LoadSeedFile(path); err != nil {
				log.Error("reload seed file failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("seed watcher error", "error", err)
		}
	}
}
