package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/sahej/vectordb"
	"github.com/sahej/vectordb/pkg/index"
)

// snapshotFile is the on-disk representation of §6's persisted state. The
// name keeps the spec's "vector_db.pkl" filename even though the payload
// is JSON, not a pickle — see DESIGN.md.
const snapshotFile = "vector_db.pkl"

type snapshotDoc struct {
	EmbeddingDimension int                 `json:"embedding_dimension"`
	IndexClass         IndexClass          `json:"index_class"`
	LSH                LSHParams           `json:"lsh"`
	Libraries          map[string]*Library `json:"libraries"`
}

// Snapshotter periodically persists a Store's state to a single file,
// atomically, enforcing single-writer access with an on-disk advisory
// lock (§4.5, §5). Run holds that lock for its lifetime; WriteNow does
// not take it.
type Snapshotter struct {
	store *Store
	log   Logger
	lock  *flock.Flock
}

// NewSnapshotter builds a Snapshotter for store. It does not start the
// background loop; call Run for that.
func NewSnapshotter(store *Store) *Snapshotter {
	cfg := store.Config()
	return &Snapshotter{
		store: store,
		log:   cfg.Logger.With("component", "snapshotter"),
		lock:  flock.New(filepath.Join(cfg.DataDir, ".vectordb.lock")),
	}
}

// Run blocks, ticking every CheckInterval and snapshotting when the store
// is dirty and SaveInterval has elapsed, until ctx is cancelled. It
// acquires the single-writer file lock once, for the lifetime of the
// call.
func (sn *Snapshotter) Run(ctx context.Context) error {
	cfg := sn.store.Config()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return vectordb.WrapError("run", err)
	}
	locked, err := sn.lock.TryLockContext(ctx, 200*time.Millisecond)
	if err != nil || !locked {
		sn.log.Error("failed to acquire snapshot lock", "error", err)
		return vectordb.WrapError("run", err)
	}
	defer sn.lock.Unlock()

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sn.tick()
		}
	}
}

func (sn *Snapshotter) tick() {
	buf, ok := sn.store.snapshotIfDue()
	if !ok {
		return
	}
	if err := sn.writeAtomic(buf); err != nil {
		sn.log.Error("snapshot write failed", "error", err)
		// Mark the store dirty again and clear lastSave so the next tick
		// retries the write.
		sn.store.mu.Lock()
		sn.store.needsSave = true
		sn.store.lastSave = time.Time{}
		sn.store.mu.Unlock()
		return
	}
	sn.log.Info("snapshot written", "bytes", len(buf))
}

// WriteNow forces an immediate snapshot write, bypassing the dirty/
// interval gate — used by the CLI's `seed` and `snapshot` subcommands,
// which run once and exit rather than looping in Run.
func (sn *Snapshotter) WriteNow() error {
	buf, ok := sn.store.snapshot(true)
	if !ok {
		return nil
	}
	if err := os.MkdirAll(sn.store.Config().DataDir, 0o755); err != nil {
		return vectordb.WrapError("write_now", err)
	}
	return vectordb.WrapError("write_now", sn.writeAtomic(buf))
}

func (sn *Snapshotter) writeAtomic(buf []byte) error {
	cfg := sn.store.Config()
	target := filepath.Join(cfg.DataDir, snapshotFile)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", vectordb.ErrPersistenceFailure, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", vectordb.ErrPersistenceFailure, err)
	}
	return nil
}

// snapshotIfDue copies out state under the store lock, releases it, and
// returns the serialized buffer — the "copy-under-lock" strategy from
// §9's "Snapshot under lock" note. ok is false if no snapshot was due.
func (s *Store) snapshotIfDue() (buf []byte, ok bool) {
	return s.snapshot(false)
}

// snapshot builds the serialized buffer. When force is false it applies
// the dirty/interval gate from §4.5; when true (used by the CLI's
// explicit `snapshot`/`seed` commands) it always produces a buffer.
func (s *Store) snapshot(force bool) (buf []byte, ok bool) {
	s.mu.Lock()
	due := force || (s.needsSave && time.Since(s.lastSave) >= s.config.SaveInterval)
	if !due {
		s.mu.Unlock()
		return nil, false
	}

	doc := snapshotDoc{
		EmbeddingDimension: s.config.EmbeddingDimension,
		IndexClass:         s.config.IndexClass,
		LSH:                s.config.LSH,
		Libraries:          make(map[string]*Library, len(s.libraries)),
	}
	for id, lib := range s.libraries {
		doc.Libraries[id] = cloneLibrary(lib)
	}
	s.needsSave = false
	s.lastSave = time.Now()
	s.mu.Unlock()

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, false
	}
	return b, true
}

// LoadSnapshot reads <data_dir>/vector_db.pkl, if present, replacing the
// store's libraries and rebuilding every index from the restored class +
// parameters (§4.5: "indexes are NOT serialized"). A missing file is not
// an error — the store simply starts empty. A corrupt file fails the
// load and leaves the store untouched.
func (s *Store) LoadSnapshot() error {
	cfg := s.Config()
	path := filepath.Join(cfg.DataDir, snapshotFile)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return vectordb.WrapError("load_snapshot", err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return vectordb.WrapError("load_snapshot", err)
	}

	class := doc.IndexClass
	s.mu.Lock()
	if class != IndexClassLSH && class != IndexClassExact {
		s.config.Logger.Warn("unknown index class in snapshot, using configured default", "class", string(class))
		class = s.config.IndexClass
	}
	s.config.EmbeddingDimension = doc.EmbeddingDimension
	s.config.IndexClass = class
	s.config.LSH = doc.LSH

	s.libraries = make(map[string]*Library, len(doc.Libraries))
	s.indexes = make(map[string]index.Index, len(doc.Libraries))
	for id, lib := range doc.Libraries {
		lib.IsIndexed = false
		s.libraries[id] = lib
		s.indexes[id] = s.newIndex(class)
	}
	for id := range s.libraries {
		s.indexLibraryLocked(id)
	}
	s.mu.Unlock()

	return nil
}
