// Package persist provides crash-safe checkpointing of order book state to
// JSON files. Grounded on the example corpus's position store: one file
// per symbol, atomic write-then-rename so a crash mid-save never leaves a
// corrupt checkpoint behind.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lobd/internal/batch"
	"lobd/internal/book"
)

// Store persists per-symbol order book checkpoints to a directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open creates a store backed by dir, creating it if necessary.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create persist dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save atomically writes d's checkpoint for symbol: marshal to a .tmp
// file, then rename over the target so readers never observe a partial
// write. d.Checkpoint synchronizes with any batch application in
// progress, so Save is safe to call from a goroutine other than the
// driver's own.
func (s *Store) Save(symbol string, d *batch.Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := d.Checkpoint()
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	path := s.pathFor(symbol)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return os.Rename(tmp, path)
}

// Load restores symbol's last checkpoint into d's book, which must be
// freshly constructed and empty. Returns false, nil if no checkpoint
// exists yet. d.Restore synchronizes with any batch application in
// progress, so Load is safe to call from a goroutine other than the
// driver's own, including before the driver's Run loop has started.
func (s *Store) Load(symbol string, d *batch.Driver) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.pathFor(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read checkpoint: %w", err)
	}

	var records []book.OrderRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return false, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	if err := d.Restore(records); err != nil {
		return false, fmt.Errorf("restore checkpoint: %w", err)
	}
	return true, nil
}

func (s *Store) pathFor(symbol string) string {
	return filepath.Join(s.dir, "book_"+symbol+".json")
}
