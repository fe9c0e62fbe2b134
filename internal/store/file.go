package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/punchamoorthee/paygate/internal/domain"
)

// FileStore keeps the whole ledger in one JSON document. Every mutation
// rewrites the document under a single process-wide lock.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the ledger document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the ledger document. A missing file is an empty ledger; a file
// that cannot be read or decoded returns ErrLedgerCorrupt.
func (s *FileStore) Load() (domain.Ledger, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewLedger(), nil
		}
		return domain.Ledger{}, fmt.Errorf("%w: %v", ErrLedgerCorrupt, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.NewLedger(), nil
	}

	var ledger domain.Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return domain.Ledger{}, fmt.Errorf("%w: %v", ErrLedgerCorrupt, err)
	}
	ledger.Normalize()
	return ledger, nil
}

// Save atomically replaces the ledger document: the snapshot is written to a
// temporary file in the same directory, synced, and renamed over the target.
func (s *FileStore) Save(ledger domain.Ledger) error {
	ledger.Version = domain.LedgerVersion
	if ledger.Records == nil {
		ledger.Records = make(map[string]*domain.PaymentRecord)
	}
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

// Snapshot never fails on a bad document: reads degrade to an empty ledger so
// status pages stay up.
func (s *FileStore) Snapshot(ctx context.Context) (domain.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger, err := s.Load()
	if err != nil {
		log.Printf("ledger snapshot degraded to empty: %v", err)
		return domain.NewLedger(), nil
	}
	return ledger, nil
}

// Mutate holds the write lock across load, fn and save so no two mutations
// interleave.
func (s *FileStore) Mutate(ctx context.Context, id string, fn MutateFunc) (domain.PaymentRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.Load()
	if err != nil {
		return domain.PaymentRecord{}, err
	}

	updated, err := fn(ledger.Records[id].Clone())
	if err != nil {
		return domain.PaymentRecord{}, err
	}
	if updated == nil {
		return domain.PaymentRecord{}, fmt.Errorf("mutation of %s returned no record", id)
	}
	updated.ID = id
	ledger.Records[id] = updated

	if err := s.Save(ledger); err != nil {
		return domain.PaymentRecord{}, err
	}
	return *updated.Clone(), nil
}
