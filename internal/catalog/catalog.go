package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/punchamoorthee/paygate/internal/domain"
)

// Catalog maps normalized identifiers to their entries. It is immutable once loaded.
type Catalog struct {
	entries map[string]domain.Entry
}

// document is the on-disk catalog shape.
type document struct {
	Entries map[string]json.RawMessage `json:"entries"`
}

// New builds a catalog from raw entry objects keyed by identifier.
func New(raw map[string]json.RawMessage) *Catalog {
	c := &Catalog{entries: make(map[string]domain.Entry, len(raw))}
	for key, obj := range raw {
		id := domain.NormalizeID(key)
		if id == "" || len(obj) == 0 || string(obj) == "null" {
			continue
		}
		c.entries[id] = domain.NewEntry(id, obj)
	}
	return c
}

// Empty returns a catalog with no entries.
func Empty() *Catalog {
	return New(nil)
}

// Load reads the catalog document at path. A missing file is not an error and
// yields an empty catalog. Any other failure returns an empty catalog together
// with the error so the caller can log it and keep serving.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Empty(), nil
		}
		return Empty(), fmt.Errorf("read catalog: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Empty(), fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.Entries), nil
}

// Lookup returns the entry for an already-normalized identifier.
func (c *Catalog) Lookup(id string) (domain.Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}
