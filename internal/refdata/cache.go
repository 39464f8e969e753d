// Package refdata resolves SKU and service-plan identifiers to their
// human-readable product names. The cache is an explicitly constructed
// object passed to the callers that need it; there is no package-level
// state.
package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ErrNotLoaded is returned by Lookup before Load has populated the cache.
var ErrNotLoaded = errors.New("refdata: cache not loaded") //nolint:gochecknoglobals // sentinel error

// Cache maps SKU/service-plan GUIDs and part numbers to friendly names.
// Read-only once populated; Invalidate resets it for a reload.
type Cache struct {
	mu     sync.RWMutex
	byID   map[string]string
	loaded bool
}

// NewCache creates an empty, unloaded cache.
func NewCache() *Cache {
	return &Cache{byID: make(map[string]string)}
}

// LoadFile reads a product-names CSV from disk. See Load for the format.
func (c *Cache) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("refdata.Cache.LoadFile: %w", err)
	}
	defer f.Close()

	if err := c.Load(f); err != nil {
		return fmt.Errorf("refdata.Cache.LoadFile: %s: %w", path, err)
	}
	return nil
}

// Load reads CSV rows of the form `identifier,friendly name`. A header
// row is detected by the literal "identifier" in the first column and
// skipped. Identifiers are matched case-insensitively. Loading replaces
// the previous contents atomically.
func (c *Cache) Load(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	next := make(map[string]string)
	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("refdata.Cache.Load: %w", err)
		}
		line++

		if len(row) < 2 {
			return fmt.Errorf("refdata.Cache.Load: line %d: expected at least 2 columns, got %d", line, len(row))
		}
		id := strings.TrimSpace(row[0])
		name := strings.TrimSpace(row[1])
		if line == 1 && strings.EqualFold(id, "identifier") {
			continue
		}
		if id == "" {
			continue
		}
		next[strings.ToLower(id)] = name
	}

	c.mu.Lock()
	c.byID = next
	c.loaded = true
	c.mu.Unlock()

	return nil
}

// Lookup resolves an identifier to its friendly name. The bool is false
// when the identifier is unknown.
func (c *Cache) Lookup(id string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loaded {
		return "", false, ErrNotLoaded
	}
	name, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	return name, ok, nil
}

// FriendlyName resolves an identifier, falling back to the identifier
// itself when the cache has no entry or is not loaded.
func (c *Cache) FriendlyName(id string) string {
	name, ok, err := c.Lookup(id)
	if err != nil || !ok || name == "" {
		return id
	}
	return name
}

// Len returns the number of loaded entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Invalidate empties the cache; subsequent Lookups fail with ErrNotLoaded
// until the next Load.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.byID = make(map[string]string)
	c.loaded = false
	c.mu.Unlock()
}
