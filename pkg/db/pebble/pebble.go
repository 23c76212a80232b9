package pebble

import (
	"fmt"
	"os"

	"github.com/amankumarsingh77/cloud-video-converter/internal/config"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

func NewPebbleDB(c *config.Config) (*pebble.DB, error) {
	if err := os.MkdirAll(c.Pebble.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create pebble dir: %w", err)
	}
	db, err := pebble.Open(c.Pebble.Dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble store: %w", err)
	}
	return db, nil
}

// NewInMemoryDB opens a store that lives only in memory.
func NewInMemoryDB() (*pebble.DB, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory pebble store: %w", err)
	}
	return db, nil
}
