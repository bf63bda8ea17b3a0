// Package model persists fitted feature transforms as opaque blobs so a
// restarted process can reapply them without refitting.
package model

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/cinedex/internal/domain"
)

// envelope wraps a fitted transform with the hash of the catalog it was
// fitted on. A blob fitted on a different catalog must not be reapplied.
type envelope struct {
	CatalogHash string
	Payload     []byte
}

// Store reads and writes fitted-transform blobs under a directory.
type Store struct {
	dir string
}

// New creates a model store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Save gob-encodes v and writes it under name, tagged with catalogHash.
// The write is atomic (temp file + rename).
func (s *Store) Save(name, catalogHash string, v any) error {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	var blob bytes.Buffer
	env := envelope{CatalogHash: catalogHash, Payload: payload.Bytes()}
	if err := gob.NewEncoder(&blob).Encode(env); err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	path := filepath.Join(s.dir, name+".gob")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Load decodes the blob stored under name into v. Returns
// domain.ErrModelStale when the blob was fitted on a different catalog,
// and os.ErrNotExist (wrapped) when no blob exists.
func (s *Store) Load(name, catalogHash string, v any) error {
	path := filepath.Join(s.dir, name+".gob")
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return fmt.Errorf("decode envelope %s: %w", path, err)
	}
	if env.CatalogHash != catalogHash {
		return fmt.Errorf("%s: %w", name, domain.ErrModelStale)
	}

	if err := gob.NewDecoder(bytes.NewReader(env.Payload)).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
