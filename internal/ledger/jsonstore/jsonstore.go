// Package jsonstore persists the ledger state as a single JSON file.
// Writes go through an atomic rename, so a crash mid-save leaves the
// previous snapshot intact.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dstepanenko/chainvault/internal/filex"
	"github.com/dstepanenko/chainvault/internal/ledger"
)

type Store struct {
	path string
}

// New returns a store backed by the file at path. The parent directory is
// created on first save.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load(_ context.Context) (*ledger.State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ledger.State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	var state ledger.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode ledger file: %w", err)
	}
	return &state, nil
}

func (s *Store) Save(_ context.Context, state *ledger.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger state: %w", err)
	}

	if err := filex.EnsureDir(filepath.Dir(s.path)); err != nil {
		return err
	}
	return filex.WriteFileAtomic(s.path, data, 0o600)
}
