// Package vault stores the key material and off-chain file records: wrapped
// seed envelopes per (file, user), the master key, and ciphertext checksum
// records. Backends exist for blob storage and PostgreSQL.
package vault

import (
	"context"

	"github.com/dstepanenko/chainvault/internal/models"
)

// Vault is the persistence boundary for key material and file records.
// Lookups return common.ErrNotFound for missing entries.
type Vault interface {
	// SaveMasterKey persists the vault master key. It refuses to overwrite
	// an existing key; rotating the master key would orphan every envelope
	// sealed under the old one.
	SaveMasterKey(ctx context.Context, key []byte) error
	LoadMasterKey(ctx context.Context) ([]byte, error)

	// PutWrappedSeed upserts the envelope for a (file, user) pair. The
	// backend assigns CreatedAt on insert and bumps UpdatedAt on update.
	PutWrappedSeed(ctx context.Context, seed models.WrappedSeed) error
	GetWrappedSeed(ctx context.Context, fileID, user string) (*models.WrappedSeed, error)
	// DeleteSeeds removes every envelope recorded for the file.
	DeleteSeeds(ctx context.Context, fileID string) error

	PutFileRecord(ctx context.Context, rec models.FileRecord) error
	GetFileRecord(ctx context.Context, fileID string) (*models.FileRecord, error)
	DeleteFileRecord(ctx context.Context, fileID string) error
}
