package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dstepanenko/chainvault/internal/common"
	"github.com/dstepanenko/chainvault/internal/models"
)

// PostgresVault persists vault state in PostgreSQL. Timestamps are assigned
// by the database so upserts keep created_at stable.
type PostgresVault struct {
	db *sql.DB
}

func NewPostgresVault(db *sql.DB) *PostgresVault {
	return &PostgresVault{db: db}
}

func (v *PostgresVault) SaveMasterKey(ctx context.Context, key []byte) error {
	var exists bool
	err := v.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM master_keys)`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check master key: %w", err)
	}
	if exists {
		return fmt.Errorf("master key already exists")
	}

	_, err = v.db.ExecContext(ctx, `INSERT INTO master_keys (key) VALUES ($1)`, key)
	if err != nil {
		return fmt.Errorf("insert master key: %w", err)
	}
	return nil
}

func (v *PostgresVault) LoadMasterKey(ctx context.Context) ([]byte, error) {
	var key []byte
	err := v.db.QueryRowContext(ctx, `SELECT key FROM master_keys ORDER BY created_at LIMIT 1`).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load master key: %w", err)
	}
	return key, nil
}

func (v *PostgresVault) PutWrappedSeed(ctx context.Context, seed models.WrappedSeed) error {
	_, err := v.db.ExecContext(ctx,
		`INSERT INTO wrapped_seeds (file_id, username, envelope)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (file_id, username)
		 DO UPDATE SET envelope = EXCLUDED.envelope, updated_at = now()`,
		seed.FileID, seed.User, seed.Envelope)
	if err != nil {
		return fmt.Errorf("upsert wrapped seed: %w", err)
	}
	return nil
}

func (v *PostgresVault) GetWrappedSeed(ctx context.Context, fileID, user string) (*models.WrappedSeed, error) {
	seed := models.WrappedSeed{FileID: fileID, User: user}
	err := v.db.QueryRowContext(ctx,
		`SELECT envelope, created_at, updated_at FROM wrapped_seeds WHERE file_id = $1 AND username = $2`,
		fileID, user).Scan(&seed.Envelope, &seed.CreatedAt, &seed.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load wrapped seed: %w", err)
	}
	return &seed, nil
}

func (v *PostgresVault) DeleteSeeds(ctx context.Context, fileID string) error {
	_, err := v.db.ExecContext(ctx, `DELETE FROM wrapped_seeds WHERE file_id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("delete wrapped seeds: %w", err)
	}
	return nil
}

func (v *PostgresVault) PutFileRecord(ctx context.Context, rec models.FileRecord) error {
	_, err := v.db.ExecContext(ctx,
		`INSERT INTO file_records (file_id, original_name, size, encrypted_size, checksum, block_hash, owner, stored_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (file_id)
		 DO UPDATE SET original_name = EXCLUDED.original_name, size = EXCLUDED.size,
		               encrypted_size = EXCLUDED.encrypted_size, checksum = EXCLUDED.checksum,
		               block_hash = EXCLUDED.block_hash, owner = EXCLUDED.owner, stored_at = EXCLUDED.stored_at`,
		rec.FileID, rec.OriginalName, rec.Size, rec.EncryptedSize, rec.Checksum, rec.BlockHash, rec.Owner, rec.StoredAt)
	if err != nil {
		return fmt.Errorf("upsert file record: %w", err)
	}
	return nil
}

func (v *PostgresVault) GetFileRecord(ctx context.Context, fileID string) (*models.FileRecord, error) {
	rec := models.FileRecord{FileID: fileID}
	err := v.db.QueryRowContext(ctx,
		`SELECT original_name, size, encrypted_size, checksum, block_hash, owner, stored_at
		   FROM file_records WHERE file_id = $1`,
		fileID).Scan(&rec.OriginalName, &rec.Size, &rec.EncryptedSize, &rec.Checksum, &rec.BlockHash, &rec.Owner, &rec.StoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load file record: %w", err)
	}
	return &rec, nil
}

func (v *PostgresVault) DeleteFileRecord(ctx context.Context, fileID string) error {
	_, err := v.db.ExecContext(ctx, `DELETE FROM file_records WHERE file_id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	return nil
}
