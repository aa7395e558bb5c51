package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dstepanenko/chainvault/internal/blobstore"
	"github.com/dstepanenko/chainvault/internal/common"
	"github.com/dstepanenko/chainvault/internal/models"
)

const (
	masterKeyKey = "master.key"
	seedPrefix   = "seeds/"
	recordPrefix = "records/"
)

// BlobVault persists vault state in a blob store. Use a store dedicated to
// key material (separate root or bucket from the ciphertext store), so a
// leaked ciphertext volume carries no envelopes.
type BlobVault struct {
	store blobstore.Store
}

func NewBlobVault(store blobstore.Store) *BlobVault {
	return &BlobVault{store: store}
}

func (v *BlobVault) SaveMasterKey(ctx context.Context, key []byte) error {
	if _, err := v.store.Get(ctx, masterKeyKey); err == nil {
		return fmt.Errorf("master key already exists")
	} else if !errors.Is(err, common.ErrNotFound) {
		return err
	}
	return v.store.Put(ctx, masterKeyKey, key)
}

func (v *BlobVault) LoadMasterKey(ctx context.Context) ([]byte, error) {
	return v.store.Get(ctx, masterKeyKey)
}

func (v *BlobVault) PutWrappedSeed(ctx context.Context, seed models.WrappedSeed) error {
	key := seedKey(seed.FileID, seed.User)
	now := time.Now().UTC()

	seed.CreatedAt = now
	seed.UpdatedAt = now
	if data, err := v.store.Get(ctx, key); err == nil {
		var existing models.WrappedSeed
		if err := json.Unmarshal(data, &existing); err == nil {
			seed.CreatedAt = existing.CreatedAt
		}
	} else if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	data, err := json.Marshal(seed)
	if err != nil {
		return fmt.Errorf("encode wrapped seed: %w", err)
	}
	return v.store.Put(ctx, key, data)
}

func (v *BlobVault) GetWrappedSeed(ctx context.Context, fileID, user string) (*models.WrappedSeed, error) {
	data, err := v.store.Get(ctx, seedKey(fileID, user))
	if err != nil {
		return nil, err
	}
	var seed models.WrappedSeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode wrapped seed: %w", err)
	}
	return &seed, nil
}

func (v *BlobVault) DeleteSeeds(ctx context.Context, fileID string) error {
	keys, err := v.store.List(ctx, seedPrefix+fileID+"/")
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := v.store.Delete(ctx, key); err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (v *BlobVault) PutFileRecord(ctx context.Context, rec models.FileRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode file record: %w", err)
	}
	return v.store.Put(ctx, recordKey(rec.FileID), data)
}

func (v *BlobVault) GetFileRecord(ctx context.Context, fileID string) (*models.FileRecord, error) {
	data, err := v.store.Get(ctx, recordKey(fileID))
	if err != nil {
		return nil, err
	}
	var rec models.FileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode file record: %w", err)
	}
	return &rec, nil
}

func (v *BlobVault) DeleteFileRecord(ctx context.Context, fileID string) error {
	err := v.store.Delete(ctx, recordKey(fileID))
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}

func seedKey(fileID, user string) string {
	return seedPrefix + fileID + "/" + user + ".json"
}

func recordKey(fileID string) string {
	return recordPrefix + fileID + ".json"
}
