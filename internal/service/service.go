// Package service orchestrates the storage flows: upload, decrypt, listing,
// audit, verification and deletion. It ties the ledger, the key vault, the
// blob store and the cipher together and is the only access-control gate.
package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dstepanenko/chainvault/internal/blobstore"
	"github.com/dstepanenko/chainvault/internal/chc"
	"github.com/dstepanenko/chainvault/internal/common"
	"github.com/dstepanenko/chainvault/internal/keywrap"
	"github.com/dstepanenko/chainvault/internal/ledger"
	"github.com/dstepanenko/chainvault/internal/logging"
	"github.com/dstepanenko/chainvault/internal/models"
	"github.com/dstepanenko/chainvault/internal/seed"
	"github.com/dstepanenko/chainvault/internal/vault"
)

// DefaultMaxFileSize caps uploads at 16 MiB.
const DefaultMaxFileSize = 16 << 20

const blobPrefix = "files/"

type Service struct {
	ledger  *ledger.Ledger
	vault   vault.Vault
	blobs   blobstore.Store
	secrets seed.SecretStore
	master  []byte
	log     logging.Logger

	maxFileSize int64
}

type Option func(*Service)

// WithMaxFileSize overrides the upload size cap.
func WithMaxFileSize(n int64) Option {
	return func(s *Service) { s.maxFileSize = n }
}

// New assembles a service over the given backends. The vault master key is
// loaded on startup, or generated and persisted on first run.
func New(ctx context.Context, l *ledger.Ledger, v vault.Vault, blobs blobstore.Store, secrets seed.SecretStore, log logging.Logger, opts ...Option) (*Service, error) {
	if log == nil {
		log = logging.NewNop()
	}

	master, err := v.LoadMasterKey(ctx)
	if errors.Is(err, common.ErrNotFound) {
		master = keywrap.NewMasterKey()
		if err := v.SaveMasterKey(ctx, master); err != nil {
			return nil, fmt.Errorf("persist master key: %w", err)
		}
		log.Info(ctx, "vault master key generated")
	} else if err != nil {
		return nil, fmt.Errorf("load master key: %w", err)
	}

	s := &Service{
		ledger:      l,
		vault:       v,
		blobs:       blobs,
		secrets:     secrets,
		master:      master,
		log:         log,
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// UploadResult reports the outcome of a successful upload.
type UploadResult struct {
	FileID    string
	BlockHash string
	Checksum  string
	Size      int64
}

// Upload encrypts content under a fresh seed bound to the new ledger block
// and stores the ciphertext. A wrapped seed envelope is written for the
// owner and each authorized user.
func (s *Service) Upload(ctx context.Context, owner, name string, content []byte, authorizedUsers []string) (*UploadResult, error) {
	if int64(len(content)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", common.ErrFileTooLarge, len(content), s.maxFileSize)
	}

	now := time.Now()
	fileID := GenerateFileID(name, owner, now.UnixNano())
	plainHash := sha256Hex(content)

	block, err := s.ledger.Append(ctx, fileID, owner, authorizedUsers, &models.FileMetadata{
		OriginalName: name,
		Size:         int64(len(content)),
		UploadTime:   now.Unix(),
		FileHash:     plainHash,
	})
	if err != nil {
		return nil, err
	}

	secret, err := s.secrets.GetOrCreate(owner)
	if err != nil {
		return nil, fmt.Errorf("owner secret: %w", err)
	}
	defer common.WipeByteArray(secret)

	fileSeed := seed.Derive(secret, block.BlockHash, block.Timestamp, fileID)
	defer common.WipeByteArray(fileSeed)

	ciphertext := chc.Encrypt(content, fileSeed)

	if err := s.blobs.Put(ctx, blobPrefix+fileID, ciphertext); err != nil {
		return nil, fmt.Errorf("store ciphertext: %w", err)
	}

	checksum := s.ciphertextMAC(ciphertext)
	if err := s.vault.PutFileRecord(ctx, models.FileRecord{
		FileID:        fileID,
		OriginalName:  name,
		Size:          int64(len(content)),
		EncryptedSize: int64(len(ciphertext)),
		Checksum:      checksum,
		BlockHash:     block.BlockHash,
		Owner:         owner,
		StoredAt:      now.UTC(),
	}); err != nil {
		return nil, fmt.Errorf("store file record: %w", err)
	}

	for _, user := range append([]string{owner}, block.AuthorizedUsers...) {
		envelope, err := keywrap.Wrap(fileSeed, keywrap.UserKey(user, fileID), s.master)
		if err != nil {
			return nil, fmt.Errorf("wrap seed for %s: %w", user, err)
		}
		if err := s.vault.PutWrappedSeed(ctx, models.WrappedSeed{
			FileID:   fileID,
			User:     user,
			Envelope: envelope,
		}); err != nil {
			return nil, fmt.Errorf("store wrapped seed for %s: %w", user, err)
		}
	}

	s.logEvent(ctx, models.AccessEvent{
		FileID: fileID, Kind: models.EventUpload, Actor: owner, Granted: true,
	})

	s.log.Info(ctx, "file uploaded",
		"file_id", fileID, "owner", owner, "size", len(content), "authorized", len(block.AuthorizedUsers))

	return &UploadResult{
		FileID:    fileID,
		BlockHash: block.BlockHash,
		Checksum:  checksum,
		Size:      int64(len(content)),
	}, nil
}

// Decrypt recovers the plaintext of fileID for user. The chain is repaired
// first if verification fails, authorization is checked against the ledger,
// the stored ciphertext is checksum-verified, and the recovered plaintext
// is compared against the hash recorded at upload.
func (s *Service) Decrypt(ctx context.Context, user, fileID string) ([]byte, *models.FileMetadata, error) {
	if !s.ledger.VerifyIntegrity(ctx) {
		s.log.Warn(ctx, "chain verification failed, repairing before read")
		if err := s.ledger.Repair(ctx); err != nil {
			return nil, nil, fmt.Errorf("repair chain: %w", err)
		}
	}

	block, err := s.ledger.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}

	if !ledger.IsAuthorized(user, block) {
		s.logEvent(ctx, models.AccessEvent{
			FileID: fileID, Kind: models.EventAccessDenied, Actor: user,
			Reason: "not in authorized users",
		})
		s.log.Warn(ctx, "access denied", "file_id", fileID, "user", user)
		return nil, nil, common.ErrAccessDenied
	}

	ciphertext, err := s.blobs.Get(ctx, blobPrefix+fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch ciphertext: %w", err)
	}

	rec, err := s.vault.GetFileRecord(ctx, fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch file record: %w", err)
	}
	if s.ciphertextMAC(ciphertext) != rec.Checksum {
		s.logEvent(ctx, models.AccessEvent{
			FileID: fileID, Kind: models.EventDecryptFailure, Actor: user,
			Reason: "ciphertext checksum mismatch",
		})
		return nil, nil, common.ErrChecksumMismatch
	}

	wrapped, err := s.vault.GetWrappedSeed(ctx, fileID, user)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			err = common.ErrUnwrapFailure
		}
		return nil, nil, err
	}

	fileSeed, err := keywrap.Unwrap(wrapped.Envelope, keywrap.UserKey(user, fileID), s.master)
	if err != nil {
		s.logEvent(ctx, models.AccessEvent{
			FileID: fileID, Kind: models.EventDecryptFailure, Actor: user,
			Reason: "seed unwrap failed",
		})
		return nil, nil, err
	}
	defer common.WipeByteArray(fileSeed)

	plaintext := chc.Decrypt(ciphertext, fileSeed)

	if block.Metadata == nil || sha256Hex(plaintext) != block.Metadata.FileHash {
		s.logEvent(ctx, models.AccessEvent{
			FileID: fileID, Kind: models.EventDecryptFailure, Actor: user,
			Reason: "plaintext hash mismatch",
		})
		return nil, nil, fmt.Errorf("%w: recovered plaintext does not match recorded hash", common.ErrIntegrityViolation)
	}

	s.logEvent(ctx, models.AccessEvent{
		FileID: fileID, Kind: models.EventAccessGranted, Actor: user, Granted: true,
	})

	s.log.Info(ctx, "file decrypted", "file_id", fileID, "user", user)
	return plaintext, block.Metadata, nil
}

// ListAccessible returns the files user may decrypt, newest first.
func (s *Service) ListAccessible(ctx context.Context, user string) ([]models.FileInfo, error) {
	blocks := s.ledger.AccessibleTo(ctx, user)

	infos := make([]models.FileInfo, 0, len(blocks))
	for _, b := range blocks {
		info := models.FileInfo{
			FileID:          b.FileID,
			Owner:           b.Owner,
			AuthorizedUsers: b.AuthorizedUsers,
			BlockHash:       b.BlockHash,
			Timestamp:       b.Timestamp,
		}
		if b.Metadata != nil {
			info.OriginalName = b.Metadata.OriginalName
			info.Size = b.Metadata.Size
		}
		if rec, err := s.vault.GetFileRecord(ctx, b.FileID); err == nil {
			info.EncryptedSize = rec.EncryptedSize
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Timestamp > infos[j].Timestamp })
	return infos, nil
}

// AuditTrail returns the file's audit events in chronological order.
func (s *Service) AuditTrail(ctx context.Context, fileID string) ([]models.AccessEvent, error) {
	block, err := s.ledger.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return block.AccessLogs, nil
}

// VerifySecurity repairs the chain if needed and reports the file's
// security posture: chain validity plus aggregated audit outcomes.
func (s *Service) VerifySecurity(ctx context.Context, fileID string) (*models.SecurityReport, error) {
	valid := s.ledger.VerifyIntegrity(ctx)
	if !valid {
		s.log.Warn(ctx, "chain verification failed, repairing before audit")
		if err := s.ledger.Repair(ctx); err != nil {
			return nil, fmt.Errorf("repair chain: %w", err)
		}
		valid = s.ledger.VerifyIntegrity(ctx)
	}

	block, err := s.ledger.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	report := &models.SecurityReport{
		FileID:          fileID,
		ChainValid:      valid,
		BlockHash:       block.BlockHash,
		Owner:           block.Owner,
		AuthorizedUsers: block.AuthorizedUsers,
	}
	for _, e := range block.AccessLogs {
		switch e.Kind {
		case models.EventAccessDenied:
			report.Events.UnauthorizedAttempts++
		case models.EventAccessGranted:
			report.Events.SuccessfulAccesses++
		case models.EventDecryptFailure:
			report.Events.FailedDecryptions++
		}
	}
	return report, nil
}

// Delete removes the ciphertext, wrapped seeds and file record. Only the
// owner may delete. The ledger block stays; the chain is append-only.
func (s *Service) Delete(ctx context.Context, owner, fileID string) error {
	block, err := s.ledger.GetByFileID(ctx, fileID)
	if err != nil {
		return err
	}
	if block.Owner != owner {
		s.logEvent(ctx, models.AccessEvent{
			FileID: fileID, Kind: models.EventAccessDenied, Actor: owner,
			Reason: "delete requires ownership",
		})
		return common.ErrAccessDenied
	}

	if err := s.blobs.Delete(ctx, blobPrefix+fileID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("delete ciphertext: %w", err)
	}
	if err := s.vault.DeleteSeeds(ctx, fileID); err != nil {
		return fmt.Errorf("delete wrapped seeds: %w", err)
	}
	if err := s.vault.DeleteFileRecord(ctx, fileID); err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}

	s.log.Info(ctx, "file deleted", "file_id", fileID, "owner", owner)
	return nil
}

// Stats summarizes the store.
type Stats struct {
	Blocks      int
	Files       int
	AuditEvents int
	ChainValid  bool
}

func (s *Service) Stats(ctx context.Context) *Stats {
	chain := s.ledger.Chain(ctx)

	stats := &Stats{
		Blocks:     len(chain),
		ChainValid: s.ledger.VerifyIntegrity(ctx),
	}
	for _, b := range chain {
		if b.Index == 0 {
			continue
		}
		stats.Files++
		stats.AuditEvents += len(b.AccessLogs)
	}
	return stats
}

// VerifyIntegrity reports whether the chain currently verifies.
func (s *Service) VerifyIntegrity(ctx context.Context) bool {
	return s.ledger.VerifyIntegrity(ctx)
}

// Repair rebuilds chain hashes and links from genesis forward.
func (s *Service) Repair(ctx context.Context) error {
	return s.ledger.Repair(ctx)
}

// Audit-trail writes must not block the data path, so failures are logged
// and swallowed.
func (s *Service) logEvent(ctx context.Context, event models.AccessEvent) {
	if err := s.ledger.LogEvent(ctx, event); err != nil {
		s.log.Warn(ctx, "audit event write failed",
			"file_id", event.FileID, "kind", event.Kind, "error", err)
	}
}

// The stored ciphertext digest is keyed with the master key: an attacker
// who can rewrite the blob store cannot forge a matching record without it.
func (s *Service) ciphertextMAC(ciphertext []byte) string {
	m := hmac.New(sha256.New, s.master)
	m.Write(ciphertext)
	return hex.EncodeToString(m.Sum(nil))
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
