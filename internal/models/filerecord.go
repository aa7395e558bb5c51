package models

import "time"

// FileRecord is the off-chain record of a stored ciphertext: where the blob
// lives and the checksum guarding it. The checksum covers the ciphertext
// and is an external integrity add-on, separate from the plaintext hash in
// the ledger metadata.
type FileRecord struct {
	FileID        string `json:"file_id"`
	OriginalName  string `json:"original_name"`
	Size          int64  `json:"size"`
	EncryptedSize int64  `json:"encrypted_size"`
	// Checksum is the HMAC-SHA256 hex digest of the stored ciphertext,
	// keyed with the vault master key.
	Checksum string `json:"checksum"`
	// BlockHash denormalizes the ledger context the file was sealed under.
	BlockHash string    `json:"block_hash"`
	Owner     string    `json:"owner"`
	StoredAt  time.Time `json:"stored_at"`
}

// FileInfo is the listing view returned to callers: ledger facts plus
// storage facts, no key material.
type FileInfo struct {
	FileID          string
	OriginalName    string
	Owner           string
	AuthorizedUsers []string
	BlockHash       string
	Timestamp       int64
	Size            int64
	EncryptedSize   int64
}

// SecurityCounters aggregates a file's audit outcomes.
type SecurityCounters struct {
	UnauthorizedAttempts int
	SuccessfulAccesses   int
	FailedDecryptions    int
}

// SecurityReport is the result of a per-file security verification pass.
type SecurityReport struct {
	FileID          string
	ChainValid      bool
	BlockHash       string
	Owner           string
	AuthorizedUsers []string
	Events          SecurityCounters
}
