// Package models defines the data shapes shared by the ledger, the key
// vault and the service layer.
package models

// FileMetadata is the structured record carried by a ledger block,
// describing the plaintext that was encrypted under that block's context.
type FileMetadata struct {
	// OriginalName is the client-supplied file name.
	OriginalName string `json:"original_name"`
	// Size is the plaintext size in bytes.
	Size int64 `json:"size"`
	// UploadTime is the unix timestamp of the upload.
	UploadTime int64 `json:"upload_time"`
	// FileHash is the SHA-256 hex digest of the plaintext. Decryption
	// verifies the recovered plaintext against it, since the cipher itself
	// carries no authentication tag.
	FileHash string `json:"file_hash"`
}

// Block is one record of the core ledger chain. Blocks are hashed once at
// append time and never amended; access events live in a separate per-file
// event chain and are attached to lookup results for convenience.
type Block struct {
	// Index is the block's position in the chain, 0 for genesis.
	Index uint64 `json:"index"`
	// Timestamp is the block creation time, unix seconds, immutable.
	Timestamp int64 `json:"timestamp"`
	// FileID identifies the file version; "genesis" for the genesis block.
	FileID string `json:"file_id"`
	// Owner is the uploading identity; "system" for genesis.
	Owner string `json:"owner"`
	// AuthorizedUsers lists identities allowed to decrypt, owner excluded.
	// Stored sorted so serialization is deterministic.
	AuthorizedUsers []string `json:"authorized_users"`
	// Metadata is nil for genesis.
	Metadata *FileMetadata `json:"metadata,omitempty"`
	// Data carries the genesis sentinel payload; empty on file blocks.
	Data string `json:"data,omitempty"`
	// PrevHash is the previous block's hash, "0" for genesis.
	PrevHash string `json:"prev_hash"`
	// BlockHash is the SHA-256 hex digest over the block's canonical
	// serialization, which excludes this field.
	BlockHash string `json:"block_hash"`

	// AccessLogs is a read-side view of the file's event chain, populated
	// on lookups. It is not part of the block's canonical serialization.
	AccessLogs []AccessEvent `json:"access_logs,omitempty"`
}
