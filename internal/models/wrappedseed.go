package models

import "time"

// WrappedSeed is one key-vault record: the file's encryption seed, XORed
// with a user key and sealed under the vault master key. One record exists
// per (file, authorized user) pair, the owner included.
type WrappedSeed struct {
	FileID string `json:"file_id"`
	User   string `json:"user"`
	// Envelope is the AES-GCM envelope (nonce || ciphertext) produced by
	// keywrap.Wrap. The raw seed never reaches storage.
	Envelope  []byte    `json:"envelope"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
