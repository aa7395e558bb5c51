// Package common defines shared constants and sentinel errors used across
// ChainVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrNotFound    = errors.New("not found")
	ErrLedgerWrite = errors.New("ledger write error")

	// Integrity errors. ErrIntegrityViolation covers both a broken
	// hash chain and a recovered-plaintext hash mismatch.
	ErrIntegrityViolation = errors.New("integrity violation")
	ErrChecksumMismatch   = errors.New("checksum mismatch")

	// Access-control and key-management errors. These stay distinct so a
	// caller can tell an authorization failure from an envelope failure,
	// without either one leaking why decryption itself went wrong.
	ErrAccessDenied  = errors.New("access denied")
	ErrUnwrapFailure = errors.New("seed unwrap failure")

	// Validation errors.
	ErrFileTooLarge = errors.New("file too large")
)
