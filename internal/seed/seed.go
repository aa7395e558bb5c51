// Package seed derives per-file encryption seeds from ledger context and
// manages the owner secrets those derivations are keyed with.
package seed

import (
	"crypto/hmac"
	"crypto/sha256"
	"strconv"
)

// Derive computes the 32-byte encryption seed for one file version:
//
//	HMAC-SHA256(ownerSecret, blockHash || timestamp || fileID)
//
// with the timestamp rendered as a decimal string. Derivation is pure: the
// same inputs always yield the same seed, which is what lets an authorized
// party re-derive it instead of storing it. Binding the seed to the block
// hash means any ledger tampering (or a repair that changed the hash)
// silently produces a different seed, so decryption with stale context
// fails the plaintext-hash check instead of succeeding quietly.
func Derive(ownerSecret []byte, blockHash string, timestamp int64, fileID string) []byte {
	m := hmac.New(sha256.New, ownerSecret)
	m.Write([]byte(blockHash))
	m.Write([]byte(strconv.FormatInt(timestamp, 10)))
	m.Write([]byte(fileID))
	return m.Sum(nil)
}
