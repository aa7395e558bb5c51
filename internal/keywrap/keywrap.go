// Package keywrap binds encryption seeds to users and envelopes them under
// the vault master key for storage.
//
// The user key is a public function of username and file id; the XOR step
// alone grants no secrecy. The AES-GCM envelope under the master key is the
// sole confidentiality boundary, which is why the master key is a required
// argument on both Wrap and Unwrap rather than ambient state.
package keywrap

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/dstepanenko/chainvault/internal/common"
)

const nonceSize = 12

// UserKey derives the 32-byte per-user wrapping key:
// SHA-256(username ":" fileID). Deliberately recomputable by anyone who
// knows both strings; access control lives in the envelope, not here.
func UserKey(username, fileID string) []byte {
	sum := sha256.Sum256([]byte(username + ":" + fileID))
	return sum[:]
}

// Wrap XORs the seed with the user key and seals the result under the
// master key with AES-256-GCM. The returned envelope is nonce||ciphertext.
func Wrap(seedBytes, userKey, masterKey []byte) ([]byte, error) {
	if len(seedBytes) != common.SeedSize || len(userKey) != common.SeedSize {
		return nil, fmt.Errorf("wrap: seed and user key must be %d bytes", common.SeedSize)
	}

	mixed := xorBytes(seedBytes, userKey)
	defer common.WipeByteArray(mixed)

	aead, err := newGCM(masterKey)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("wrap: nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, mixed, nil), nil
}

// Unwrap opens the envelope under the master key and XORs with the user key
// to recover the seed. It fails closed: a wrong or missing master key, or a
// tampered envelope, yields common.ErrUnwrapFailure and never a seed.
func Unwrap(envelope, userKey, masterKey []byte) ([]byte, error) {
	if len(envelope) < nonceSize {
		return nil, fmt.Errorf("%w: envelope too short", common.ErrUnwrapFailure)
	}

	aead, err := newGCM(masterKey)
	if err != nil {
		return nil, err
	}

	mixed, err := aead.Open(nil, envelope[:nonceSize], envelope[nonceSize:], nil)
	if err != nil {
		return nil, common.ErrUnwrapFailure
	}
	defer common.WipeByteArray(mixed)

	if len(mixed) != common.SeedSize || len(userKey) != common.SeedSize {
		return nil, fmt.Errorf("%w: bad payload size", common.ErrUnwrapFailure)
	}

	return xorBytes(mixed, userKey), nil
}

// NewMasterKey generates a fresh 32-byte master key.
func NewMasterKey() []byte {
	return common.GenerateRandByteArray(common.SeedSize)
}

func newGCM(masterKey []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("%w: bad master key", common.ErrUnwrapFailure)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnwrapFailure, err)
	}
	return aead, nil
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}
