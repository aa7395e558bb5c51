// Package chc implements the contextual hash chain stream cipher.
//
// The cipher processes data in 32-byte blocks. For block i the keystream is
// HMAC-SHA256(state, bigEndian32(i)), the block is XORed with the keystream,
// and the state advances to HMAC-SHA256(state, ciphertextBlock). Because the
// state is chained over ciphertext, compromising a later state does not
// reveal earlier keystreams, and both sides evolve the state identically.
//
// CHC provides confidentiality only. There is no authentication tag:
// tampered ciphertext decrypts to garbage instead of being rejected, so
// callers must verify the recovered plaintext against a stored content hash.
package chc

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
)

// BlockSize is the cipher block size in bytes. The last block of a message
// may be shorter; output length always equals input length.
const BlockSize = 32

func hmacSHA256(key, msg []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(msg)
	return m.Sum(nil)
}

func xorBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// Encrypt encrypts plaintext under the given 32-byte seed. The seed
// initializes the cipher state and is not modified. Empty input yields
// empty output.
func Encrypt(plaintext, seed []byte) []byte {
	return process(plaintext, seed, true)
}

// Decrypt is the exact mirror of Encrypt: it regenerates the keystream from
// the same evolving state, recovering the plaintext. The state advances on
// the ciphertext block on both sides, which is what keeps the two state
// machines in lockstep.
func Decrypt(ciphertext, seed []byte) []byte {
	return process(ciphertext, seed, false)
}

func process(in, seed []byte, encrypting bool) []byte {
	state := make([]byte, len(seed))
	copy(state, seed)

	out := make([]byte, len(in))

	var counter [4]byte
	for i, off := uint32(0), 0; off < len(in); i, off = i+1, off+BlockSize {
		end := off + BlockSize
		if end > len(in) {
			end = len(in)
		}

		binary.BigEndian.PutUint32(counter[:], i)
		keystream := hmacSHA256(state, counter[:])

		xorBytes(out[off:end], in[off:end], keystream[:end-off])

		// state always advances on the ciphertext block
		cblock := out[off:end]
		if !encrypting {
			cblock = in[off:end]
		}
		state = hmacSHA256(state, cblock)
	}

	return out
}
