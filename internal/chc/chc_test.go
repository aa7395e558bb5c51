package chc

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeed(t *testing.T) []byte {
	t.Helper()
	seed := make([]byte, 32)
	_, err := rand.Read(seed)
	require.NoError(t, err)
	return seed
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	seed := testSeed(t)

	sizes := []int{0, 1, 31, 32, 33, 64, 100, 1000, 4*BlockSize + 7}
	for _, n := range sizes {
		plaintext := make([]byte, n)
		_, err := rand.Read(plaintext)
		require.NoError(t, err)

		ciphertext := Encrypt(plaintext, seed)
		assert.Len(t, ciphertext, n, "size %d: output length must equal input length", n)

		recovered := Decrypt(ciphertext, seed)
		assert.Equal(t, plaintext, recovered, "size %d: round trip failed", n)
	}
}

func TestEncrypt_EmptyInput(t *testing.T) {
	out := Encrypt(nil, testSeed(t))
	assert.Empty(t, out)
}

func TestEncrypt_SeedSensitivity(t *testing.T) {
	plaintext := []byte("the same plaintext under two different seeds")

	c1 := Encrypt(plaintext, testSeed(t))
	c2 := Encrypt(plaintext, testSeed(t))

	assert.NotEqual(t, c1, c2)
}

func TestEncrypt_Deterministic(t *testing.T) {
	seed := testSeed(t)
	plaintext := []byte("same seed, same output")

	assert.Equal(t, Encrypt(plaintext, seed), Encrypt(plaintext, seed))
}

// Snapshot vectors pin the exact keystream schedule so a refactor cannot
// silently change the cipher and strand existing ciphertext.
func TestEncrypt_KnownVectors(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}

	tests := []struct {
		name      string
		plaintext []byte
		wantHex   string
	}{
		{
			name:      "sub-block message",
			plaintext: []byte("attack at dawn"),
			wantHex:   "c91ebfaaa1f0afc948a33c4c21c6",
		},
		{
			name:      "three blocks, last short",
			plaintext: bytes.Repeat([]byte{0xAA}, 70),
			wantHex: "02c06161683125029629f287fc02387a5ac5a4e2d75f8ddc2a1ac9f6938d496f" +
				"5f6e76f1b35358fb068e1b3305bd141d2204e732b59c8cde1af35a9263ef093d" +
				"84d6cbf1ec10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encrypt(tt.plaintext, seed)
			assert.Equal(t, tt.wantHex, hex.EncodeToString(got))
		})
	}
}

func TestEncrypt_DoesNotMutateSeed(t *testing.T) {
	seed := testSeed(t)
	orig := make([]byte, len(seed))
	copy(orig, seed)

	Encrypt(bytes.Repeat([]byte{1}, 100), seed)
	assert.Equal(t, orig, seed)
}

// A flipped ciphertext bit garbles that block and, because the key schedule
// is chained over ciphertext, every block after it. Earlier blocks survive.
func TestDecrypt_TamperedCiphertextGarblesTail(t *testing.T) {
	seed := testSeed(t)
	plaintext := bytes.Repeat([]byte("0123456789abcdef"), 8) // 4 blocks

	ciphertext := Encrypt(plaintext, seed)
	ciphertext[BlockSize+3] ^= 0x01 // corrupt block 1

	recovered := Decrypt(ciphertext, seed)

	assert.Equal(t, plaintext[:BlockSize], recovered[:BlockSize],
		"block before the corruption must decrypt cleanly")
	assert.NotEqual(t, plaintext[BlockSize:], recovered[BlockSize:],
		"corruption must garble the tail, not be silently accepted")
}
