package seed

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/dstepanenko/chainvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_Deterministic(t *testing.T) {
	secret := bytes.Repeat([]byte{0x42}, 32)

	s1 := Derive(secret, "deadbeef", 1700000000, "file_0123456789ab")
	s2 := Derive(secret, "deadbeef", 1700000000, "file_0123456789ab")

	require.Equal(t, s1, s2)
	assert.Len(t, s1, common.SeedSize)

	// snapshot so the derivation cannot drift between releases
	assert.Equal(t,
		"4c8bc22bd7334c3376cc055c58a0ff701e54d93d04712016105d533a127153f2",
		hex.EncodeToString(s1))
}

func TestDerive_SensitiveToEveryInput(t *testing.T) {
	secret := bytes.Repeat([]byte{0x42}, 32)
	base := Derive(secret, "deadbeef", 1700000000, "file_0123456789ab")

	other := bytes.Repeat([]byte{0x43}, 32)

	tests := []struct {
		name string
		got  []byte
	}{
		{"different secret", Derive(other, "deadbeef", 1700000000, "file_0123456789ab")},
		{"different block hash", Derive(secret, "deadbeee", 1700000000, "file_0123456789ab")},
		{"different timestamp", Derive(secret, "deadbeef", 1700000001, "file_0123456789ab")},
		{"different file id", Derive(secret, "deadbeef", 1700000000, "file_0123456789ac")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, tt.got)
		})
	}
}

func TestMemoryStore_GetOrCreate(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get("alice")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	s1, err := store.GetOrCreate("alice")
	require.NoError(t, err)
	require.Len(t, s1, common.SeedSize)

	s2, err := store.GetOrCreate("alice")
	require.NoError(t, err)
	assert.Equal(t, s1, s2, "secret must be stable per owner")

	s3, err := store.GetOrCreate("bob")
	require.NoError(t, err)
	assert.NotEqual(t, s1, s3, "secrets must differ between owners")

	got, err := store.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, s1, got)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()

	s1, err := store.GetOrCreate("alice")
	require.NoError(t, err)

	common.WipeByteArray(s1) // caller wiping its copy must not hurt the store

	s2, err := store.Get("alice")
	require.NoError(t, err)
	assert.NotEqual(t, make([]byte, common.SeedSize), s2)
}

func TestPassphraseStore_DeterministicPerOwner(t *testing.T) {
	store := NewPassphraseStore([]byte("correct horse battery staple"))

	a1, err := store.GetOrCreate("alice")
	require.NoError(t, err)
	a2, err := store.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, a1, a2)

	b, err := store.Get("bob")
	require.NoError(t, err)
	assert.NotEqual(t, a1, b)

	other := NewPassphraseStore([]byte("wrong passphrase"))
	a3, err := other.Get("alice")
	require.NoError(t, err)
	assert.NotEqual(t, a1, a3)
}
