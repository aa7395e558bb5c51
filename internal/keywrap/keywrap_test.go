package keywrap

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/dstepanenko/chainvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserKey_Deterministic(t *testing.T) {
	k1 := UserKey("alice", "file_0123456789ab")
	k2 := UserKey("alice", "file_0123456789ab")
	require.Equal(t, k1, k2)
	assert.Len(t, k1, common.SeedSize)

	assert.Equal(t,
		"ffcfffcd1ba6125be464492cf49f44cb581b9174b5de76ac86a4e62932ad504c",
		hex.EncodeToString(k1))
}

func TestUserKey_SensitiveToUserAndFile(t *testing.T) {
	base := UserKey("alice", "file_a")
	assert.NotEqual(t, base, UserKey("bob", "file_a"))
	assert.NotEqual(t, base, UserKey("alice", "file_b"))
	// the separator prevents ("ab","c") / ("a","bc") collisions
	assert.NotEqual(t, UserKey("ab", "c"), UserKey("a", "bc"))
}

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	seed := common.GenerateRandByteArray(common.SeedSize)
	userKey := UserKey("bob", "file_0123456789ab")
	masterKey := NewMasterKey()

	envelope, err := Wrap(seed, userKey, masterKey)
	require.NoError(t, err)
	assert.NotContains(t, string(envelope), string(seed))

	recovered, err := Unwrap(envelope, userKey, masterKey)
	require.NoError(t, err)
	assert.Equal(t, seed, recovered)
}

func TestWrap_FreshNoncePerCall(t *testing.T) {
	seed := common.GenerateRandByteArray(common.SeedSize)
	userKey := UserKey("bob", "file_x")
	masterKey := NewMasterKey()

	e1, err := Wrap(seed, userKey, masterKey)
	require.NoError(t, err)
	e2, err := Wrap(seed, userKey, masterKey)
	require.NoError(t, err)

	assert.NotEqual(t, e1, e2)
}

func TestUnwrap_WrongMasterKeyFailsClosed(t *testing.T) {
	seed := common.GenerateRandByteArray(common.SeedSize)
	userKey := UserKey("bob", "file_x")

	envelope, err := Wrap(seed, userKey, NewMasterKey())
	require.NoError(t, err)

	got, err := Unwrap(envelope, userKey, NewMasterKey())
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, common.ErrUnwrapFailure))
}

func TestUnwrap_TamperedEnvelopeFailsClosed(t *testing.T) {
	seed := common.GenerateRandByteArray(common.SeedSize)
	userKey := UserKey("bob", "file_x")
	masterKey := NewMasterKey()

	envelope, err := Wrap(seed, userKey, masterKey)
	require.NoError(t, err)
	envelope[len(envelope)-1] ^= 0x01

	got, err := Unwrap(envelope, userKey, masterKey)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, common.ErrUnwrapFailure))
}

func TestUnwrap_TruncatedEnvelope(t *testing.T) {
	_, err := Unwrap([]byte{1, 2, 3}, UserKey("u", "f"), NewMasterKey())
	assert.True(t, errors.Is(err, common.ErrUnwrapFailure))
}

func TestUnwrap_WrongUserKeyYieldsWrongSeed(t *testing.T) {
	// The envelope authenticates the master key, not the user key: a valid
	// envelope opened with the wrong user key recovers a different value.
	// That value is useless as a CHC seed, and the plaintext-hash check in
	// the service layer is what catches it.
	seed := common.GenerateRandByteArray(common.SeedSize)
	masterKey := NewMasterKey()

	envelope, err := Wrap(seed, UserKey("bob", "file_x"), masterKey)
	require.NoError(t, err)

	got, err := Unwrap(envelope, UserKey("eve", "file_x"), masterKey)
	require.NoError(t, err)
	assert.NotEqual(t, seed, got)
}

func TestWrap_RejectsBadSizes(t *testing.T) {
	masterKey := NewMasterKey()
	_, err := Wrap([]byte("short"), UserKey("u", "f"), masterKey)
	assert.Error(t, err)

	_, err = Wrap(common.GenerateRandByteArray(common.SeedSize), []byte("short"), masterKey)
	assert.Error(t, err)
}
