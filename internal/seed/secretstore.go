package seed

import (
	"sync"

	"github.com/dstepanenko/chainvault/internal/common"
	"golang.org/x/crypto/argon2"
)

// SecretStore supplies per-owner master secrets for seed derivation. The
// derivation algorithm is decoupled from the secret lifecycle: callers pick
// an in-memory map, a passphrase-derived store, or an external KMS adapter.
type SecretStore interface {
	// Get returns the secret for owner, or common.ErrNotFound.
	Get(owner string) ([]byte, error)

	// GetOrCreate returns the existing secret for owner or creates one.
	GetOrCreate(owner string) ([]byte, error)
}

// MemoryStore keeps owner secrets in process memory only, the way the
// reference deployment did. Secrets do not survive a restart; files
// encrypted under them stay recoverable through their wrapped seeds.
type MemoryStore struct {
	mu      sync.Mutex
	secrets map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string][]byte)}
}

func (s *MemoryStore) Get(owner string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	secret, ok := s.secrets[owner]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(secret), nil
}

func (s *MemoryStore) GetOrCreate(owner string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if secret, ok := s.secrets[owner]; ok {
		return clone(secret), nil
	}
	secret := common.GenerateRandByteArray(common.SeedSize)
	s.secrets[owner] = secret
	return clone(secret), nil
}

// PassphraseStore derives owner secrets from a single vault passphrase with
// argon2id, salted per owner. Deterministic, so secrets survive restarts
// without ever being persisted.
type PassphraseStore struct {
	passphrase []byte
}

func NewPassphraseStore(passphrase []byte) *PassphraseStore {
	return &PassphraseStore{passphrase: clone(passphrase)}
}

func (s *PassphraseStore) derive(owner string) []byte {
	salt := []byte("chainvault/owner/" + owner)
	return argon2.IDKey(s.passphrase, salt, 1, 64*1024, 4, common.SeedSize)
}

func (s *PassphraseStore) Get(owner string) ([]byte, error) {
	return s.derive(owner), nil
}

func (s *PassphraseStore) GetOrCreate(owner string) ([]byte, error) {
	return s.derive(owner), nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
