package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

const idFilename = "identity.p256.enc"

// ErrNoIdentity is returned when no identity has been saved yet.
var ErrNoIdentity = errors.New("no identity found; run init first")

// IdentityFileStore persists the local key pair to disk.
type IdentityFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir}
}

// SaveIdentity writes the encrypted private key to disk.
func (s *IdentityFileStore) SaveIdentity(passphrase string, privateKey []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	N, r, p := scryptParamsDefault()
	ct, err := encrypt(passphrase, privateKey, N, r, p)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, idFilename), ct, 0o600)
}

// LoadIdentity reads and decrypts the private key.
func (s *IdentityFileStore) LoadIdentity(passphrase string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(filepath.Join(s.dir, idFilename))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNoIdentity
	}
	return decrypt(passphrase, b)
}

// Exists reports whether an identity file is present.
func (s *IdentityFileStore) Exists() bool {
	_, err := os.Stat(filepath.Join(s.dir, idFilename))
	return err == nil
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
