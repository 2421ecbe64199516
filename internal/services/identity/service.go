package identity

import (
	"fmt"
	"unicode"

	"github.com/emmaarthur191/coastal-project-sub004/internal/crypto"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/util/memzero"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Service manages the local key pair using a backing store.
type Service struct {
	store domain.IdentityStore
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore) *Service { return &Service{store: s} }

// Generate creates a new key pair, saves it encrypted with the passphrase,
// and returns it together with the fingerprint of its public key.
func (s *Service) Generate(passphrase string) (*crypto.KeyPair, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return nil, "", ErrWeakPassphrase
	}

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, "", err
	}
	raw := crypto.ExportPrivateKey(kp)
	defer memzero.Zero(raw)

	if err := s.store.SaveIdentity(passphrase, raw); err != nil {
		return nil, "", fmt.Errorf("save identity: %w", err)
	}
	return kp, fingerprint(kp), nil
}

// Load decrypts and returns the local key pair.
func (s *Service) Load(passphrase string) (*crypto.KeyPair, error) {
	raw, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(raw)
	return crypto.ImportPrivateKey(raw)
}

// Fingerprint returns a short fingerprint of the local public key.
func (s *Service) Fingerprint(passphrase string) (domain.Fingerprint, error) {
	kp, err := s.Load(passphrase)
	if err != nil {
		return "", err
	}
	defer kp.Wipe()
	return fingerprint(kp), nil
}

func fingerprint(kp *crypto.KeyPair) domain.Fingerprint {
	return domain.Fingerprint(crypto.Fingerprint(crypto.ExportPublicKey(kp)))
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}
