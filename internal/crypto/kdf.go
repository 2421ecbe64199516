package crypto

import (
	"crypto/ecdh"
	"crypto/sha256"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"

	"github.com/emmaarthur191/coastal-project-sub004/internal/util/memzero"
)

const (
	// KeyBytes is the AES-256 key length.
	KeyBytes = 32

	saltLabel = "coastal/e2ee/v1/salt"
	keyInfo   = "coastal/e2ee/v1 aes-256-gcm"
)

// ConversationSalt returns the HKDF salt for the conversation between a and b.
// The ids are sorted so both sides compute the same value.
func ConversationSalt(a, b string) []byte {
	if b < a {
		a, b = b, a
	}
	h := sha256.New()
	h.Write([]byte(saltLabel))
	h.Write([]byte(a))
	h.Write([]byte{0})
	h.Write([]byte(b))
	return h.Sum(nil)
}

// DeriveSessionKey runs ECDH(local, peer) and expands the shared x-coordinate
// with HKDF-SHA256 into an AES-256-GCM key.
func DeriveSessionKey(local *KeyPair, peer *ecdh.PublicKey, salt []byte) (*SessionKey, error) {
	if local == nil || local.Private == nil {
		return nil, fail("derive", ErrKeyWiped)
	}
	if peer == nil {
		return nil, fail("derive", ErrMalformedKey)
	}
	shared, err := local.Private.ECDH(peer)
	if err != nil {
		return nil, fail("derive", err)
	}
	defer memzero.Zero(shared)

	key := make([]byte, KeyBytes)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, salt, []byte(keyInfo)), key); err != nil {
		memzero.Zero(key)
		return nil, fail("derive", err)
	}
	return &SessionKey{key: key}, nil
}

// SessionKey is a derived AES-256-GCM key shared with one peer. It may be
// wiped while other goroutines are encrypting with it.
type SessionKey struct {
	mu  sync.RWMutex
	key []byte
}

// NewSessionKey wraps raw key bytes. It is meant for tests and key import.
func NewSessionKey(raw []byte) (*SessionKey, error) {
	if len(raw) != KeyBytes {
		return nil, fail("session key", ErrMalformedKey)
	}
	return &SessionKey{key: append([]byte(nil), raw...)}, nil
}

// Equal reports whether k and other hold the same key material.
func (k *SessionKey) Equal(other *SessionKey) bool {
	if k == nil || other == nil {
		return false
	}
	a, b := k.bytes(), other.bytes()
	defer memzero.Zero(a, b)
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

// Wipe zeroes the key. Subsequent Encrypt/Decrypt calls fail with ErrKeyWiped.
func (k *SessionKey) Wipe() {
	if k == nil {
		return
	}
	k.mu.Lock()
	memzero.Zero(k.key)
	k.key = nil
	k.mu.Unlock()
}

// bytes returns a copy of the key, or nil once wiped.
func (k *SessionKey) bytes() []byte {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if len(k.key) == 0 {
		return nil
	}
	return append([]byte(nil), k.key...)
}
