package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
)

// Encrypt seals plaintext under key with a fresh random IV.
func Encrypt(plaintext []byte, key *SessionKey) (Envelope, error) {
	aead, err := newGCM(key)
	if err != nil {
		return Envelope{}, fail("encrypt", err)
	}
	var env Envelope
	if _, err := rand.Read(env.IV[:]); err != nil {
		return Envelope{}, fail("encrypt", err)
	}
	sealed := aead.Seal(nil, env.IV[:], plaintext, nil)
	split := len(sealed) - TagBytes
	env.Ciphertext = sealed[:split:split]
	copy(env.Tag[:], sealed[split:])
	return env, nil
}

// Decrypt opens env with key. Any tampering yields ErrAuthentication and no plaintext.
func Decrypt(env Envelope, key *SessionKey) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, fail("decrypt", err)
	}
	sealed := make([]byte, 0, len(env.Ciphertext)+TagBytes)
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.Tag[:]...)
	pt, err := aead.Open(nil, env.IV[:], sealed, nil)
	if err != nil {
		return nil, fail("decrypt", ErrAuthentication)
	}
	return pt, nil
}

func newGCM(key *SessionKey) (cipher.AEAD, error) {
	if key == nil {
		return nil, ErrKeyWiped
	}
	// The cipher expands its own copy of the key, so the lock is only held
	// while the schedule is built.
	key.mu.RLock()
	if len(key.key) == 0 {
		key.mu.RUnlock()
		return nil, ErrKeyWiped
	}
	block, err := aes.NewCipher(key.key)
	key.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if aead.NonceSize() != IVBytes || aead.Overhead() != TagBytes {
		return nil, errors.New("unexpected gcm parameters")
	}
	return aead, nil
}
