package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"github.com/emmaarthur191/coastal-project-sub004/internal/util/memzero"
)

const (
	// Version of the sealed key file written by this package.
	keystoreFormatVersion = 1
	keystoreLabel         = "coastal/identity"
)

// errWrongPassphrase is returned when the passphrase is incorrect or the file was modified.
var errWrongPassphrase = errors.New("wrong passphrase or corrupted identity")

// sealedKey is the on-disk JSON structure holding the ciphertext and KDF parameters.
type sealedKey struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	Nonce  []byte `json:"nonce"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

// encrypt derives a key from passphrase and seals raw into a JSON document.
func encrypt(passphrase string, raw []byte, N, r, p int) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sealedKey{
		V:      keystoreFormatVersion,
		Salt:   salt,
		Nonce:  nonce,
		N:      N,
		R:      r,
		P:      p,
		Cipher: aead.Seal(nil, nonce, raw, additionalData(salt)),
	})
}

// decrypt opens the JSON document using a key derived from passphrase.
func decrypt(passphrase string, b []byte) ([]byte, error) {
	var sk sealedKey
	if err := json.Unmarshal(b, &sk); err != nil {
		return nil, err
	}
	if sk.V != keystoreFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", sk.V)
	}
	if len(sk.Nonce) != chacha20poly1305.NonceSize {
		return nil, errWrongPassphrase
	}

	key, err := scrypt.Key([]byte(passphrase), sk.Salt, sk.N, sk.R, sk.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, sk.Nonce, sk.Cipher, additionalData(sk.Salt))
	if err != nil {
		return nil, errWrongPassphrase
	}
	return pt, nil
}

func additionalData(salt []byte) []byte {
	return append([]byte(keystoreLabel), salt...)
}

// Tunables for scrypt key derivation. Tests lower them through scryptParams.
func scryptParamsDefault() (N, r, p int) { return scryptParams() }

var scryptParams = func() (N, r, p int) { return 1 << 15, 8, 1 }
