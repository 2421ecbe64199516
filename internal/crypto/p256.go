package crypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"fmt"

	"github.com/emmaarthur191/coastal-project-sub004/internal/util/memzero"
)

var curve = ecdh.P256()

// KeyPair is a P-256 ECDH key pair owned by the local user.
type KeyPair struct {
	Private *ecdh.PrivateKey
	Public  *ecdh.PublicKey
}

// GenerateKeyPair returns a fresh P-256 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fail("generate key pair", err)
	}
	return &KeyPair{Private: priv, Public: priv.PublicKey()}, nil
}

// ExportPublicKey returns the uncompressed SEC1 point of kp's public key.
func ExportPublicKey(kp *KeyPair) []byte {
	return kp.Public.Bytes()
}

// ImportPublicKey parses an uncompressed SEC1 P-256 point.
func ImportPublicKey(b []byte) (*ecdh.PublicKey, error) {
	pub, err := curve.NewPublicKey(b)
	if err != nil {
		return nil, fail("import public key", fmt.Errorf("%w: %v", ErrMalformedKey, err))
	}
	return pub, nil
}

// ExportPrivateKey returns the raw private scalar for local persistence only.
// Callers must wipe the returned slice once it has been sealed.
func ExportPrivateKey(kp *KeyPair) []byte {
	return kp.Private.Bytes()
}

// ImportPrivateKey rebuilds a key pair from ExportPrivateKey output.
func ImportPrivateKey(b []byte) (*KeyPair, error) {
	priv, err := curve.NewPrivateKey(b)
	if err != nil {
		return nil, fail("import private key", fmt.Errorf("%w: %v", ErrMalformedKey, err))
	}
	return &KeyPair{Private: priv, Public: priv.PublicKey()}, nil
}

// Wipe drops kp's key references. The ecdh package keeps its scalar
// unexported, so this is best-effort: the exported copy is zeroed and the
// pointers released for collection.
func (kp *KeyPair) Wipe() {
	if kp == nil || kp.Private == nil {
		return
	}
	raw := kp.Private.Bytes()
	memzero.Zero(raw)
	kp.Private = nil
	kp.Public = nil
}
