package crypto_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/emmaarthur191/coastal-project-sub004/internal/crypto"
)

// makeKeyPair returns a fresh P-256 key pair.
func makeKeyPair(t *testing.T) *crypto.KeyPair {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	return kp
}

// sharedKey derives alice's key for bob over a fixed salt.
func sharedKey(t *testing.T, local, peer *crypto.KeyPair) *crypto.SessionKey {
	t.Helper()
	pub, err := crypto.ImportPublicKey(crypto.ExportPublicKey(peer))
	if err != nil {
		t.Fatalf("ImportPublicKey: %v", err)
	}
	k, err := crypto.DeriveSessionKey(local, pub, crypto.ConversationSalt("alice", "bob"))
	if err != nil {
		t.Fatalf("DeriveSessionKey: %v", err)
	}
	return k
}

func TestExportImportPublicKey(t *testing.T) {
	kp := makeKeyPair(t)
	raw := crypto.ExportPublicKey(kp)
	if len(raw) != 65 || raw[0] != 0x04 {
		t.Fatalf("want 65-byte uncompressed point, got %d bytes (prefix %#x)", len(raw), raw[0])
	}
	pub, err := crypto.ImportPublicKey(raw)
	if err != nil {
		t.Fatalf("ImportPublicKey: %v", err)
	}
	if !pub.Equal(kp.Public) {
		t.Fatal("imported key differs from original")
	}
}

func TestImportPublicKey_Malformed(t *testing.T) {
	for name, in := range map[string][]byte{
		"empty":     nil,
		"truncated": make([]byte, 33),
		"off-curve": append([]byte{0x04}, bytes.Repeat([]byte{0x01}, 64)...),
	} {
		_, err := crypto.ImportPublicKey(in)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !crypto.IsCryptoError(err) || !errors.Is(err, crypto.ErrMalformedKey) {
			t.Fatalf("%s: want crypto error wrapping ErrMalformedKey, got %v", name, err)
		}
	}
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	kp := makeKeyPair(t)
	restored, err := crypto.ImportPrivateKey(crypto.ExportPrivateKey(kp))
	if err != nil {
		t.Fatalf("ImportPrivateKey: %v", err)
	}
	if !restored.Public.Equal(kp.Public) {
		t.Fatal("restored public key differs")
	}
}

func TestDeriveSessionKey_Symmetric(t *testing.T) {
	alice := makeKeyPair(t)
	bob := makeKeyPair(t)

	ka := sharedKey(t, alice, bob)
	kb := sharedKey(t, bob, alice)
	if !ka.Equal(kb) {
		t.Fatal("alice and bob derived different keys")
	}
}

func TestConversationSalt_OrderIndependent(t *testing.T) {
	if !bytes.Equal(crypto.ConversationSalt("a", "b"), crypto.ConversationSalt("b", "a")) {
		t.Fatal("salt depends on argument order")
	}
	if bytes.Equal(crypto.ConversationSalt("a", "b"), crypto.ConversationSalt("a", "c")) {
		t.Fatal("different conversations share a salt")
	}
	if bytes.Equal(crypto.ConversationSalt("ab", "c"), crypto.ConversationSalt("a", "bc")) {
		t.Fatal("salt is ambiguous across id boundaries")
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	k := sharedKey(t, makeKeyPair(t), makeKeyPair(t))
	for _, msg := range [][]byte{
		{},
		[]byte("hi"),
		[]byte("loan #1042 approved, disburse Friday"),
		bytes.Repeat([]byte{0xff}, 4096),
	} {
		env, err := crypto.Encrypt(msg, k)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		parsed, err := crypto.ParseEnvelope(env.String())
		if err != nil {
			t.Fatalf("ParseEnvelope: %v", err)
		}
		pt, err := crypto.Decrypt(parsed, k)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if !bytes.Equal(pt, msg) {
			t.Fatalf("got %q, want %q", pt, msg)
		}
	}
}

func TestEncrypt_FreshIVEveryCall(t *testing.T) {
	k := sharedKey(t, makeKeyPair(t), makeKeyPair(t))
	seen := make(map[[crypto.IVBytes]byte]bool)
	var last []byte
	for i := 0; i < 64; i++ {
		env, err := crypto.Encrypt([]byte("same plaintext"), k)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if seen[env.IV] {
			t.Fatalf("IV reused on iteration %d", i)
		}
		seen[env.IV] = true
		if bytes.Equal(last, env.Ciphertext) {
			t.Fatalf("ciphertext repeated on iteration %d", i)
		}
		last = env.Ciphertext
	}
}

func TestDecrypt_TamperDetection(t *testing.T) {
	k := sharedKey(t, makeKeyPair(t), makeKeyPair(t))
	env, err := crypto.Encrypt([]byte("transfer 500 to account 77"), k)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	raw := env.Bytes()
	for i := 0; i < len(raw); i++ {
		for bit := 0; bit < 8; bit++ {
			mut := append([]byte(nil), raw...)
			mut[i] ^= 1 << bit
			bad, err := crypto.EnvelopeFromBytes(mut)
			if err != nil {
				t.Fatalf("EnvelopeFromBytes: %v", err)
			}
			pt, err := crypto.Decrypt(bad, k)
			if err == nil {
				t.Fatalf("byte %d bit %d: tampered envelope decrypted", i, bit)
			}
			if pt != nil {
				t.Fatalf("byte %d bit %d: plaintext returned with error", i, bit)
			}
			if !errors.Is(err, crypto.ErrAuthentication) {
				t.Fatalf("byte %d bit %d: want ErrAuthentication, got %v", i, bit, err)
			}
		}
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	k1 := sharedKey(t, makeKeyPair(t), makeKeyPair(t))
	k2 := sharedKey(t, makeKeyPair(t), makeKeyPair(t))
	env, err := crypto.Encrypt([]byte("payslip"), k1)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := crypto.Decrypt(env, k2); !crypto.IsCryptoError(err) {
		t.Fatalf("want crypto error, got %v", err)
	}
}

func TestParseEnvelope_Malformed(t *testing.T) {
	for _, in := range []string{"", "not base64!", crypto.B64(make([]byte, crypto.IVBytes+crypto.TagBytes-1))} {
		if _, err := crypto.ParseEnvelope(in); !errors.Is(err, crypto.ErrMalformedEnvelope) {
			t.Fatalf("%q: want ErrMalformedEnvelope, got %v", in, err)
		}
	}
}

func TestSessionKey_WipeDisablesUse(t *testing.T) {
	k := sharedKey(t, makeKeyPair(t), makeKeyPair(t))
	k.Wipe()
	if _, err := crypto.Encrypt([]byte("x"), k); !errors.Is(err, crypto.ErrKeyWiped) {
		t.Fatalf("want ErrKeyWiped, got %v", err)
	}
}

func TestFingerprint_GroupedAndStable(t *testing.T) {
	pub := crypto.ExportPublicKey(makeKeyPair(t))
	fp := crypto.Fingerprint(pub)
	if len(fp) != 24 || strings.Count(fp, " ") != 4 {
		t.Fatalf("unexpected fingerprint shape %q", fp)
	}
	if fp != crypto.Fingerprint(pub) {
		t.Fatal("fingerprint is not deterministic")
	}
}
