package identity_test

import (
	"errors"
	"testing"

	"github.com/emmaarthur191/coastal-project-sub004/internal/crypto"
	"github.com/emmaarthur191/coastal-project-sub004/internal/services/identity"
)

// memStore keeps the sealed identity in memory; sealing is the store's job.
type memStore struct {
	pass string
	raw  []byte
}

func (m *memStore) SaveIdentity(pass string, raw []byte) error {
	m.pass = pass
	m.raw = append([]byte(nil), raw...)
	return nil
}

func (m *memStore) LoadIdentity(pass string) ([]byte, error) {
	if m.raw == nil {
		return nil, errors.New("missing")
	}
	if pass != m.pass {
		return nil, errors.New("wrong passphrase")
	}
	return append([]byte(nil), m.raw...), nil
}

const strongPass = "Correct-Horse-9"

func TestGenerate_WeakPassphrase(t *testing.T) {
	svc := identity.New(&memStore{})
	for _, p := range []string{"short", "alllowercase123!", "NoDigitsHere!!", "NoSymbols12345"} {
		if _, _, err := svc.Generate(p); !errors.Is(err, identity.ErrWeakPassphrase) {
			t.Fatalf("passphrase %q: want ErrWeakPassphrase, got %v", p, err)
		}
	}
}

func TestGenerate_LoadRoundTrip(t *testing.T) {
	st := &memStore{}
	svc := identity.New(st)

	kp, fp, err := svc.Generate(strongPass)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(fp) != 20 {
		t.Fatalf("fingerprint length = %d, want 20", len(fp))
	}

	loaded, err := svc.Load(strongPass)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Public.Equal(kp.Public) {
		t.Fatal("loaded public key differs from generated one")
	}

	again, err := svc.Fingerprint(strongPass)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if again != fp {
		t.Fatalf("fingerprint changed: %s vs %s", again, fp)
	}
	if string(fp) != crypto.Fingerprint(crypto.ExportPublicKey(kp)) {
		t.Fatal("fingerprint does not match public key")
	}
}

func TestLoad_WrongPassphrase(t *testing.T) {
	svc := identity.New(&memStore{})
	if _, _, err := svc.Generate(strongPass); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.Load("Wrong-Horse-9"); err == nil {
		t.Fatal("expected error for wrong passphrase")
	}
}
