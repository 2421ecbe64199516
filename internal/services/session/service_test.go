package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/emmaarthur191/coastal-project-sub004/internal/crypto"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/services/session"
	"github.com/emmaarthur191/coastal-project-sub004/internal/store"
)

type fakeDirectory struct {
	keys    map[domain.UserID]domain.PublicKey
	fetches int
}

func (d *fakeDirectory) FetchPublicKey(_ context.Context, u domain.UserID) (domain.PublicKey, error) {
	d.fetches++
	k, ok := d.keys[u]
	if !ok {
		return nil, errors.New("not found")
	}
	return k, nil
}

func (d *fakeDirectory) PublishPublicKey(_ context.Context, u domain.UserID, k domain.PublicKey) error {
	d.keys[u] = k
	return nil
}

func newKeyPair(t *testing.T) *crypto.KeyPair {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return kp
}

func TestGetOrDerive_Idempotent(t *testing.T) {
	alice, bob := newKeyPair(t), newKeyPair(t)
	s := session.New("alice", alice, store.NewPeerKeyMemoryStore(), nil, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	got := make([]*crypto.SessionKey, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k, err := s.GetOrDerive("bob", bob.Public)
			if err != nil {
				t.Errorf("derive: %v", err)
				return
			}
			got[i] = k
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(got); i++ {
		if got[i] != got[0] {
			t.Fatal("expected the same cached key instance for every call")
		}
	}
}

func TestKey_SymmetricBetweenPeers(t *testing.T) {
	alice, bob := newKeyPair(t), newKeyPair(t)
	dir := &fakeDirectory{keys: map[domain.UserID]domain.PublicKey{
		"alice": crypto.ExportPublicKey(alice),
		"bob":   crypto.ExportPublicKey(bob),
	}}

	as := session.New("alice", alice, store.NewPeerKeyMemoryStore(), dir, zaptest.NewLogger(t))
	bs := session.New("bob", bob, store.NewPeerKeyMemoryStore(), dir, zaptest.NewLogger(t))

	ka, err := as.Key(context.Background(), "bob")
	if err != nil {
		t.Fatalf("alice key: %v", err)
	}
	kb, err := bs.Key(context.Background(), "alice")
	if err != nil {
		t.Fatalf("bob key: %v", err)
	}
	if !ka.Equal(kb) {
		t.Fatal("both sides must derive the same key")
	}

	env, err := crypto.Encrypt([]byte("hello"), ka)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	pt, err := crypto.Decrypt(env, kb)
	if err != nil || string(pt) != "hello" {
		t.Fatalf("decrypt: %q %v", pt, err)
	}
}

func TestKey_FetchesDirectoryOnlyOnFirstContact(t *testing.T) {
	alice, bob := newKeyPair(t), newKeyPair(t)
	dir := &fakeDirectory{keys: map[domain.UserID]domain.PublicKey{"bob": crypto.ExportPublicKey(bob)}}
	peers := store.NewPeerKeyMemoryStore()
	s := session.New("alice", alice, peers, dir, nil)

	for i := 0; i < 3; i++ {
		if _, err := s.Key(context.Background(), "bob"); err != nil {
			t.Fatalf("key: %v", err)
		}
	}
	if dir.fetches != 1 {
		t.Fatalf("directory fetched %d times, want 1", dir.fetches)
	}
	if _, ok := peers.PeerKey("bob"); !ok {
		t.Fatal("fetched key was not stored")
	}
}

func TestKey_UnknownPeer(t *testing.T) {
	s := session.New("alice", newKeyPair(t), store.NewPeerKeyMemoryStore(), nil, nil)
	if _, err := s.Key(context.Background(), "ghost"); !errors.Is(err, session.ErrNoPeerKey) {
		t.Fatalf("want ErrNoPeerKey, got %v", err)
	}
}

func TestClear(t *testing.T) {
	alice, bob := newKeyPair(t), newKeyPair(t)
	s := session.New("alice", alice, store.NewPeerKeyMemoryStore(), nil, nil)

	k, err := s.GetOrDerive("bob", bob.Public)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	s.Clear()
	s.Clear()

	if _, err := crypto.Encrypt([]byte("x"), k); !errors.Is(err, crypto.ErrKeyWiped) {
		t.Fatalf("cached key should be wiped, got %v", err)
	}
	if _, err := s.GetOrDerive("bob", bob.Public); !errors.Is(err, session.ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
	if _, err := s.PublicKey(); !errors.Is(err, session.ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
}

func TestClear_WhileEncrypting(t *testing.T) {
	alice, bob := newKeyPair(t), newKeyPair(t)
	s := session.New("alice", alice, store.NewPeerKeyMemoryStore(), nil, nil)
	k, err := s.GetOrDerive("bob", bob.Public)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				if _, err := crypto.Encrypt([]byte("ward round"), k); err != nil {
					if !errors.Is(err, crypto.ErrKeyWiped) {
						t.Errorf("encrypt: %v", err)
					}
					return
				}
			}
		}()
	}
	s.Clear()
	wg.Wait()

	if _, err := crypto.Encrypt([]byte("x"), k); !errors.Is(err, crypto.ErrKeyWiped) {
		t.Fatalf("want ErrKeyWiped after Clear, got %v", err)
	}
}

func TestClear_NothingDerived(t *testing.T) {
	s := session.New("alice", newKeyPair(t), store.NewPeerKeyMemoryStore(), nil, nil)
	s.Clear()
}
