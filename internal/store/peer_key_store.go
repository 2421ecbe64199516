package store

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

// ErrPeerKeyMismatch is returned when a peer presents a key different from the stored one.
var ErrPeerKeyMismatch = errors.New("peer public key differs from the stored key")

// PeerKeyMemoryStore keeps peer public keys for the process lifetime.
type PeerKeyMemoryStore struct {
	mu   sync.RWMutex
	keys map[domain.UserID]domain.PublicKey
}

// NewPeerKeyMemoryStore returns an empty store.
func NewPeerKeyMemoryStore() *PeerKeyMemoryStore {
	return &PeerKeyMemoryStore{keys: make(map[domain.UserID]domain.PublicKey)}
}

// PutPeerKey stores key for peer. Storing the same key again is a no-op.
func (s *PeerKeyMemoryStore) PutPeerKey(peer domain.UserID, key domain.PublicKey) error {
	if peer == "" || len(key) == 0 {
		return errors.New("peer and key are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if have, ok := s.keys[peer]; ok {
		if bytes.Equal(have, key) {
			return nil
		}
		return fmt.Errorf("peer %q: %w", peer, ErrPeerKeyMismatch)
	}
	s.keys[peer] = append(domain.PublicKey(nil), key...)
	return nil
}

// PeerKey returns a copy of the stored key for peer.
func (s *PeerKeyMemoryStore) PeerKey(peer domain.UserID) (domain.PublicKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.keys[peer]
	if !ok {
		return nil, false
	}
	return append(domain.PublicKey(nil), k...), true
}

// Compile-time assertion that PeerKeyMemoryStore implements domain.PeerKeyStore.
var _ domain.PeerKeyStore = (*PeerKeyMemoryStore)(nil)
