package session

import (
	"context"
	"crypto/ecdh"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/emmaarthur191/coastal-project-sub004/internal/crypto"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

var (
	// ErrClosed is returned once Clear has wiped the session.
	ErrClosed = errors.New("session cleared")
	// ErrNoPeerKey indicates neither the local store nor the directory knows the peer's key.
	ErrNoPeerKey = errors.New("no public key for peer")
)

// Service derives and caches shared secrets for the local user.
type Service struct {
	self  domain.UserID
	peers domain.PeerKeyStore
	dir   domain.KeyDirectory
	log   *zap.Logger

	mu     sync.Mutex
	local  *crypto.KeyPair
	keys   map[domain.UserID]*crypto.SessionKey
	closed bool
}

// New returns a Service for self owning the local key pair. dir may be nil,
// in which case only keys already in peers can be used.
func New(
	self domain.UserID,
	local *crypto.KeyPair,
	peers domain.PeerKeyStore,
	dir domain.KeyDirectory,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		self:  self,
		local: local,
		peers: peers,
		dir:   dir,
		log:   log.Named("session"),
		keys:  make(map[domain.UserID]*crypto.SessionKey),
	}
}

// Self returns the user this session belongs to.
func (s *Service) Self() domain.UserID { return s.self }

// PublicKey returns the exported local public key.
func (s *Service) PublicKey() (domain.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return crypto.ExportPublicKey(s.local), nil
}

// GetOrDerive returns the cached key for peer, deriving it from peerPub on
// first use. Derivations are serialized so each peer is derived exactly once.
func (s *Service) GetOrDerive(peer domain.UserID, peerPub *ecdh.PublicKey) (*crypto.SessionKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if k, ok := s.keys[peer]; ok {
		return k, nil
	}
	k, err := crypto.DeriveSessionKey(s.local, peerPub, crypto.ConversationSalt(s.self.String(), peer.String()))
	if err != nil {
		return nil, err
	}
	s.keys[peer] = k
	s.log.Debug("derived session key", zap.String("peer", peer.String()))
	return k, nil
}

// Key resolves peer's public key, fetching it from the directory on first
// contact, and returns the shared key.
func (s *Service) Key(ctx context.Context, peer domain.UserID) (*crypto.SessionKey, error) {
	if k, ok := s.cached(peer); ok {
		return k, nil
	}

	raw, ok := s.peers.PeerKey(peer)
	if !ok {
		if s.dir == nil {
			return nil, fmt.Errorf("%s: %w", peer, ErrNoPeerKey)
		}
		fetched, err := s.dir.FetchPublicKey(ctx, peer)
		if err != nil {
			return nil, fmt.Errorf("fetch public key for %s: %w", peer, err)
		}
		if len(fetched) == 0 {
			return nil, fmt.Errorf("%s: %w", peer, ErrNoPeerKey)
		}
		if err := s.peers.PutPeerKey(peer, fetched); err != nil {
			return nil, err
		}
		raw = fetched
	}

	pub, err := crypto.ImportPublicKey(raw)
	if err != nil {
		return nil, err
	}
	return s.GetOrDerive(peer, pub)
}

func (s *Service) cached(peer domain.UserID) (*crypto.SessionKey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	k, ok := s.keys[peer]
	return k, ok
}

// Clear wipes every cached key and the local key pair. It is safe to call
// more than once and when nothing was derived.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for peer, k := range s.keys {
		k.Wipe()
		delete(s.keys, peer)
	}
	s.local.Wipe()
	if !s.closed {
		s.log.Debug("session cleared")
	}
	s.closed = true
}
