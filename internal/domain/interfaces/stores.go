package interfaces

import domaintypes "github.com/emmaarthur191/coastal-project-sub004/internal/domain/types"

// IdentityStore persists the local exported key pair, encrypted at rest.
type IdentityStore interface {
	SaveIdentity(passphrase string, privateKey []byte) error
	LoadIdentity(passphrase string) ([]byte, error)
}

// PeerKeyStore maps peers to their public keys. Entries are immutable once stored.
type PeerKeyStore interface {
	PutPeerKey(peer domaintypes.UserID, key domaintypes.PublicKey) error
	PeerKey(peer domaintypes.UserID) (domaintypes.PublicKey, bool)
}
