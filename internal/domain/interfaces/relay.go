package interfaces

import (
	"context"

	domaintypes "github.com/emmaarthur191/coastal-project-sub004/internal/domain/types"
)

// KeyDirectory is the REST key directory used on first contact with a peer.
type KeyDirectory interface {
	FetchPublicKey(ctx context.Context, user domaintypes.UserID) (domaintypes.PublicKey, error)
	PublishPublicKey(ctx context.Context, user domaintypes.UserID, key domaintypes.PublicKey) error
}

// UserDirectory resolves participant display data.
type UserDirectory interface {
	FetchUser(ctx context.Context, user domaintypes.UserID) (domaintypes.User, error)
}
