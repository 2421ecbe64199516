package domain

import (
	interfaces "github.com/emmaarthur191/coastal-project-sub004/internal/domain/interfaces"
	types "github.com/emmaarthur191/coastal-project-sub004/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	UserID           = types.UserID
	ThreadID         = types.ThreadID
	CallID           = types.CallID
	CallType         = types.CallType
	Fingerprint      = types.Fingerprint
	PublicKey        = types.PublicKey
	User             = types.User
	DecryptedMessage = types.DecryptedMessage
)

const (
	CallTypeAudio = types.CallTypeAudio
	CallTypeVideo = types.CallTypeVideo
)

// ParseCallType converts s into a CallType.
var ParseCallType = types.ParseCallType

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityStore = interfaces.IdentityStore
	PeerKeyStore  = interfaces.PeerKeyStore
	KeyDirectory  = interfaces.KeyDirectory
	UserDirectory = interfaces.UserDirectory
)
