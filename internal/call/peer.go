package call

import (
	"context"

	"github.com/pion/webrtc/v4"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

// SignalSender delivers outbound signals. socket.Client satisfies it.
type SignalSender interface {
	Send(frame any) bool
}

// LocalMedia is the set of captured local tracks shared by every peer.
type LocalMedia interface {
	Tracks() []webrtc.TrackLocal
	// Stop releases the capture devices. It must be idempotent.
	Stop()
}

// MediaSource acquires local media. Acquire may block, e.g. on a permission
// prompt, and must return when ctx is cancelled.
type MediaSource interface {
	Acquire(ctx context.Context, t domain.CallType) (LocalMedia, error)
}

// RemoteTrack is the subset of *webrtc.TrackRemote the manager needs.
type RemoteTrack interface {
	ID() string
	StreamID() string
	Kind() webrtc.RTPCodecType
}

// PeerEvents are the callbacks a Peer raises.
type PeerEvents struct {
	OnICECandidate func(webrtc.ICECandidateInit)
	OnStateChange  func(webrtc.PeerConnectionState)
	OnTrack        func(RemoteTrack)
}

// Peer is one peer-to-peer media connection.
type Peer interface {
	// CreateOffer creates an offer and applies it as the local description.
	CreateOffer() (webrtc.SessionDescription, error)
	// CreateAnswer applies offer as the remote description, then creates and
	// applies the local answer.
	CreateAnswer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error)
	SetAnswer(answer webrtc.SessionDescription) error
	AddICECandidate(webrtc.ICECandidateInit) error
	Close() error
}

// PeerConnector opens a Peer to participant carrying the local media.
type PeerConnector interface {
	Connect(participant domain.UserID, media LocalMedia, ev PeerEvents) (Peer, error)
}
