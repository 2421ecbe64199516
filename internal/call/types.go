package call

import (
	"fmt"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

// State is the call lifecycle state.
type State int

const (
	StateInitializing State = iota
	StateCalling
	StateConnected
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateCalling:
		return "calling"
	case StateConnected:
		return "connected"
	case StateEnded:
		return "ended"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session describes the call being managed.
type Session struct {
	ID           domain.CallID
	Type         domain.CallType
	Participants []domain.User
	IsInitiator  bool
}

// EndReason records why a call ended.
type EndReason string

const (
	ReasonHangup      EndReason = "hangup"
	ReasonClosed      EndReason = "closed"
	ReasonMediaAccess EndReason = "media_access"
	ReasonPoolEmpty   EndReason = "pool_empty"
)

// NoticeKind classifies user-facing notices.
type NoticeKind int

const (
	NoticeMediaAccess NoticeKind = iota + 1
	NoticeBusy
	NoticePeerFailed
)

// Notice is a user-facing event that does not change the call state by itself.
type Notice struct {
	Kind        NoticeKind
	Participant domain.UserID
	Err         error
}

// Text renders the notice for display.
func (n Notice) Text() string {
	switch n.Kind {
	case NoticeMediaAccess:
		return "Could not access camera or microphone. Check permissions and try again."
	case NoticeBusy:
		return fmt.Sprintf("%s is busy on another call.", n.Participant)
	case NoticePeerFailed:
		return fmt.Sprintf("Connection to %s was lost.", n.Participant)
	}
	return "call notice"
}

// Observer receives call events. Methods are never called with internal
// locks held.
type Observer interface {
	StateChanged(State)
	RemoteTrack(participant domain.UserID, track RemoteTrack)
	ParticipantLeft(participant domain.UserID)
	Notice(Notice)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) StateChanged(State)                    {}
func (NopObserver) RemoteTrack(domain.UserID, RemoteTrack) {}
func (NopObserver) ParticipantLeft(domain.UserID)         {}
func (NopObserver) Notice(Notice)                         {}

var _ Observer = NopObserver{}
