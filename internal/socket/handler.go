package socket

import (
	"fmt"
	"time"

	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/frame"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/signal"
)

// Status is the connection lifecycle state reported to Handler.ConnectionState.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusOpen
	StatusClosed
	StatusReconnecting
	StatusGaveUp
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	case StatusReconnecting:
		return "reconnecting"
	case StatusGaveUp:
		return "gave_up"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ConnState describes a connection transition.
type ConnState struct {
	Status Status
	// Code is the websocket close code for StatusClosed.
	Code int
	// Attempt and Delay describe the scheduled retry for StatusReconnecting.
	Attempt int
	Delay   time.Duration
	Err     error
}

// Handler receives inbound frames by category. Methods run on the client's
// read goroutine and must not block for long.
type Handler interface {
	// Message receives new_message and every frame type with no dedicated method.
	Message(frame.Raw)
	Reaction(frame.Reaction)
	Typing(frame.Typing)
	Presence(frame.Presence)
	Signal(signal.Message)
	ConnectionState(ConnState)
}

// NopHandler ignores everything. Embed it to implement only some methods.
type NopHandler struct{}

func (NopHandler) Message(frame.Raw)         {}
func (NopHandler) Reaction(frame.Reaction)   {}
func (NopHandler) Typing(frame.Typing)       {}
func (NopHandler) Presence(frame.Presence)   {}
func (NopHandler) Signal(signal.Message)     {}
func (NopHandler) ConnectionState(ConnState) {}

var _ Handler = NopHandler{}
