package call

import "errors"

var (
	// ErrMediaAccess wraps failures to acquire local camera or microphone.
	ErrMediaAccess = errors.New("local media unavailable")
	// ErrCallEnded is returned by operations on a call that has ended.
	ErrCallEnded = errors.New("call has ended")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("call already started")
	// ErrNoParticipants is returned when an initiator has nobody to call.
	ErrNoParticipants = errors.New("call has no participants")
)
