package signal

import (
	"errors"

	"github.com/pion/webrtc/v4"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

// Kind is the frame type discriminator of a signal.
type Kind string

const (
	KindOffer     Kind = "call_offer"
	KindAnswer    Kind = "call_answer"
	KindCandidate Kind = "new_ice_candidate"
	KindEnd       Kind = "call_end"
	KindBusy      Kind = "call_busy"
)

var (
	// ErrUnknownKind is returned by Decode for a type that is not a signal.
	ErrUnknownKind = errors.New("unknown signal kind")
	// ErrMalformed is returned by Decode when a signal lacks required fields.
	ErrMalformed = errors.New("malformed signal")
)

// IsSignal reports whether a frame type belongs to the signaling union.
func IsSignal(frameType string) bool {
	switch Kind(frameType) {
	case KindOffer, KindAnswer, KindCandidate, KindEnd, KindBusy:
		return true
	}
	return false
}

// Header is carried by every signal.
type Header struct {
	SenderID domain.UserID `json:"sender_id"`
	TargetID domain.UserID `json:"target_user_id"`
	CallID   domain.CallID `json:"call_id,omitempty"`
}

// Head returns the header.
func (h Header) Head() Header { return h }

// Message is implemented only by the signal types in this package.
type Message interface {
	Kind() Kind
	Head() Header
	Accept(v Visitor) error
	sealed()
}

// Visitor handles every signal kind.
type Visitor interface {
	VisitOffer(Offer) error
	VisitAnswer(Answer) error
	VisitCandidate(Candidate) error
	VisitEnd(End) error
	VisitBusy(Busy) error
}

// Offer starts negotiation with the target.
type Offer struct {
	Header
	SDP      webrtc.SessionDescription `json:"offer"`
	CallType domain.CallType           `json:"call_type,omitempty"`
}

// Answer completes negotiation started by an Offer.
type Answer struct {
	Header
	SDP webrtc.SessionDescription `json:"answer"`
}

// Candidate carries one trickled ICE candidate.
type Candidate struct {
	Header
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// End tells the target the sender left the call.
type End struct {
	Header
}

// Busy tells the target the sender is already in another call.
type Busy struct {
	Header
}

func (Offer) Kind() Kind     { return KindOffer }
func (Answer) Kind() Kind    { return KindAnswer }
func (Candidate) Kind() Kind { return KindCandidate }
func (End) Kind() Kind       { return KindEnd }
func (Busy) Kind() Kind      { return KindBusy }

func (m Offer) Accept(v Visitor) error     { return v.VisitOffer(m) }
func (m Answer) Accept(v Visitor) error    { return v.VisitAnswer(m) }
func (m Candidate) Accept(v Visitor) error { return v.VisitCandidate(m) }
func (m End) Accept(v Visitor) error       { return v.VisitEnd(m) }
func (m Busy) Accept(v Visitor) error      { return v.VisitBusy(m) }

func (Offer) sealed()     {}
func (Answer) sealed()    {}
func (Candidate) sealed() {}
func (End) sealed()       {}
func (Busy) sealed()      {}
