// Package frame defines the typed JSON chat and heartbeat frames.
package frame

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

// Frame type discriminators.
const (
	TypeNewMessage      = "new_message"
	TypeReactionAdded   = "reaction_added"
	TypeReactionRemoved = "reaction_removed"
	TypeTypingStart     = "typing_start"
	TypeTypingStop      = "typing_stop"
	TypePresenceUpdate  = "presence_update"
	TypePing            = "ping"
	TypePong            = "pong"
)

// ErrNoType is returned when a frame has no "type" field.
var ErrNoType = errors.New("frame has no type")

// Raw is an inbound frame whose payload has not been decoded yet.
type Raw struct {
	Type string
	Data json.RawMessage
}

// Peek extracts the type discriminator from data.
func Peek(data []byte) (Raw, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Raw{}, fmt.Errorf("decode frame: %w", err)
	}
	if head.Type == "" {
		return Raw{}, ErrNoType
	}
	return Raw{Type: head.Type, Data: data}, nil
}

// Decode unmarshals the frame payload into v.
func (r Raw) Decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode %s frame: %w", r.Type, err)
	}
	return nil
}

// NewMessage decodes r as a new_message frame.
func (r Raw) NewMessage() (NewMessage, error) {
	var m NewMessage
	if r.Type != TypeNewMessage {
		return m, fmt.Errorf("frame type %q is not %s", r.Type, TypeNewMessage)
	}
	err := r.Decode(&m)
	return m, err
}

// Message is a chat message as carried on the wire. When Encrypted is set,
// Content holds the base64 envelope.
type Message struct {
	ID        string          `json:"id"`
	SenderID  domain.UserID   `json:"sender_id"`
	ThreadID  domain.ThreadID `json:"thread_id"`
	Content   string          `json:"content"`
	Encrypted bool            `json:"encrypted"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewMessage announces a chat message.
type NewMessage struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}

// NewMessageFrame wraps m.
func NewMessageFrame(m Message) NewMessage {
	return NewMessage{Type: TypeNewMessage, Message: m}
}

// Reaction is reaction_added or reaction_removed.
type Reaction struct {
	Type      string        `json:"type"`
	MessageID string        `json:"message_id"`
	UserID    domain.UserID `json:"user_id"`
	Emoji     string        `json:"emoji"`
}

// Added reports whether the reaction was added rather than removed.
func (r Reaction) Added() bool { return r.Type == TypeReactionAdded }

// Typing is typing_start or typing_stop.
type Typing struct {
	Type     string          `json:"type"`
	ThreadID domain.ThreadID `json:"thread_id,omitempty"`
	UserID   domain.UserID   `json:"user_id"`
}

// Active reports whether the user started typing.
func (t Typing) Active() bool { return t.Type == TypeTypingStart }

// TypingFrame builds a typing frame for user.
func TypingFrame(thread domain.ThreadID, user domain.UserID, active bool) Typing {
	typ := TypeTypingStop
	if active {
		typ = TypeTypingStart
	}
	return Typing{Type: typ, ThreadID: thread, UserID: user}
}

// Presence is presence_update.
type Presence struct {
	Type     string        `json:"type"`
	UserID   domain.UserID `json:"user_id"`
	Status   string        `json:"status"`
	LastSeen *time.Time    `json:"last_seen,omitempty"`
}

// Heartbeat is a ping or pong frame.
type Heartbeat struct {
	Type string `json:"type"`
}

// Ping returns the heartbeat frame sent by clients.
func Ping() Heartbeat { return Heartbeat{Type: TypePing} }

// Pong returns the heartbeat acknowledgement.
func Pong() Heartbeat { return Heartbeat{Type: TypePong} }
