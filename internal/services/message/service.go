package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emmaarthur191/coastal-project-sub004/internal/crypto"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/frame"
)

var (
	// ErrNotConnected is returned when the socket dropped the outgoing frame.
	ErrNotConnected = errors.New("not connected; message not sent")
	// ErrOwnMessage is returned by Open for the echo of a message we sent.
	ErrOwnMessage = errors.New("message was sent by the local user")
)

// KeyProvider resolves the shared key for a peer. session.Service implements it.
type KeyProvider interface {
	Key(ctx context.Context, peer domain.UserID) (*crypto.SessionKey, error)
}

// Sender writes a frame to the thread socket. socket.Client implements it.
type Sender interface {
	Send(frame any) bool
}

// Service sends and opens encrypted chat messages for one user.
type Service struct {
	self domain.UserID
	keys KeyProvider
	out  Sender
	log  *zap.Logger
	now  func() time.Time
}

// New constructs a message Service.
func New(self domain.UserID, keys KeyProvider, out Sender, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		self: self,
		keys: keys,
		out:  out,
		log:  log.Named("message"),
		now:  time.Now,
	}
}

// Send encrypts plaintext for peer and writes it to thread. It returns the
// frame payload that was sent.
func (s *Service) Send(
	ctx context.Context,
	thread domain.ThreadID,
	peer domain.UserID,
	plaintext []byte,
) (frame.Message, error) {
	key, err := s.keys.Key(ctx, peer)
	if err != nil {
		return frame.Message{}, fmt.Errorf("session key for %s: %w", peer, err)
	}
	env, err := crypto.Encrypt(plaintext, key)
	if err != nil {
		return frame.Message{}, err
	}

	msg := frame.Message{
		ID:        uuid.NewString(),
		SenderID:  s.self,
		ThreadID:  thread,
		Content:   env.String(),
		Encrypted: true,
		CreatedAt: s.now().UTC(),
	}
	if !s.out.Send(frame.NewMessageFrame(msg)) {
		s.log.Warn("message dropped; socket not open", zap.String("thread", thread.String()))
		return frame.Message{}, ErrNotConnected
	}
	s.log.Debug("message sent", zap.String("id", msg.ID), zap.String("thread", thread.String()))
	return msg, nil
}

// Open decrypts an inbound new_message frame with the sender's key.
// Unencrypted messages pass through unchanged.
func (s *Service) Open(ctx context.Context, f frame.NewMessage) (domain.DecryptedMessage, error) {
	m := f.Message
	out := domain.DecryptedMessage{
		ID:     m.ID,
		Thread: m.ThreadID,
		From:   m.SenderID,
		SentAt: m.CreatedAt,
	}
	if !m.Encrypted {
		out.Plaintext = []byte(m.Content)
		return out, nil
	}
	if m.SenderID == "" {
		return domain.DecryptedMessage{}, errors.New("encrypted message without sender")
	}
	if m.SenderID == s.self {
		return domain.DecryptedMessage{}, ErrOwnMessage
	}

	env, err := crypto.ParseEnvelope(m.Content)
	if err != nil {
		return domain.DecryptedMessage{}, err
	}
	key, err := s.keys.Key(ctx, m.SenderID)
	if err != nil {
		return domain.DecryptedMessage{}, fmt.Errorf("session key for %s: %w", m.SenderID, err)
	}
	pt, err := crypto.Decrypt(env, key)
	if err != nil {
		s.log.Warn("message failed to decrypt", zap.String("id", m.ID), zap.String("from", m.SenderID.String()))
		return domain.DecryptedMessage{}, err
	}
	out.Plaintext = pt
	return out, nil
}
