package message_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/emmaarthur191/coastal-project-sub004/internal/crypto"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/frame"
	"github.com/emmaarthur191/coastal-project-sub004/internal/services/message"
	"github.com/emmaarthur191/coastal-project-sub004/internal/services/session"
	"github.com/emmaarthur191/coastal-project-sub004/internal/store"
)

type captureSender struct {
	open   bool
	frames []any
}

func (c *captureSender) Send(f any) bool {
	if !c.open {
		return false
	}
	c.frames = append(c.frames, f)
	return true
}

type pair struct {
	alice, bob       *message.Service
	aliceOut, bobOut *captureSender
}

func newPair(t *testing.T) pair {
	t.Helper()
	akp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	bkp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	aPeers, bPeers := store.NewPeerKeyMemoryStore(), store.NewPeerKeyMemoryStore()
	require.NoError(t, aPeers.PutPeerKey("bob", crypto.ExportPublicKey(bkp)))
	require.NoError(t, bPeers.PutPeerKey("alice", crypto.ExportPublicKey(akp)))

	log := zaptest.NewLogger(t)
	aOut, bOut := &captureSender{open: true}, &captureSender{open: true}
	return pair{
		alice:    message.New("alice", session.New("alice", akp, aPeers, nil, log), aOut, log),
		bob:      message.New("bob", session.New("bob", bkp, bPeers, nil, log), bOut, log),
		aliceOut: aOut,
		bobOut:   bOut,
	}
}

func TestSendOpen_RoundTrip(t *testing.T) {
	p := newPair(t)
	ctx := context.Background()

	sent, err := p.alice.Send(ctx, "t1", "bob", []byte("balance is 1,204.50"))
	require.NoError(t, err)
	require.True(t, sent.Encrypted)
	require.NotContains(t, sent.Content, "1,204.50")
	require.Len(t, p.aliceOut.frames, 1)

	f := p.aliceOut.frames[0].(frame.NewMessage)
	require.Equal(t, frame.TypeNewMessage, f.Type)

	got, err := p.bob.Open(ctx, f)
	require.NoError(t, err)
	require.Equal(t, "balance is 1,204.50", string(got.Plaintext))
	require.Equal(t, domain.UserID("alice"), got.From)
	require.Equal(t, sent.ID, got.ID)
}

func TestSend_NotConnected(t *testing.T) {
	p := newPair(t)
	p.aliceOut.open = false
	_, err := p.alice.Send(context.Background(), "t1", "bob", []byte("x"))
	require.ErrorIs(t, err, message.ErrNotConnected)
}

func TestOpen_TamperedFailsClosed(t *testing.T) {
	p := newPair(t)
	ctx := context.Background()

	_, err := p.alice.Send(ctx, "t1", "bob", []byte("transfer approved"))
	require.NoError(t, err)
	f := p.aliceOut.frames[0].(frame.NewMessage)

	env, err := crypto.ParseEnvelope(f.Message.Content)
	require.NoError(t, err)
	env.Ciphertext[0] ^= 0x01
	f.Message.Content = env.String()

	got, err := p.bob.Open(ctx, f)
	require.Error(t, err)
	require.True(t, crypto.IsCryptoError(err))
	require.Nil(t, got.Plaintext)
}

func TestOpen_PlainAndOwnMessages(t *testing.T) {
	p := newPair(t)
	ctx := context.Background()

	plain := frame.NewMessageFrame(frame.Message{ID: "sys", SenderID: "system", Content: "thread created"})
	got, err := p.bob.Open(ctx, plain)
	require.NoError(t, err)
	require.Equal(t, "thread created", string(got.Plaintext))

	_, err = p.alice.Send(ctx, "t1", "bob", []byte("hi"))
	require.NoError(t, err)
	_, err = p.alice.Open(ctx, p.aliceOut.frames[0].(frame.NewMessage))
	require.True(t, errors.Is(err, message.ErrOwnMessage))
}

func TestOpen_UnknownSender(t *testing.T) {
	p := newPair(t)
	_, err := p.alice.Send(context.Background(), "t1", "bob", []byte("hi"))
	require.NoError(t, err)
	f := p.aliceOut.frames[0].(frame.NewMessage)
	f.Message.SenderID = "mallory"

	_, err = p.bob.Open(context.Background(), f)
	require.ErrorIs(t, err, session.ErrNoPeerKey)
}
