package rtc_test

import (
	"context"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/emmaarthur191/coastal-project-sub004/internal/call"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/signal"
	"github.com/emmaarthur191/coastal-project-sub004/internal/rtc"
)

func TestSyntheticMedia(t *testing.T) {
	src := rtc.NewSyntheticMedia()

	audio, err := src.Acquire(context.Background(), domain.CallTypeAudio)
	require.NoError(t, err)
	require.Len(t, audio.Tracks(), 1)
	require.Equal(t, webrtc.RTPCodecTypeAudio, audio.Tracks()[0].Kind())
	audio.Stop()
	audio.Stop()
	require.True(t, audio.(*rtc.LocalTracks).Stopped())

	video, err := src.Acquire(context.Background(), domain.CallTypeVideo)
	require.NoError(t, err)
	defer video.Stop()
	tracks := video.Tracks()
	require.Len(t, tracks, 2)
	require.Equal(t, webrtc.RTPCodecTypeVideo, tracks[1].Kind())
	require.Equal(t, tracks[0].StreamID(), tracks[1].StreamID())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Acquire(ctx, domain.CallTypeAudio)
	require.Error(t, err)
}

func TestConnector_RejectsWrongDescriptionType(t *testing.T) {
	c, err := rtc.NewConnector(rtc.Config{STUNServers: []string{}, Log: zaptest.NewLogger(t)})
	require.NoError(t, err)

	p, err := c.Connect("bob", nil, call.PeerEvents{})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.CreateAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0"})
	require.Error(t, err)
	require.Error(t, p.SetAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}))
}

type pipe struct {
	ch   chan signal.Message
	done chan struct{}
}

func newPipe(t *testing.T, deliver func(signal.Message)) *pipe {
	p := &pipe{ch: make(chan signal.Message, 256), done: make(chan struct{})}
	go func() {
		for {
			select {
			case m := <-p.ch:
				deliver(m)
			case <-p.done:
				return
			}
		}
	}()
	t.Cleanup(func() { close(p.done) })
	return p
}

func (p *pipe) Send(v any) bool {
	select {
	case p.ch <- v.(signal.Message):
		return true
	case <-p.done:
		return false
	}
}

// Two managers negotiate over real pion peer connections on loopback.
func TestLoopbackCall(t *testing.T) {
	if testing.Short() {
		t.Skip("opens real peer connections")
	}

	newConnector := func() *rtc.Connector {
		c, err := rtc.NewConnector(rtc.Config{STUNServers: []string{}, Log: zaptest.NewLogger(t)})
		require.NoError(t, err)
		return c
	}

	var alice, bob *call.Manager
	toBob := newPipe(t, func(m signal.Message) { bob.Route(m) })
	toAlice := newPipe(t, func(m signal.Message) { alice.Route(m) })

	var err error
	alice, err = call.NewManager(call.Config{
		Session:   call.Session{ID: "loop", Type: domain.CallTypeAudio, Participants: []domain.User{{ID: "bob"}}, IsInitiator: true},
		Self:      "alice",
		Connector: newConnector(),
		Media:     rtc.NewSyntheticMedia(),
		Signals:   toBob,
		Log:       zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	bob, err = call.NewManager(call.Config{
		Session:   call.Session{ID: "loop", Type: domain.CallTypeAudio, Participants: []domain.User{{ID: "alice"}}},
		Self:      "bob",
		Connector: newConnector(),
		Media:     rtc.NewSyntheticMedia(),
		Signals:   toAlice,
		Log:       zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(alice.Close)
	t.Cleanup(bob.Close)

	require.NoError(t, bob.Start(context.Background()))
	require.NoError(t, alice.Start(context.Background()))

	require.Eventually(t, func() bool {
		return alice.State() == call.StateConnected && bob.State() == call.StateConnected
	}, 15*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(bob.Streams()["alice"]) > 0
	}, 15*time.Second, 20*time.Millisecond)

	alice.Hangup()
	require.Eventually(t, func() bool { return bob.State() == call.StateEnded }, 5*time.Second, 10*time.Millisecond)
}
