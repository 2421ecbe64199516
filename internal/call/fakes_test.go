package call_test

import (
	"context"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/emmaarthur191/coastal-project-sub004/internal/call"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/signal"
)

type fakeMedia struct {
	mu    sync.Mutex
	stops int
}

func (m *fakeMedia) Tracks() []webrtc.TrackLocal { return nil }

func (m *fakeMedia) Stop() {
	m.mu.Lock()
	m.stops++
	m.mu.Unlock()
}

func (m *fakeMedia) stopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// fakeSource hands out media, fails, or blocks until release is closed.
// It ignores ctx, like a device that grants access after the caller gave up.
type fakeSource struct {
	media   *fakeMedia
	err     error
	entered chan struct{}
	release chan struct{}
}

func (s *fakeSource) Acquire(_ context.Context, _ domain.CallType) (call.LocalMedia, error) {
	if s.entered != nil {
		close(s.entered)
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.media, nil
}

type fakePeer struct {
	id     domain.UserID
	events call.PeerEvents

	mu          sync.Mutex
	offers      int
	remote      []webrtc.SessionDescription
	candidates  []string
	closes      int
	answerErr   error
	connectOnSD bool
	emitOnOffer []string
}

func (p *fakePeer) CreateOffer() (webrtc.SessionDescription, error) {
	p.mu.Lock()
	p.offers++
	emit := p.emitOnOffer
	p.mu.Unlock()
	// Gathering starts before the offer leaves, as with a real stack.
	for _, c := range emit {
		p.events.OnICECandidate(webrtc.ICECandidateInit{Candidate: c})
	}
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "offer-from-" + p.id.String()}, nil
}

func (p *fakePeer) CreateAnswer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	p.mu.Lock()
	if p.answerErr != nil {
		p.mu.Unlock()
		return webrtc.SessionDescription{}, p.answerErr
	}
	p.remote = append(p.remote, offer)
	p.mu.Unlock()
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "answer-for-" + p.id.String()}, nil
}

func (p *fakePeer) SetAnswer(answer webrtc.SessionDescription) error {
	p.mu.Lock()
	p.remote = append(p.remote, answer)
	connect := p.connectOnSD
	p.mu.Unlock()
	if connect {
		p.events.OnStateChange(webrtc.PeerConnectionStateConnected)
	}
	return nil
}

func (p *fakePeer) AddICECandidate(c webrtc.ICECandidateInit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.remote) == 0 {
		return errors.New("remote description not set")
	}
	p.candidates = append(p.candidates, c.Candidate)
	return nil
}

func (p *fakePeer) Close() error {
	p.mu.Lock()
	p.closes++
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) closeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

func (p *fakePeer) gotCandidates() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.candidates...)
}

// fakeConnector builds fakePeers and can refuse specific participants.
type fakeConnector struct {
	mu      sync.Mutex
	peers   map[domain.UserID]*fakePeer
	refuse  map[domain.UserID]bool
	prepare func(*fakePeer)
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{peers: map[domain.UserID]*fakePeer{}, refuse: map[domain.UserID]bool{}}
}

func (c *fakeConnector) Connect(p domain.UserID, _ call.LocalMedia, ev call.PeerEvents) (call.Peer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refuse[p] {
		return nil, errors.New("refused")
	}
	fp := &fakePeer{id: p, events: ev}
	if c.prepare != nil {
		c.prepare(fp)
	}
	c.peers[p] = fp
	return fp, nil
}

func (c *fakeConnector) peer(p domain.UserID) *fakePeer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peers[p]
}

func (c *fakeConnector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.peers)
}

type fakeSignals struct {
	mu   sync.Mutex
	sent []signal.Message
}

func (s *fakeSignals) Send(v any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, v.(signal.Message))
	return true
}

func (s *fakeSignals) kinds(target domain.UserID) []signal.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []signal.Kind
	for _, m := range s.sent {
		if m.Head().TargetID == target {
			out = append(out, m.Kind())
		}
	}
	return out
}

func (s *fakeSignals) count(k signal.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.sent {
		if m.Kind() == k {
			n++
		}
	}
	return n
}

type recordingObserver struct {
	mu      sync.Mutex
	states  []call.State
	notices []call.Notice
	left    []domain.UserID
	tracks  map[domain.UserID]int
}

func (o *recordingObserver) StateChanged(s call.State) {
	o.mu.Lock()
	o.states = append(o.states, s)
	o.mu.Unlock()
}

func (o *recordingObserver) RemoteTrack(p domain.UserID, _ call.RemoteTrack) {
	o.mu.Lock()
	if o.tracks == nil {
		o.tracks = map[domain.UserID]int{}
	}
	o.tracks[p]++
	o.mu.Unlock()
}

func (o *recordingObserver) ParticipantLeft(p domain.UserID) {
	o.mu.Lock()
	o.left = append(o.left, p)
	o.mu.Unlock()
}

func (o *recordingObserver) Notice(n call.Notice) {
	o.mu.Lock()
	o.notices = append(o.notices, n)
	o.mu.Unlock()
}

func (o *recordingObserver) snapshot() ([]call.State, []call.Notice, []domain.UserID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]call.State(nil), o.states...),
		append([]call.Notice(nil), o.notices...),
		append([]domain.UserID(nil), o.left...)
}

type fakeTrack struct{ id string }

func (t fakeTrack) ID() string                { return t.id }
func (t fakeTrack) StreamID() string          { return "stream-" + t.id }
func (t fakeTrack) Kind() webrtc.RTPCodecType { return webrtc.RTPCodecTypeVideo }
