package call

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/signal"
)

// Config wires a Manager.
type Config struct {
	Session   Session
	Self      domain.UserID
	Connector PeerConnector
	Media     MediaSource
	Signals   SignalSender
	Observer  Observer
	// OnEnd runs once, after teardown has released everything.
	OnEnd   func(EndReason)
	Log     *zap.Logger
	Metrics *Metrics
}

// entry is one participant's connection in the pool.
type entry struct {
	participant domain.UserID
	peer        Peer
	state       webrtc.PeerConnectionState

	// Guarded by Manager.routeMu.
	remoteSet bool
	pending   []webrtc.ICECandidateInit

	// Guarded by Manager.mu. Local candidates wait until our description
	// has been sent so the remote side can resolve the sender.
	signalled bool
	outbox    []webrtc.ICECandidateInit
}

// Manager runs one call.
type Manager struct {
	session Session
	self    domain.UserID
	conn    PeerConnector
	media   MediaSource
	signals SignalSender
	obs     Observer
	onEnd   func(EndReason)
	log     *zap.Logger
	metrics *Metrics

	guard *teardownGuard
	queue signalQueue

	// routeMu serializes Route against the flush in Start so queued signals
	// are never overtaken by later arrivals.
	routeMu sync.Mutex

	mu            sync.Mutex
	state         State
	started       bool
	mediaReady    bool
	cancelAcquire context.CancelFunc
	streams       map[domain.UserID][]RemoteTrack
}

// NewManager validates cfg and returns a Manager in StateInitializing.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Connector == nil || cfg.Media == nil || cfg.Signals == nil {
		return nil, errors.New("call: connector, media source and signal sender are required")
	}
	if cfg.Self == "" {
		return nil, errors.New("call: self id is required")
	}
	if !cfg.Session.Type.Valid() {
		return nil, fmt.Errorf("call: invalid call type %q", cfg.Session.Type)
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	session := cfg.Session
	session.Participants = make([]domain.User, 0, len(cfg.Session.Participants))
	for _, p := range cfg.Session.Participants {
		if p.ID != "" && p.ID != cfg.Self {
			session.Participants = append(session.Participants, p)
		}
	}
	if session.IsInitiator && len(session.Participants) == 0 {
		return nil, ErrNoParticipants
	}

	return &Manager{
		session: session,
		self:    cfg.Self,
		conn:    cfg.Connector,
		media:   cfg.Media,
		signals: cfg.Signals,
		obs:     cfg.Observer,
		onEnd:   cfg.OnEnd,
		log:     cfg.Log.Named("call").With(zap.String("call_id", session.ID.String())),
		metrics: cfg.Metrics,
		guard:   newTeardownGuard(),
		streams: make(map[domain.UserID][]RemoteTrack),
	}, nil
}

// Session returns the call description.
func (m *Manager) Session() Session { return m.session }

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Streams returns the remote tracks received so far, by participant.
func (m *Manager) Streams() map[domain.UserID][]RemoteTrack {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.UserID][]RemoteTrack, len(m.streams))
	for id, ts := range m.streams {
		out[id] = append([]RemoteTrack(nil), ts...)
	}
	return out
}

// Participants returns the ids currently in the connection pool.
func (m *Manager) Participants() []domain.UserID {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := m.guard.live()
	if res == nil {
		return nil
	}
	ids := make([]domain.UserID, 0, len(res.entries))
	for id := range res.entries {
		ids = append(ids, id)
	}
	return ids
}

// Start acquires local media, offers to every participant when initiating,
// and replays signals queued while media was pending. A media failure ends
// the call and returns an error wrapping ErrMediaAccess.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	if m.guard.done() {
		m.mu.Unlock()
		return ErrCallEnded
	}
	m.started = true
	actx, cancel := context.WithCancel(ctx)
	m.cancelAcquire = cancel
	m.mu.Unlock()

	media, err := m.media.Acquire(actx, m.session.Type)
	cancel()

	if m.guard.done() {
		if media != nil {
			media.Stop()
		}
		return ErrCallEnded
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrMediaAccess, err)
		m.log.Warn("local media unavailable", zap.Error(err))
		m.obs.Notice(Notice{Kind: NoticeMediaAccess, Err: err})
		m.teardown(ReasonMediaAccess)
		return err
	}

	// Hold routeMu from the moment media is ready until the queue is drained
	// so no direct arrival overtakes a queued signal.
	m.routeMu.Lock()
	defer m.routeMu.Unlock()

	m.mu.Lock()
	res := m.guard.live()
	if res == nil {
		m.mu.Unlock()
		media.Stop()
		return ErrCallEnded
	}
	res.media = media
	m.mediaReady = true
	m.state = StateCalling
	m.mu.Unlock()
	m.obs.StateChanged(StateCalling)
	m.log.Info("local media ready", zap.String("type", string(m.session.Type)))

	if m.session.IsInitiator {
		for _, p := range m.session.Participants {
			m.offer(p.ID)
		}
		if m.poolEmpty() {
			m.log.Warn("no participant could be offered")
			m.teardown(ReasonPoolEmpty)
			return nil
		}
	}
	m.flush()
	return nil
}

// Hangup ends the call. It is safe to call any number of times.
func (m *Manager) Hangup() { m.teardown(ReasonHangup) }

// Close ends the call when its owner goes away. It is idempotent and may
// race with Hangup; teardown still runs once.
func (m *Manager) Close() { m.teardown(ReasonClosed) }

// offer opens a connection to p and sends it our offer.
func (m *Manager) offer(p domain.UserID) {
	e, err := m.connect(p)
	if err != nil {
		m.log.Warn("open peer connection", zap.String("peer", p.String()), zap.Error(err))
		m.metrics.RecordPeerFailure()
		return
	}
	sdp, err := e.peer.CreateOffer()
	if err != nil {
		m.log.Warn("create offer", zap.String("peer", p.String()), zap.Error(err))
		m.drop(p, e, &Notice{Kind: NoticePeerFailed, Participant: p, Err: err}, false)
		return
	}
	m.send(signal.Offer{Header: m.header(p), SDP: sdp, CallType: m.session.Type})
	m.releaseOutbox(e)
}

// connect adds a pool entry for p.
func (m *Manager) connect(p domain.UserID) (*entry, error) {
	m.mu.Lock()
	res := m.guard.live()
	if res == nil {
		m.mu.Unlock()
		return nil, ErrCallEnded
	}
	if e, ok := res.entries[p]; ok {
		m.mu.Unlock()
		return e, nil
	}
	media := res.media
	m.mu.Unlock()

	e := &entry{participant: p, state: webrtc.PeerConnectionStateNew}
	peer, err := m.conn.Connect(p, media, PeerEvents{
		OnICECandidate: func(c webrtc.ICECandidateInit) { m.localCandidate(e, c) },
		OnStateChange:  func(s webrtc.PeerConnectionState) { m.peerState(e, s) },
		OnTrack:        func(t RemoteTrack) { m.remoteTrack(e, t) },
	})
	if err != nil {
		return nil, err
	}
	e.peer = peer

	m.mu.Lock()
	res = m.guard.live()
	if res == nil {
		m.mu.Unlock()
		_ = peer.Close()
		return nil, ErrCallEnded
	}
	res.entries[p] = e
	n := len(res.entries)
	m.mu.Unlock()

	m.metrics.SetActivePeers(n)
	m.log.Debug("peer connection opened", zap.String("peer", p.String()))
	return e, nil
}

func (m *Manager) localCandidate(e *entry, c webrtc.ICECandidateInit) {
	m.mu.Lock()
	if !e.signalled {
		e.outbox = append(e.outbox, c)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.send(signal.Candidate{Header: m.header(e.participant), Candidate: c})
}

// releaseOutbox marks e's description as sent and flushes held candidates.
func (m *Manager) releaseOutbox(e *entry) {
	m.mu.Lock()
	e.signalled = true
	out := e.outbox
	e.outbox = nil
	m.mu.Unlock()
	for _, c := range out {
		m.send(signal.Candidate{Header: m.header(e.participant), Candidate: c})
	}
}

func (m *Manager) peerState(e *entry, s webrtc.PeerConnectionState) {
	m.mu.Lock()
	res := m.guard.live()
	if res == nil || res.entries[e.participant] != e {
		m.mu.Unlock()
		return
	}
	e.state = s
	promote := s == webrtc.PeerConnectionStateConnected && m.state == StateCalling
	if promote {
		m.state = StateConnected
	}
	m.mu.Unlock()

	m.log.Debug("peer state", zap.String("peer", e.participant.String()), zap.Stringer("state", s))
	switch s {
	case webrtc.PeerConnectionStateConnected:
		if promote {
			m.log.Info("call connected")
			m.obs.StateChanged(StateConnected)
		}
	case webrtc.PeerConnectionStateFailed:
		m.metrics.RecordPeerFailure()
		m.drop(e.participant, e, &Notice{Kind: NoticePeerFailed, Participant: e.participant}, true)
	case webrtc.PeerConnectionStateClosed:
		m.drop(e.participant, e, nil, true)
	}
}

func (m *Manager) remoteTrack(e *entry, t RemoteTrack) {
	m.mu.Lock()
	if m.guard.done() {
		m.mu.Unlock()
		return
	}
	m.streams[e.participant] = append(m.streams[e.participant], t)
	m.mu.Unlock()
	m.obs.RemoteTrack(e.participant, t)
}

// markConnected promotes Calling to Connected.
func (m *Manager) markConnected() {
	m.mu.Lock()
	promote := m.state == StateCalling && !m.guard.done()
	if promote {
		m.state = StateConnected
	}
	m.mu.Unlock()
	if promote {
		m.obs.StateChanged(StateConnected)
	}
}

// drop removes p's entry, if it is still e, and ends the call when the pool
// empties. fromCallback defers Close off the peer's own event goroutine.
func (m *Manager) drop(p domain.UserID, e *entry, n *Notice, fromCallback bool) {
	m.mu.Lock()
	res := m.guard.live()
	if res == nil || res.entries[p] != e {
		m.mu.Unlock()
		return
	}
	delete(res.entries, p)
	delete(m.streams, p)
	left := len(res.entries)
	m.mu.Unlock()

	m.metrics.SetActivePeers(left)
	if fromCallback {
		go func() { _ = e.peer.Close() }()
	} else {
		_ = e.peer.Close()
	}
	m.log.Info("participant left", zap.String("peer", p.String()), zap.Int("remaining", left))
	m.obs.ParticipantLeft(p)
	if n != nil {
		m.obs.Notice(*n)
	}
	if left == 0 {
		m.teardown(ReasonPoolEmpty)
	}
}

func (m *Manager) poolEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := m.guard.live()
	return res == nil || len(res.entries) == 0
}

func (m *Manager) teardown(reason EndReason) {
	m.mu.Lock()
	res := m.guard.take()
	if res == nil {
		m.mu.Unlock()
		return
	}
	m.state = StateEnded
	m.mediaReady = false
	cancel := m.cancelAcquire
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if res.media != nil {
		res.media.Stop()
	}
	for _, p := range m.session.Participants {
		m.send(signal.End{Header: m.header(p.ID)})
	}
	for id, e := range res.entries {
		if err := e.peer.Close(); err != nil {
			m.log.Debug("close peer", zap.String("peer", id.String()), zap.Error(err))
		}
		delete(res.entries, id)
	}
	m.queue.clear()

	m.metrics.SetActivePeers(0)
	m.metrics.RecordEnded(reason)
	m.log.Info("call ended", zap.String("reason", string(reason)))
	m.obs.StateChanged(StateEnded)
	if m.onEnd != nil {
		m.onEnd(reason)
	}
}

func (m *Manager) header(p domain.UserID) signal.Header {
	return signal.Header{SenderID: m.self, TargetID: p, CallID: m.session.ID}
}

func (m *Manager) send(msg signal.Message) {
	if !m.signals.Send(msg) {
		m.log.Warn("signal not sent; socket closed",
			zap.String("type", string(msg.Kind())),
			zap.String("peer", msg.Head().TargetID.String()))
	}
}
