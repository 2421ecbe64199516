package call

import (
	"go.uber.org/zap"

	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/signal"
)

// Route delivers one inbound signal to the participant pool. Signals from
// senders without an entry are queued while local media is not ready and
// dropped afterwards, except offers to a callee, which open a new entry.
// Failures are logged; Route never ends the call on a bad signal.
func (m *Manager) Route(msg signal.Message) {
	m.routeMu.Lock()
	defer m.routeMu.Unlock()
	m.route(msg)
}

// flush replays queued signals in arrival order. Callers hold routeMu.
func (m *Manager) flush() {
	for {
		msg, ok := m.queue.pop()
		if !ok {
			return
		}
		m.route(msg)
	}
}

func (m *Manager) route(msg signal.Message) {
	h := msg.Head()
	log := m.log.With(zap.String("type", string(msg.Kind())), zap.String("sender", h.SenderID.String()))

	if m.guard.done() {
		m.dropSignal(log, "ended")
		return
	}
	if h.TargetID != "" && h.TargetID != m.self {
		m.dropSignal(log, "not_for_us")
		return
	}
	if h.CallID != "" && m.session.ID != "" && h.CallID != m.session.ID {
		m.dropSignal(log, "other_call")
		return
	}

	m.mu.Lock()
	var e *entry
	if res := m.guard.live(); res != nil {
		e = res.entries[h.SenderID]
	}
	ready := m.mediaReady
	m.mu.Unlock()

	if e == nil && !ready {
		if !m.queue.push(msg) {
			m.dropSignal(log, "queue_full")
			return
		}
		m.metrics.RecordQueued()
		log.Debug("signal queued until local media is ready")
		return
	}

	if err := msg.Accept(&dispatch{m: m, e: e, log: log}); err != nil {
		log.Warn("signal failed", zap.Error(err))
	}
}

func (m *Manager) dropSignal(log *zap.Logger, reason string) {
	m.metrics.RecordDropped(reason)
	log.Debug("signal dropped", zap.String("reason", reason))
}

// dispatch applies one signal to the sender's entry, which may be nil.
type dispatch struct {
	m   *Manager
	e   *entry
	log *zap.Logger
}

var _ signal.Visitor = (*dispatch)(nil)

func (d *dispatch) VisitOffer(o signal.Offer) error {
	m := d.m
	if d.e == nil && m.session.IsInitiator {
		m.dropSignal(d.log, "unknown_sender")
		return nil
	}
	e := d.e
	if e == nil {
		var err error
		if e, err = m.connect(o.SenderID); err != nil {
			m.metrics.RecordPeerFailure()
			return err
		}
	}
	answer, err := e.peer.CreateAnswer(o.SDP)
	if err != nil {
		if d.e == nil {
			m.drop(o.SenderID, e, &Notice{Kind: NoticePeerFailed, Participant: o.SenderID, Err: err}, false)
		}
		return err
	}
	e.remoteSet = true
	m.send(signal.Answer{Header: m.header(o.SenderID), SDP: answer})
	m.releaseOutbox(e)
	d.applyPending(e)
	m.markConnected()
	return nil
}

func (d *dispatch) VisitAnswer(a signal.Answer) error {
	if d.e == nil {
		d.m.dropSignal(d.log, "unknown_sender")
		return nil
	}
	if err := d.e.peer.SetAnswer(a.SDP); err != nil {
		return err
	}
	d.e.remoteSet = true
	d.applyPending(d.e)
	return nil
}

func (d *dispatch) VisitCandidate(c signal.Candidate) error {
	if d.e == nil {
		d.m.dropSignal(d.log, "unknown_sender")
		return nil
	}
	if !d.e.remoteSet {
		d.e.pending = append(d.e.pending, c.Candidate)
		return nil
	}
	return d.e.peer.AddICECandidate(c.Candidate)
}

func (d *dispatch) VisitEnd(e signal.End) error {
	if d.e == nil {
		d.m.dropSignal(d.log, "unknown_sender")
		return nil
	}
	d.m.drop(e.SenderID, d.e, nil, false)
	return nil
}

func (d *dispatch) VisitBusy(b signal.Busy) error {
	if d.e == nil {
		d.m.dropSignal(d.log, "unknown_sender")
		return nil
	}
	d.m.drop(b.SenderID, d.e, &Notice{Kind: NoticeBusy, Participant: b.SenderID}, false)
	return nil
}

// applyPending adds candidates that arrived before the remote description.
func (d *dispatch) applyPending(e *entry) {
	pending := e.pending
	e.pending = nil
	for _, c := range pending {
		if err := e.peer.AddICECandidate(c); err != nil {
			d.log.Warn("add buffered candidate", zap.Error(err))
		}
	}
}
