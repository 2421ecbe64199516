package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emmaarthur191/coastal-project-sub004/internal/call"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/frame"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/signal"
	"github.com/emmaarthur191/coastal-project-sub004/internal/services/message"
	"github.com/emmaarthur191/coastal-project-sub004/internal/socket"
)

const (
	lookupTimeout = 10 * time.Second
	// maxRingingSignals bounds what the caller may send while we ring.
	maxRingingSignals = 128
)

var (
	// ErrCallActive is returned when a second call is started or answered.
	ErrCallActive = errors.New("a call is already in progress")
	// ErrNoIncoming is returned by Answer and Decline without a pending offer.
	ErrNoIncoming = errors.New("no incoming call")
)

// MessageSink receives chat messages opened by the message service.
type MessageSink interface {
	Message(domain.DecryptedMessage)
	Undecryptable(frame.Message, error)
}

// ActivitySink is optionally implemented by a MessageSink to receive the
// remaining chat frames.
type ActivitySink interface {
	Typing(frame.Typing)
	Presence(frame.Presence)
	Reaction(frame.Reaction)
}

// Incoming describes an offer received while no call was active.
type Incoming struct {
	CallID domain.CallID
	Type   domain.CallType
	From   domain.User
}

// Notifier is the user-facing notification surface. IncomingCall may call
// Answer directly.
type Notifier interface {
	IncomingCall(Incoming)
	CallEnded(id domain.CallID, reason call.EndReason)
	ConnectionState(socket.ConnState)
}

type nopSink struct{}

func (nopSink) Message(domain.DecryptedMessage)    {}
func (nopSink) Undecryptable(frame.Message, error) {}

type nopNotifier struct{}

func (nopNotifier) IncomingCall(Incoming)                   {}
func (nopNotifier) CallEnded(domain.CallID, call.EndReason) {}
func (nopNotifier) ConnectionState(socket.ConnState)        {}

// ClientConfig wires a Client.
type ClientConfig struct {
	Self      domain.UserID
	Thread    domain.ThreadID
	Keys      message.KeyProvider
	Users     domain.UserDirectory // optional; ids are shown when nil
	Connector call.PeerConnector
	Media     call.MediaSource
	Sink      MessageSink
	Notifier  Notifier
	Observer  call.Observer
	// AutoAnswer starts a callee call as soon as an offer arrives.
	AutoAnswer  bool
	Socket      socket.Config
	Log         *zap.Logger
	CallMetrics *call.Metrics
}

// Client is the runtime for one thread: it owns the socket, opens chat
// messages and routes signals to at most one active call.
type Client struct {
	cfg      ClientConfig
	sock     *socket.Client
	msgs     *message.Service
	activity ActivitySink
	log      *zap.Logger

	// sigMu serializes inbound signals against Answer so nothing the caller
	// sends while ringing is lost during the handoff to the manager.
	sigMu sync.Mutex

	mu      sync.Mutex
	ctx     context.Context
	active  *call.Manager
	pending *signal.Offer
	ringing []signal.Message // caller signals that followed pending
}

var _ socket.Handler = (*Client)(nil)

// NewClient builds a Client. It does not dial until Connect.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Self == "" {
		return nil, errors.New("app: self id is required")
	}
	if cfg.Keys == nil {
		return nil, errors.New("app: key provider is required")
	}
	if cfg.Sink == nil {
		cfg.Sink = nopSink{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	cfg.Socket.Endpoint.Thread = cfg.Thread

	c := &Client{
		cfg: cfg,
		log: cfg.Log.Named("app").With(zap.String("thread", cfg.Thread.String())),
		ctx: context.Background(),
	}
	c.activity, _ = cfg.Sink.(ActivitySink)

	sock, err := socket.NewClient(cfg.Socket, c)
	if err != nil {
		return nil, err
	}
	c.sock = sock
	c.msgs = message.New(cfg.Self, cfg.Keys, sock, cfg.Log)
	return c, nil
}

// Connect opens the thread socket. ctx bounds the connection and any call
// answered automatically.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()
	c.sock.Connect(ctx)
}

// Close hangs up the active call and closes the socket.
func (c *Client) Close() {
	c.Hangup()
	c.sock.Close()
}

// Status returns the socket status.
func (c *Client) Status() socket.Status { return c.sock.Status() }

// Done is closed when the socket has stopped for good.
func (c *Client) Done() <-chan struct{} { return c.sock.Done() }

// Send encrypts text for peer and posts it to the thread.
func (c *Client) Send(ctx context.Context, peer domain.UserID, text string) (frame.Message, error) {
	return c.msgs.Send(ctx, c.cfg.Thread, peer, []byte(text))
}

// SetTyping announces typing_start or typing_stop.
func (c *Client) SetTyping(active bool) bool {
	return c.sock.Send(frame.TypingFrame(c.cfg.Thread, c.cfg.Self, active))
}

// ActiveCall returns the call in progress, if any.
func (c *Client) ActiveCall() *call.Manager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Call starts an outgoing call to peers and blocks until local media is
// acquired and the offers are sent.
func (c *Client) Call(ctx context.Context, t domain.CallType, peers ...domain.UserID) (*call.Manager, error) {
	users := make([]domain.User, 0, len(peers))
	for _, p := range peers {
		users = append(users, c.lookup(ctx, p))
	}

	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return nil, ErrCallActive
	}
	m, err := c.newManager(call.Session{
		ID:           domain.CallID(uuid.NewString()),
		Type:         t,
		Participants: users,
		IsInitiator:  true,
	})
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.active = m
	c.mu.Unlock()

	return m, m.Start(ctx)
}

// Answer accepts the pending incoming call. Signals the caller sent while
// ringing are handed to the call after the offer, in arrival order.
func (c *Client) Answer(ctx context.Context) (*call.Manager, error) {
	c.mu.Lock()
	p := c.pending
	c.mu.Unlock()
	if p == nil {
		return nil, ErrNoIncoming
	}
	from := c.lookup(ctx, p.SenderID)

	c.sigMu.Lock()
	p, held := c.takePending()
	if p == nil {
		c.sigMu.Unlock()
		return nil, ErrNoIncoming
	}
	if from.ID != p.SenderID {
		from = domain.User{ID: p.SenderID}
	}
	m, err := c.accept(*p, from, held...)
	c.sigMu.Unlock()
	if err != nil {
		return nil, err
	}
	return m, m.Start(ctx)
}

// Decline rejects the pending incoming call.
func (c *Client) Decline() error {
	p, _ := c.takePending()
	if p == nil {
		return ErrNoIncoming
	}
	c.sock.Send(signal.End{Header: c.reply(p.Header)})
	return nil
}

// Hangup ends the active call, if any.
func (c *Client) Hangup() {
	if m := c.ActiveCall(); m != nil {
		m.Hangup()
	}
}

// Message opens new_message frames and hands them to the sink.
func (c *Client) Message(raw frame.Raw) {
	if raw.Type != frame.TypeNewMessage {
		c.log.Debug("frame ignored", zap.String("type", raw.Type))
		return
	}
	nm, err := raw.NewMessage()
	if err != nil {
		c.log.Warn("bad new_message frame", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.context(), lookupTimeout)
	defer cancel()
	dm, err := c.msgs.Open(ctx, nm)
	switch {
	case errors.Is(err, message.ErrOwnMessage):
	case err != nil:
		c.cfg.Sink.Undecryptable(nm.Message, err)
	default:
		c.cfg.Sink.Message(dm)
	}
}

func (c *Client) Reaction(r frame.Reaction) {
	if c.activity != nil {
		c.activity.Reaction(r)
	}
}

func (c *Client) Typing(t frame.Typing) {
	if c.activity != nil && t.UserID != c.cfg.Self {
		c.activity.Typing(t)
	}
}

func (c *Client) Presence(p frame.Presence) {
	if c.activity != nil {
		c.activity.Presence(p)
	}
}

func (c *Client) ConnectionState(st socket.ConnState) {
	c.cfg.Notifier.ConnectionState(st)
}

// Signal routes msg to the active call. An offer with no active call is
// an incoming call; an offer for another call while one is active is
// answered with call_busy. Other signals from a ringing caller are held
// until Answer.
func (c *Client) Signal(msg signal.Message) {
	h := msg.Head()
	if h.SenderID == c.cfg.Self || (h.TargetID != "" && h.TargetID != c.cfg.Self) {
		return
	}

	c.sigMu.Lock()
	notify := c.signal(msg)
	c.sigMu.Unlock()
	if notify != nil {
		notify()
	}
}

// signal runs under sigMu. The returned func, if any, is run after the
// lock is released.
func (c *Client) signal(msg signal.Message) func() {
	h := msg.Head()
	m := c.ActiveCall()
	offer, isOffer := msg.(signal.Offer)

	switch {
	case m != nil && isOffer && !belongs(m.Session(), offer):
		c.busy(offer)
	case m != nil:
		m.Route(msg)
	case isOffer:
		return c.incoming(offer)
	case msg.Kind() == signal.KindEnd:
		c.withdraw(h)
	case c.hold(msg):
	default:
		c.log.Debug("signal without a call", zap.String("type", string(msg.Kind())))
	}
	return nil
}

func (c *Client) incoming(o signal.Offer) func() {
	ctx, cancel := context.WithTimeout(c.context(), lookupTimeout)
	from := c.lookup(ctx, o.SenderID)
	cancel()
	in := Incoming{CallID: o.CallID, Type: callType(o.CallType), From: from}
	notify := func() { c.cfg.Notifier.IncomingCall(in) }

	if !c.cfg.AutoAnswer {
		c.mu.Lock()
		if c.pending != nil && c.pending.SenderID != o.SenderID {
			c.mu.Unlock()
			c.busy(o)
			return nil
		}
		if c.pending == nil || c.pending.CallID != o.CallID {
			c.ringing = nil
		}
		c.pending = &o
		c.mu.Unlock()
		return notify
	}

	m, err := c.accept(o, from)
	if err != nil {
		c.log.Warn("auto-answer failed", zap.Error(err))
		return nil
	}
	ctx = c.context()
	go func() {
		if err := m.Start(ctx); err != nil {
			c.log.Warn("answered call failed to start", zap.Error(err))
		}
	}()
	return notify
}

// hold keeps a signal from the ringing caller for Answer. It reports
// whether msg belonged to the pending offer.
func (c *Client) hold(msg signal.Message) bool {
	h := msg.Head()
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pending
	if p == nil || p.SenderID != h.SenderID || (h.CallID != "" && h.CallID != p.CallID) {
		return false
	}
	if len(c.ringing) >= maxRingingSignals {
		c.log.Warn("ringing signal dropped", zap.String("type", string(msg.Kind())))
		return true
	}
	c.ringing = append(c.ringing, msg)
	return true
}

func (c *Client) takePending() (*signal.Offer, []signal.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, held := c.pending, c.ringing
	c.pending, c.ringing = nil, nil
	return p, held
}

// accept creates the callee manager and routes the offer, then held, to it.
// The manager queues them until Start has local media.
func (c *Client) accept(o signal.Offer, from domain.User, held ...signal.Message) (*call.Manager, error) {
	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		c.busy(o)
		return nil, ErrCallActive
	}
	m, err := c.newManager(call.Session{
		ID:           o.CallID,
		Type:         callType(o.CallType),
		Participants: []domain.User{from},
	})
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.active = m
	c.mu.Unlock()

	m.Route(o)
	for _, msg := range held {
		m.Route(msg)
	}
	return m, nil
}

// withdraw drops a pending offer whose caller hung up before we answered.
func (c *Client) withdraw(h signal.Header) {
	c.mu.Lock()
	p := c.pending
	if p == nil || p.SenderID != h.SenderID || (h.CallID != "" && p.CallID != h.CallID) {
		c.mu.Unlock()
		return
	}
	c.pending, c.ringing = nil, nil
	c.mu.Unlock()
	c.cfg.Notifier.CallEnded(p.CallID, call.ReasonHangup)
}

func (c *Client) busy(o signal.Offer) {
	c.log.Info("busy; rejecting offer", zap.String("sender", o.SenderID.String()))
	c.sock.Send(signal.Busy{Header: c.reply(o.Header)})
}

func (c *Client) newManager(s call.Session) (*call.Manager, error) {
	var m *call.Manager
	m, err := call.NewManager(call.Config{
		Session:   s,
		Self:      c.cfg.Self,
		Connector: c.cfg.Connector,
		Media:     c.cfg.Media,
		Signals:   c.sock,
		Observer:  c.cfg.Observer,
		OnEnd:     func(r call.EndReason) { c.ended(m, r) },
		Log:       c.cfg.Log,
		Metrics:   c.cfg.CallMetrics,
	})
	return m, err
}

// ended runs from the manager's teardown, possibly inside Route, so it
// must not call back into the manager.
func (c *Client) ended(m *call.Manager, r call.EndReason) {
	c.mu.Lock()
	if c.active == m {
		c.active = nil
	}
	c.mu.Unlock()
	c.cfg.Notifier.CallEnded(m.Session().ID, r)
}

func (c *Client) reply(h signal.Header) signal.Header {
	return signal.Header{SenderID: c.cfg.Self, TargetID: h.SenderID, CallID: h.CallID}
}

func (c *Client) lookup(ctx context.Context, id domain.UserID) domain.User {
	if c.cfg.Users == nil {
		return domain.User{ID: id}
	}
	u, err := c.cfg.Users.FetchUser(ctx, id)
	if err != nil {
		c.log.Debug("user lookup failed", zap.String("user", id.String()), zap.Error(err))
		return domain.User{ID: id}
	}
	return u
}

func (c *Client) context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

func belongs(s call.Session, o signal.Offer) bool {
	if o.CallID != "" && s.ID != "" {
		return o.CallID == s.ID
	}
	for _, p := range s.Participants {
		if p.ID == o.SenderID {
			return true
		}
	}
	return false
}

func callType(t domain.CallType) domain.CallType {
	if t.Valid() {
		return t
	}
	return domain.CallTypeAudio
}
