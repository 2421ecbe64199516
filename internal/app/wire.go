package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/pion/webrtc/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/emmaarthur191/coastal-project-sub004/internal/call"
	"github.com/emmaarthur191/coastal-project-sub004/internal/crypto"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/relay"
	"github.com/emmaarthur191/coastal-project-sub004/internal/rtc"
	identitysvc "github.com/emmaarthur191/coastal-project-sub004/internal/services/identity"
	sessionsvc "github.com/emmaarthur191/coastal-project-sub004/internal/services/session"
	"github.com/emmaarthur191/coastal-project-sub004/internal/socket"
	"github.com/emmaarthur191/coastal-project-sub004/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Config    Config
	Log       *zap.Logger
	Identity  *identitysvc.Service
	PeerKeys  domain.PeerKeyStore
	Directory *relay.HTTP
	HTTP      *http.Client

	SocketMetrics *socket.Metrics
	CallMetrics   *call.Metrics
}

// NewWire constructs the dependency graph from cfg. A nil reg disables
// metrics; a nil log discards logs.
func NewWire(cfg Config, log *zap.Logger, reg prometheus.Registerer) (*Wire, error) {
	if cfg.Home == "" {
		return nil, errors.New("home directory is not set")
	}
	if log == nil {
		log = zap.NewNop()
	}

	// Ensure an HTTP client is available for outbound calls
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	w := &Wire{
		Config:    cfg,
		Log:       log,
		Identity:  identitysvc.New(store.NewIdentityFileStore(cfg.Home)),
		PeerKeys:  store.NewPeerKeyMemoryStore(),
		Directory: relay.NewHTTP(cfg.BaseURL, cfg.AccessToken(), httpClient),
		HTTP:      httpClient,
	}
	if reg != nil {
		w.SocketMetrics = socket.NewMetrics(reg)
		w.CallMetrics = call.NewMetrics(reg)
	}
	return w, nil
}

// Session unlocks the identity with passphrase and returns the session
// key cache for the configured user.
func (w *Wire) Session(passphrase string) (*sessionsvc.Service, error) {
	if err := w.Config.Validate(); err != nil {
		return nil, err
	}
	kp, err := w.Identity.Load(passphrase)
	if err != nil {
		return nil, err
	}
	return sessionsvc.New(w.Config.UserID, kp, w.PeerKeys, w.Directory, w.Log), nil
}

// Publish uploads the local public key to the key directory.
func (w *Wire) Publish(ctx context.Context, passphrase string) (domain.Fingerprint, error) {
	sess, err := w.Session(passphrase)
	if err != nil {
		return "", err
	}
	defer sess.Clear()

	pub, err := sess.PublicKey()
	if err != nil {
		return "", err
	}
	if err := w.Directory.PublishPublicKey(ctx, w.Config.UserID, pub); err != nil {
		return "", err
	}
	return domain.Fingerprint(crypto.Fingerprint(pub)), nil
}

// Connector builds the pion-backed peer connector. onRemote may be nil.
func (w *Wire) Connector(onRemote func(domain.UserID, *webrtc.TrackRemote)) (*rtc.Connector, error) {
	return rtc.NewConnector(rtc.Config{
		STUNServers: w.Config.STUNServers,
		UDPPortMin:  w.Config.UDPPortMin,
		UDPPortMax:  w.Config.UDPPortMax,
		OnRemote:    onRemote,
		Log:         w.Log,
	})
}

// Client builds the runtime for one thread. Sink, notifier and observer may
// be nil.
func (w *Wire) Client(
	sess *sessionsvc.Service,
	thread domain.ThreadID,
	conn call.PeerConnector,
	media call.MediaSource,
	sink MessageSink,
	notifier Notifier,
	observer call.Observer,
) (*Client, error) {
	sc := w.Config.socketConfig(thread)
	sc.Log = w.Log
	sc.Metrics = w.SocketMetrics
	return NewClient(ClientConfig{
		Self:        w.Config.UserID,
		Thread:      thread,
		Keys:        sess,
		Users:       w.Directory,
		Connector:   conn,
		Media:       media,
		Sink:        sink,
		Notifier:    notifier,
		Observer:    observer,
		AutoAnswer:  w.Config.AutoAnswer,
		Socket:      sc,
		Log:         w.Log,
		CallMetrics: w.CallMetrics,
	})
}
