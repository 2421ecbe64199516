package rtc

import (
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"

	"github.com/emmaarthur191/coastal-project-sub004/internal/call"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

// DefaultSTUNServers is used when Config.STUNServers is nil.
var DefaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

// Config configures a Connector.
type Config struct {
	// STUNServers overrides DefaultSTUNServers. An empty, non-nil slice
	// disables STUN and leaves only host candidates.
	STUNServers []string
	UDPPortMin  uint16
	UDPPortMax  uint16
	// OnRemote consumes remote tracks. Nil means Drain.
	OnRemote func(participant domain.UserID, track *webrtc.TrackRemote)
	Log      *zap.Logger
}

// Connector implements call.PeerConnector on a shared pion API.
type Connector struct {
	api      *webrtc.API
	ice      []webrtc.ICEServer
	onRemote func(domain.UserID, *webrtc.TrackRemote)
	log      *zap.Logger
}

var _ call.PeerConnector = (*Connector)(nil)

// NewConnector builds a Connector with the default codecs registered.
func NewConnector(cfg Config) (*Connector, error) {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.STUNServers == nil {
		cfg.STUNServers = DefaultSTUNServers
	}
	if cfg.OnRemote == nil {
		cfg.OnRemote = func(_ domain.UserID, t *webrtc.TrackRemote) { Drain(t) }
	}

	me := &webrtc.MediaEngine{}
	if err := me.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}
	se := webrtc.SettingEngine{}
	if cfg.UDPPortMin > 0 && cfg.UDPPortMax >= cfg.UDPPortMin {
		if err := se.SetEphemeralUDPPortRange(cfg.UDPPortMin, cfg.UDPPortMax); err != nil {
			return nil, fmt.Errorf("udp port range: %w", err)
		}
	}

	var ice []webrtc.ICEServer
	if len(cfg.STUNServers) > 0 {
		ice = append(ice, webrtc.ICEServer{URLs: cfg.STUNServers})
	}
	return &Connector{
		api:      webrtc.NewAPI(webrtc.WithMediaEngine(me), webrtc.WithSettingEngine(se)),
		ice:      ice,
		onRemote: cfg.OnRemote,
		log:      cfg.Log.Named("rtc"),
	}, nil
}

// Connect opens a peer connection to participant carrying media's tracks.
func (c *Connector) Connect(participant domain.UserID, media call.LocalMedia, ev call.PeerEvents) (call.Peer, error) {
	pc, err := c.api.NewPeerConnection(webrtc.Configuration{ICEServers: c.ice})
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}
	log := c.log.With(zap.String("peer", participant.String()))

	var tracks []webrtc.TrackLocal
	if media != nil {
		tracks = media.Tracks()
	}
	for _, t := range tracks {
		sender, err := pc.AddTrack(t)
		if err != nil {
			_ = pc.Close()
			return nil, fmt.Errorf("add %s track: %w", t.Kind(), err)
		}
		go drainRTCP(sender)
	}
	if len(tracks) == 0 {
		if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio,
			webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionRecvonly}); err != nil {
			_ = pc.Close()
			return nil, fmt.Errorf("add receive-only transceiver: %w", err)
		}
	}

	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil || ev.OnICECandidate == nil {
			return
		}
		ev.OnICECandidate(cand.ToJSON())
	})
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Debug("connection state", zap.Stringer("state", s))
		if ev.OnStateChange != nil {
			ev.OnStateChange(s)
		}
	})
	pc.OnTrack(func(t *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Debug("remote track", zap.String("kind", t.Kind().String()), zap.String("stream", t.StreamID()))
		if ev.OnTrack != nil {
			ev.OnTrack(t)
		}
		go c.onRemote(participant, t)
	})
	return &peer{pc: pc}, nil
}

// peer implements call.Peer over one pion PeerConnection.
type peer struct {
	pc *webrtc.PeerConnection
}

func (p *peer) CreateOffer() (webrtc.SessionDescription, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("create offer: %w", err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("set local offer: %w", err)
	}
	return offer, nil
}

func (p *peer) CreateAnswer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	if offer.Type != webrtc.SDPTypeOffer {
		return webrtc.SessionDescription{}, errors.New("remote description is not an offer")
	}
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("set remote offer: %w", err)
	}
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("create answer: %w", err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("set local answer: %w", err)
	}
	return answer, nil
}

func (p *peer) SetAnswer(answer webrtc.SessionDescription) error {
	if answer.Type != webrtc.SDPTypeAnswer {
		return errors.New("remote description is not an answer")
	}
	if err := p.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("set remote answer: %w", err)
	}
	return nil
}

func (p *peer) AddICECandidate(c webrtc.ICECandidateInit) error {
	if err := p.pc.AddICECandidate(c); err != nil {
		return fmt.Errorf("add ice candidate: %w", err)
	}
	return nil
}

func (p *peer) Close() error { return p.pc.Close() }

// drainRTCP reads RTCP for a sender so interceptors keep running.
func drainRTCP(s *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := s.Read(buf); err != nil {
			return
		}
	}
}

// Drain discards RTP from t until the track ends.
func Drain(t *webrtc.TrackRemote) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := t.Read(buf); err != nil {
			return
		}
	}
}
