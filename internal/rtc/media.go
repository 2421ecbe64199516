package rtc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/emmaarthur191/coastal-project-sub004/internal/call"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

const opusFrame = 20 * time.Millisecond

// opusSilence is a single Opus frame encoding 20ms of silence.
var opusSilence = []byte{0xf8, 0xff, 0xfe}

// SyntheticMedia is a call.MediaSource without capture devices. Audio tracks
// carry Opus silence; video tracks carry whatever the host writes to them.
type SyntheticMedia struct{}

var _ call.MediaSource = SyntheticMedia{}

// NewSyntheticMedia returns a SyntheticMedia.
func NewSyntheticMedia() SyntheticMedia { return SyntheticMedia{} }

// Acquire creates the tracks for t and starts the audio pump.
func (SyntheticMedia) Acquire(ctx context.Context, t domain.CallType) (call.LocalMedia, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, fmt.Errorf("unsupported call type %q", t)
	}
	stream := "coastal-" + uuid.NewString()

	audio, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"audio", stream,
	)
	if err != nil {
		return nil, fmt.Errorf("audio track: %w", err)
	}
	lt := &LocalTracks{Audio: audio, stop: make(chan struct{})}

	if t == domain.CallTypeVideo {
		lt.Video, err = webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
			"video", stream,
		)
		if err != nil {
			return nil, fmt.Errorf("video track: %w", err)
		}
	}

	lt.wg.Add(1)
	go lt.pumpSilence()
	return lt, nil
}

// LocalTracks is the media returned by SyntheticMedia.
type LocalTracks struct {
	Audio *webrtc.TrackLocalStaticSample
	Video *webrtc.TrackLocalStaticSample

	once sync.Once
	stop chan struct{}
	wg   sync.WaitGroup
}

// Tracks lists the local tracks.
func (l *LocalTracks) Tracks() []webrtc.TrackLocal {
	out := []webrtc.TrackLocal{l.Audio}
	if l.Video != nil {
		out = append(out, l.Video)
	}
	return out
}

// Stop ends the audio pump. It is idempotent.
func (l *LocalTracks) Stop() {
	l.once.Do(func() { close(l.stop) })
	l.wg.Wait()
}

// Stopped reports whether Stop has been called.
func (l *LocalTracks) Stopped() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

func (l *LocalTracks) pumpSilence() {
	defer l.wg.Done()
	t := time.NewTicker(opusFrame)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-t.C:
			// Errors before negotiation are expected; the track has no binding yet.
			_ = l.Audio.WriteSample(media.Sample{Data: opusSilence, Duration: opusFrame})
		}
	}
}
