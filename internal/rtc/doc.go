// Package rtc adapts pion/webrtc to the call package.
//
// Connector opens peer connections with a static STUN list and no TURN
// relay, so peers behind symmetric NATs may fail to connect. SyntheticMedia
// produces local Opus and VP8 tracks for hosts without capture devices.
package rtc
