package signal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// MarshalJSON methods add the "type" discriminator. The local plain types
// drop the method set so json.Marshal does not recurse.

func (m Offer) MarshalJSON() ([]byte, error) {
	type plain Offer
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindOffer, plain(m)})
}

func (m Answer) MarshalJSON() ([]byte, error) {
	type plain Answer
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindAnswer, plain(m)})
}

func (m Candidate) MarshalJSON() ([]byte, error) {
	type plain Candidate
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindCandidate, plain(m)})
}

func (m End) MarshalJSON() ([]byte, error) {
	type plain End
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindEnd, plain(m)})
}

func (m Busy) MarshalJSON() ([]byte, error) {
	type plain Busy
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindBusy, plain(m)})
}

// Decode parses and validates one signaling frame.
func Decode(data []byte) (Message, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var (
		msg Message
		err error
	)
	switch head.Type {
	case KindOffer:
		var m Offer
		if err = json.Unmarshal(data, &m); err == nil {
			err = checkSDP(m.SDP, webrtc.SDPTypeOffer)
		}
		if err == nil && m.CallType != "" && !m.CallType.Valid() {
			err = fmt.Errorf("call type %q", m.CallType)
		}
		msg = m
	case KindAnswer:
		var m Answer
		if err = json.Unmarshal(data, &m); err == nil {
			err = checkSDP(m.SDP, webrtc.SDPTypeAnswer)
		}
		msg = m
	case KindCandidate:
		var m Candidate
		if err = json.Unmarshal(data, &m); err == nil && m.Candidate.Candidate == "" {
			err = errors.New("empty candidate")
		}
		msg = m
	case KindEnd:
		var m End
		err = json.Unmarshal(data, &m)
		msg = m
	case KindBusy:
		var m Busy
		err = json.Unmarshal(data, &m)
		msg = m
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, head.Type, err)
	}
	if msg.Head().SenderID == "" {
		return nil, fmt.Errorf("%w: %s: missing sender_id", ErrMalformed, head.Type)
	}
	return msg, nil
}

func checkSDP(sd webrtc.SessionDescription, want webrtc.SDPType) error {
	if sd.SDP == "" {
		return errors.New("empty sdp")
	}
	if sd.Type != want {
		return fmt.Errorf("sdp type %s, want %s", sd.Type, want)
	}
	return nil
}
