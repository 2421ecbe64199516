package crypto

import (
	"encoding/base64"
	"fmt"
)

const (
	// IVBytes is the 96-bit AES-GCM nonce length.
	IVBytes = 12
	// TagBytes is the AES-GCM authentication tag length.
	TagBytes = 16
)

// Envelope is one encrypted message payload.
type Envelope struct {
	IV         [IVBytes]byte
	Ciphertext []byte
	Tag        [TagBytes]byte
}

// Bytes packs the envelope as IV || ciphertext || tag.
func (e Envelope) Bytes() []byte {
	out := make([]byte, 0, IVBytes+len(e.Ciphertext)+TagBytes)
	out = append(out, e.IV[:]...)
	out = append(out, e.Ciphertext...)
	out = append(out, e.Tag[:]...)
	return out
}

// String returns the canonical base64 blob.
func (e Envelope) String() string { return B64(e.Bytes()) }

// B64 returns standard base64 encoding without newlines.
func B64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// MarshalText implements encoding.TextMarshaler.
func (e Envelope) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Envelope) UnmarshalText(b []byte) error {
	parsed, err := ParseEnvelope(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// ParseEnvelope decodes the canonical base64 blob.
func ParseEnvelope(s string) (Envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Envelope{}, fail("parse envelope", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err))
	}
	return EnvelopeFromBytes(raw)
}

// EnvelopeFromBytes splits IV || ciphertext || tag.
func EnvelopeFromBytes(raw []byte) (Envelope, error) {
	if len(raw) < IVBytes+TagBytes {
		return Envelope{}, fail("parse envelope", fmt.Errorf("%w: %d bytes", ErrMalformedEnvelope, len(raw)))
	}
	var e Envelope
	copy(e.IV[:], raw[:IVBytes])
	copy(e.Tag[:], raw[len(raw)-TagBytes:])
	e.Ciphertext = append([]byte(nil), raw[IVBytes:len(raw)-TagBytes]...)
	return e, nil
}
