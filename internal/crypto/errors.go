package crypto

import "errors"

var (
	// ErrMalformedKey is returned when imported key material cannot be parsed.
	ErrMalformedKey = errors.New("malformed key")
	// ErrMalformedEnvelope is returned when an envelope is truncated or not base64.
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrAuthentication is returned when the GCM tag does not verify.
	ErrAuthentication = errors.New("message authentication failed")
	// ErrKeyWiped is returned when a session key is used after Wipe.
	ErrKeyWiped = errors.New("session key has been wiped")
)

// Error is the typed failure for every key export/import, derive, encrypt and
// decrypt operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "crypto: " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func fail(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// IsCryptoError reports whether err carries an *Error.
func IsCryptoError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}
