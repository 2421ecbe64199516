package types

// UserID identifies an authenticated staff user.
type UserID string

// String returns the string form of the user identifier.
func (u UserID) String() string { return string(u) }

// ThreadID identifies a chat thread; one socket connection is opened per thread.
type ThreadID string

// String returns the string form of the thread identifier.
func (id ThreadID) String() string { return string(id) }

// CallID identifies a single call across all of its participants.
type CallID string

// String returns the string form of the call identifier.
func (id CallID) String() string { return string(id) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// PublicKey is an uncompressed SEC1 encoded P-256 public key.
type PublicKey []byte
