// Package store provides persistence for the local key material and the
// per-peer public keys learned during a session.
//
// It contains concrete implementations of the domain storage interfaces:
//   - IdentityFileStore keeps the exported P-256 private key on disk,
//     sealed with a passphrase-derived key (scrypt + ChaCha20-Poly1305).
//   - PeerKeyMemoryStore keeps peer public keys for the process lifetime.
//     An entry never changes once stored; key rotation is not supported.
//
// All methods are concurrency-safe via internal locking.
package store
