// Package session caches the per-peer AES-GCM keys of one authenticated user.
//
// Keys are derived once per peer from P-256 ECDH and HKDF, and are wiped
// together with the local key pair when the session is cleared on logout.
package session
