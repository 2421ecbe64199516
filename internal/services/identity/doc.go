// Package identity manages creation, encryption and loading of the local P-256 key pair.
//
// It enforces the passphrase policy and persists the key pair via the
// domain.IdentityStore.
package identity
