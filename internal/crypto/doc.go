// Package crypto exposes the primitives used for end-to-end encrypted chat.
//
// Contents
//
//   - P-256 ECDH key generation, export and import (GenerateKeyPair,
//     ExportPublicKey, ImportPublicKey, ExportPrivateKey, ImportPrivateKey)
//   - Session key derivation from an ECDH shared secret via HKDF-SHA256
//     (DeriveSessionKey, ConversationSalt)
//   - AES-256-GCM authenticated encryption of message payloads (Encrypt,
//     Decrypt) and the canonical Envelope wire format
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Errors
//
// Every failure is reported as *Error so callers can tell cryptographic
// failures apart from transport or storage failures with errors.As. Decrypt
// fails closed: it never returns partial plaintext.
//
// # Notes
//
// The envelope layout is IV(12) || ciphertext || tag(16), base64 encoded as a
// single blob. It matches what WebCrypto AES-GCM produces when the IV is
// prepended, so browser and Go peers interoperate.
package crypto
