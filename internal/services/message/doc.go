// Package message encrypts outgoing chat messages and decrypts incoming ones.
//
// Send seals plaintext under the per-peer session key and writes a
// new_message frame whose content is the base64 envelope. Open reverses it.
// A message that fails to decrypt is reported as an error; its ciphertext is
// never shown as if it were plaintext.
package message
