// Package relay talks to, and stands in for, the messaging backend.
//
// HTTP is the client for the REST collaborators:
//   - Fetching a user's display data for call participants.
//   - Fetching a peer's P-256 public key on first contact.
//   - Publishing our own public key.
//
// Requests are JSON over HTTP, carry the bearer access token, and accept a
// context for cancellation and deadlines. Non-2xx statuses are returned as
// errors with the HTTP method, path, and status text to aid diagnostics.
//
// Server is an in-memory development backend serving the same REST routes
// plus the per-thread websocket hub. It is used by cmd/relay and by tests.
package relay
