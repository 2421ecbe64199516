// Package main runs the in-memory messaging backend used during development
// and tests. It relays thread socket frames between members and serves the
// user and key directories.
//
// HTTP API
//
//	GET /ws/messaging/{thread}/?token={user}
//	    Upgrade to a websocket joined to {thread} as {user}. Chat frames are
//	    broadcast to every member of the thread, the sender included.
//	    Signaling frames go only to the member named by target_user_id.
//	    A ping frame is answered with a pong frame.
//
//	GET /api/users/{id}
//	    Return {id, first_name, last_name} for {id}. Unknown users are
//	    returned with empty names.
//
//	GET /api/keys/{id}
//	    Return {user_id, public_key} for {id}, or 404.
//
//	PUT /api/keys/{id}
//	    Store the caller's public key. The bearer token must equal {id}.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - The access token is taken as the caller's user id; there is no real
//     authentication.
//   - A lightweight access log records method, path, remote, status, bytes and
//     duration for each request.
//   - The default listen address is :8080.
//
// The relay never sees plaintext or private keys; chat content arrives
// already encrypted and only public keys are stored.
package main
