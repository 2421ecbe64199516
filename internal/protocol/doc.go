// Package protocol groups the JSON wire formats carried over the per-thread
// messaging socket.
//
// # Frames
//
// Every frame is a JSON object with a "type" discriminator. Chat events
// (new_message, reaction_added, reaction_removed, typing_start, typing_stop,
// presence_update) and the ping/pong heartbeat live in package frame.
//
// # Signals
//
// Call signaling (call_offer, call_answer, new_ice_candidate, call_end,
// call_busy) is a closed union in package signal. Each signal carries
// sender_id, target_user_id and an optional call_id; offers and answers carry
// a session description, candidates an ICE candidate.
//
// No delivery or ordering guarantee survives a reconnect. Missed frames are
// not replayed by the client.
package protocol
