// Package socket keeps one duplex websocket open per chat thread.
//
// Client dials the thread endpoint, sends a ping frame on a fixed interval,
// and dispatches inbound frames to a Handler by their "type" field. When the
// connection drops without a normal closure (code 1000) it reconnects with
// exponential backoff, up to a fixed number of attempts, then reports
// StatusGaveUp.
//
// Frames written while the connection is open keep their send order. Frames
// are never replayed across a reconnect; Send reports false instead.
package socket
