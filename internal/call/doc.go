// Package call orchestrates mesh calls over peer-to-peer media connections.
//
// # Lifecycle
//
// A Manager owns one call. It moves through Initializing, Calling, Connected
// and Ended; Ended is terminal. Start acquires local media and, for the
// initiator, offers to every participant. The first connected peer, or an
// answered inbound offer, moves the call to Connected.
//
// # Signals
//
// Route feeds inbound signals to the per-participant pool. Signals from
// unknown senders that arrive before local media is ready wait in a FIFO
// queue and are replayed, in order, once Start has media. Remote ICE
// candidates that precede the remote description wait on their entry.
//
// # Teardown
//
// Hangup, Close, a media failure or an empty pool end the call. Teardown runs
// once: local tracks stop first, every participant gets call_end, every peer
// connection closes, then OnEnd fires. A failure of one participant's
// connection removes only that participant.
package call
