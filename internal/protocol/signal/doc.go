// Package signal defines the closed set of call signaling messages.
//
// A Message is one of Offer, Answer, Candidate, End or Busy. Consumers handle
// them exhaustively through Visitor; adding a kind adds a Visitor method, so
// every consumer stops compiling until it handles the new kind.
//
// Decode validates inbound frames and reports ErrUnknownKind or ErrMalformed.
// Callers log and drop such frames; a bad signal never ends a call.
package signal
