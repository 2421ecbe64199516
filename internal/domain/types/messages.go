package types

import "time"

// DecryptedMessage is what the message service hands to the UI.
type DecryptedMessage struct {
	ID        string    `json:"id"`
	Thread    ThreadID  `json:"thread_id"`
	From      UserID    `json:"from"`
	Plaintext []byte    `json:"plaintext"`
	SentAt    time.Time `json:"sent_at"`
}
