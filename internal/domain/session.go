package domain

import "time"

// RecipientID identifies a subscriber on the chat transport.
type RecipientID int64

// PendingInput is what the next free-text message from a subscriber answers.
type PendingInput int

const (
	PendingNone PendingInput = iota
	PendingPair
	PendingLanguage
)

// String returns the lowercase name of the pending input kind.
func (p PendingInput) String() string {
	switch p {
	case PendingPair:
		return "awaiting_pair"
	case PendingLanguage:
		return "awaiting_language"
	default:
		return "none"
	}
}

// Session is the per-subscriber state. Copies are handed out by the session
// registry; mutate only through its Update method.
type Session struct {
	Recipient       RecipientID
	Pair            Pair
	WatcherEnabled  bool
	LastScanAt      time.Time
	NotifyThreshold float64 // percent
	LastNotified    string  // fingerprint of the last watcher alert
	Locale          string
	Pending         PendingInput
	CreatedAt       time.Time
}

// SessionDefaults are applied when a session is created on first contact.
type SessionDefaults struct {
	Pair            Pair
	NotifyThreshold float64
	Locale          string
}
