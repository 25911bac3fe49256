package domain

import "context"

// InboundEvent is one text message received from a subscriber.
type InboundEvent struct {
	Recipient RecipientID
	Text      string
}

// Keyboard is a reply keyboard layout as rows of button labels.
type Keyboard [][]string

// Message is an outbound chat message. Text is HTML.
type Message struct {
	Text     string
	Keyboard Keyboard
}

// Notifier delivers messages to a subscriber.
type Notifier interface {
	Send(ctx context.Context, to RecipientID, msg Message) error
}

// EventSource produces inbound events until ctx is cancelled. The returned
// channel is closed when the source stops; it cannot be restarted.
type EventSource interface {
	Events(ctx context.Context) <-chan InboundEvent
}
