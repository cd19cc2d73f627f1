// Package chat owns the conversation core: the append-only transcript,
// the in-flight streaming buffer, the last query result, and the
// submission state machine that drives both transports. It has no
// rendering dependencies so the whole protocol can be tested without
// a terminal.
package chat

import "time"

// Origin identifies the sender of a transcript message.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// DisplayName returns a human-readable label for the origin.
func (o Origin) DisplayName() string {
	switch o {
	case OriginUser:
		return "You"
	case OriginAssistant:
		return "AI"
	default:
		return string(o)
	}
}

// Message is one immutable transcript entry. Messages are never edited
// or removed once appended; ordering is append order.
type Message struct {
	ID     int64
	Text   string
	Origin Origin
	At     time.Time
}
