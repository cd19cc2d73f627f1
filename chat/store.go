// store.go implements the conversation state store: the single source
// of truth for everything the UI renders.
//
// Design decisions:
//   - The transcript is append-only. No operation edits or removes a
//     message once appended.
//   - Exactly one of {idle with empty buffer, in-flight with a growing
//     buffer} holds at any instant. Settling operations are no-ops
//     once idle, so late events from a dead connection are dropped
//     instead of reopening a settled submission.
//   - A mutex guards all state: transport callbacks run on their own
//     goroutines while the TUI reads snapshots from the event loop.
package chat

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/datachat-cli/datachat/backend"
	"github.com/google/uuid"
)

// ErrAlreadyInFlight is returned by BeginSubmission while a prior
// submission has not settled.
var ErrAlreadyInFlight = errors.New("a submission is already in flight")

// Store holds the transcript, streaming buffer, query result, and
// submission state for one conversation.
type Store struct {
	mu sync.Mutex

	id     string // conversation id, used for log correlation
	nextID int64

	messages     []Message
	streaming    strings.Builder
	streamActive bool
	inFlight     bool
	result       *backend.QueryResult
}

// NewStore creates an empty conversation.
func NewStore() *Store {
	return &Store{id: uuid.NewString()}
}

// ConversationID returns the stable id of this conversation.
func (s *Store) ConversationID() string {
	return s.id
}

// AppendMessage appends an immutable message and returns it.
func (s *Store) AppendMessage(text string, origin Origin) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(text, origin)
}

func (s *Store) appendLocked(text string, origin Origin) Message {
	s.nextID++
	msg := Message{ID: s.nextID, Text: text, Origin: origin, At: time.Now()}
	s.messages = append(s.messages, msg)
	return msg
}

// BeginSubmission transitions to in-flight, clearing the previous
// result and any leftover streaming buffer. It fails while another
// submission is still in flight.
func (s *Store) BeginSubmission() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return ErrAlreadyInFlight
	}
	s.inFlight = true
	s.result = nil
	s.streaming.Reset()
	s.streamActive = false
	return nil
}

// AppendStreamToken grows the in-progress assistant reply. Tokens
// arriving after the submission has settled are dropped silently.
func (s *Store) AppendStreamToken(fragment string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inFlight {
		return
	}
	s.streamActive = true
	s.streaming.WriteString(fragment)
}

// CompleteStreaming settles a streamed submission: the final text
// becomes an assistant message, the buffer is cleared, and the result
// is stored. No-op when already idle.
func (s *Store) CompleteStreaming(finalText string, result *backend.QueryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inFlight {
		return
	}
	s.appendLocked(finalText, OriginAssistant)
	s.streaming.Reset()
	s.streamActive = false
	s.result = result
	s.inFlight = false
}

// CompleteSynchronous settles a chart-path submission. No-op when
// already idle.
func (s *Store) CompleteSynchronous(answerText string, result *backend.QueryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inFlight {
		return
	}
	s.appendLocked(answerText, OriginAssistant)
	s.result = result
	s.inFlight = false
}

// FailSubmission settles a failed submission with a user-facing
// explanation. The result stays cleared: no partial results surface
// on error. No-op when already idle.
func (s *Store) FailSubmission(userFacingMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inFlight {
		return
	}
	s.appendLocked(userFacingMessage, OriginAssistant)
	s.streaming.Reset()
	s.streamActive = false
	s.inFlight = false
}

// Reset discards the transcript and result and starts a fresh
// conversation with a new id. Refused while a submission is in
// flight, since dropping the transcript under an active stream would
// orphan its buffer.
func (s *Store) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return false
	}
	s.id = uuid.NewString()
	s.nextID = 0
	s.messages = nil
	s.result = nil
	s.streaming.Reset()
	s.streamActive = false
	return true
}

// Messages returns a snapshot copy of the transcript.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// StreamingText returns the in-progress assistant reply and whether a
// stream is currently active.
func (s *Store) StreamingText() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming.String(), s.streamActive
}

// InFlight reports whether a submission is currently in flight.
func (s *Store) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Result returns the last settled query result, or nil.
func (s *Store) Result() *backend.QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}
