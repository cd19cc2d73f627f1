// controller.go orchestrates one submission end to end: guard, user
// message, transport dispatch, and settlement back into the store.
//
// The two transports stay separate on purpose — token streaming and
// one-shot chart generation have incompatible response shapes — but
// they share this one controller so transcript and error handling are
// written once.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/datachat-cli/datachat/applog"
	"github.com/datachat-cli/datachat/backend"
)

// Mode selects the transport for a submission.
type Mode int

const (
	// ModeStream submits via the token-streaming endpoint.
	ModeStream Mode = iota
	// ModeChart submits via the synchronous chart endpoint.
	ModeChart
)

// String returns the mode label used in logs and the status bar.
func (m Mode) String() string {
	if m == ModeChart {
		return "chart"
	}
	return "stream"
}

// FallbackErrorText is the fixed message shown for transport-level
// failures. Raw errors go to the log, not the transcript.
const FallbackErrorText = "Sorry, something went wrong while answering your question. Please try again."

// Querier is the backend surface the controller needs. *backend.Client
// implements it; tests substitute fakes.
type Querier interface {
	AskQuestion(ctx context.Context, question string, fn backend.StreamHandler) error
	AskWithChart(ctx context.Context, question string) (string, *backend.QueryResult, error)
}

// Controller drives submissions against a single conversation store.
type Controller struct {
	mu            sync.Mutex // serializes the acceptance check
	store         *Store
	client        Querier
	streamTimeout time.Duration
}

// NewController wires a controller to its store and backend client.
// streamTimeout bounds one streamed answer; zero disables the bound.
func NewController(store *Store, client Querier, streamTimeout time.Duration) *Controller {
	return &Controller{store: store, client: client, streamTimeout: streamTimeout}
}

// Store returns the conversation store the controller mutates.
func (c *Controller) Store() *Store {
	return c.store
}

// Submit runs one submission and blocks until it settles. It returns
// false — with no state change and nothing sent — when the trimmed
// input is empty or another submission is in flight; that is the
// busy/empty debounce, not an error.
//
// On acceptance the user message lands in the transcript before any
// network activity, so it always precedes its assistant reply.
func (c *Controller) Submit(ctx context.Context, text string, mode Mode) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	c.mu.Lock()
	if c.store.InFlight() {
		c.mu.Unlock()
		return false
	}
	c.store.AppendMessage(text, OriginUser)
	if err := c.store.BeginSubmission(); err != nil {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	applog.Event("SUBMIT", "conv=%s mode=%s question=%q", c.store.ConversationID(), mode, text)

	switch mode {
	case ModeChart:
		c.runChart(ctx, text)
	default:
		c.runStream(ctx, text)
	}
	return true
}

// runStream drives the token-streaming transport. Terminal events
// settle the store from inside the handler; anything else — transport
// error, timeout, stream ending without a complete event — settles it
// here with the generic fallback.
func (c *Controller) runStream(ctx context.Context, question string) {
	if c.streamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.streamTimeout)
		defer cancel()
	}

	var answer strings.Builder
	err := c.client.AskQuestion(ctx, question, func(ev backend.StreamEvent) {
		switch ev.Type {
		case backend.EventToken:
			answer.WriteString(ev.Content)
			c.store.AppendStreamToken(ev.Content)
		case backend.EventComplete:
			c.store.CompleteStreaming(answer.String(), &backend.QueryResult{
				SQLQuery: ev.SQLQuery,
				Table:    ev.Table,
			})
		case backend.EventError:
			c.store.FailSubmission(ev.Content)
		}
	})

	if c.store.InFlight() {
		if err != nil {
			applog.Error("stream submission: %v", err)
		}
		c.store.FailSubmission(FallbackErrorText)
	}
}

// runChart drives the synchronous transport.
func (c *Controller) runChart(ctx context.Context, question string) {
	answer, result, err := c.client.AskWithChart(ctx, question)
	if err != nil {
		applog.Error("chart submission: %v", err)
		c.store.FailSubmission(FallbackErrorText)
		return
	}
	c.store.CompleteSynchronous(answer, result)
}
