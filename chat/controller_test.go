package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/datachat-cli/datachat/backend"
	"github.com/stretchr/testify/require"
)

// fakeQuerier scripts both transport paths for controller tests.
type fakeQuerier struct {
	mu sync.Mutex

	streamEvents []backend.StreamEvent
	streamErr    error
	streamBlock  bool // ignore events and block until ctx expires

	chartAnswer string
	chartResult *backend.QueryResult
	chartErr    error

	askCalls   int
	chartCalls int
}

func (f *fakeQuerier) AskQuestion(ctx context.Context, question string, fn backend.StreamHandler) error {
	f.mu.Lock()
	f.askCalls++
	f.mu.Unlock()

	if f.streamBlock {
		<-ctx.Done()
		return ctx.Err()
	}
	for _, ev := range f.streamEvents {
		fn(ev)
	}
	return f.streamErr
}

func (f *fakeQuerier) AskWithChart(ctx context.Context, question string) (string, *backend.QueryResult, error) {
	f.mu.Lock()
	f.chartCalls++
	f.mu.Unlock()
	return f.chartAnswer, f.chartResult, f.chartErr
}

func TestControllerStreamedSubmission(t *testing.T) {
	table := &backend.Table{
		Columns: []string{"name", "total"},
		Rows:    []map[string]any{{"name": "Alice", "total": float64(3)}},
	}
	fake := &fakeQuerier{
		streamEvents: []backend.StreamEvent{
			{Type: backend.EventToken, Content: "Alice "},
			{Type: backend.EventToken, Content: "has 3 orders."},
			{Type: backend.EventComplete, SQLQuery: "SELECT name, count(*) FROM orders", Table: table},
		},
	}
	store := NewStore()
	c := NewController(store, fake, 0)

	require.True(t, c.Submit(context.Background(), "who ordered most?", ModeStream))

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, OriginUser, msgs[0].Origin)
	require.Equal(t, "who ordered most?", msgs[0].Text)
	require.Equal(t, OriginAssistant, msgs[1].Origin)
	require.Equal(t, "Alice has 3 orders.", msgs[1].Text)

	result := store.Result()
	require.NotNil(t, result)
	require.Equal(t, "SELECT name, count(*) FROM orders", result.SQLQuery)
	require.Same(t, table, result.Table)
	require.False(t, store.InFlight())
}

func TestControllerChartSubmission(t *testing.T) {
	chartResult := &backend.QueryResult{
		SQLQuery: "SELECT month, revenue FROM sales",
		ChartPNG: []byte{0x89, 'P', 'N', 'G'},
	}
	fake := &fakeQuerier{chartAnswer: "Revenue peaked in June.", chartResult: chartResult}
	store := NewStore()
	c := NewController(store, fake, 0)

	require.True(t, c.Submit(context.Background(), "plot revenue by month", ModeChart))

	require.Equal(t, 1, fake.chartCalls)
	require.Zero(t, fake.askCalls)

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "Revenue peaked in June.", msgs[1].Text)
	require.Same(t, chartResult, store.Result())
}

func TestControllerBackendErrorEventShownVerbatim(t *testing.T) {
	fake := &fakeQuerier{
		streamEvents: []backend.StreamEvent{
			{Type: backend.EventError, Content: "I couldn't generate SQL for that question."},
		},
	}
	store := NewStore()
	c := NewController(store, fake, 0)

	require.True(t, c.Submit(context.Background(), "gibberish", ModeStream))

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "I couldn't generate SQL for that question.", msgs[1].Text)
	require.Nil(t, store.Result())
}

func TestControllerTransportFailureUsesFallbackText(t *testing.T) {
	fake := &fakeQuerier{streamErr: errors.New("connection refused")}
	store := NewStore()
	c := NewController(store, fake, 0)

	require.True(t, c.Submit(context.Background(), "any question", ModeStream))

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, FallbackErrorText, msgs[1].Text)
	require.False(t, store.InFlight())
}

func TestControllerChartFailureUsesFallbackText(t *testing.T) {
	fake := &fakeQuerier{chartErr: backend.ErrTransport}
	store := NewStore()
	c := NewController(store, fake, 0)

	require.True(t, c.Submit(context.Background(), "plot it", ModeChart))

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, FallbackErrorText, msgs[1].Text)
	require.Nil(t, store.Result())
}

func TestControllerEmptyInputDropped(t *testing.T) {
	fake := &fakeQuerier{}
	store := NewStore()
	c := NewController(store, fake, 0)

	require.False(t, c.Submit(context.Background(), "", ModeStream))
	require.False(t, c.Submit(context.Background(), "   \t  ", ModeStream))

	require.Empty(t, store.Messages())
	require.Zero(t, fake.askCalls)
	require.Zero(t, fake.chartCalls)
}

func TestControllerBusyGuardDropsConcurrentSubmission(t *testing.T) {
	fake := &fakeQuerier{streamBlock: true}
	store := NewStore()
	c := NewController(store, fake, 0)

	firstDone := make(chan bool)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		firstDone <- c.Submit(ctx, "first question", ModeStream)
	}()

	// Wait for the first submission to take the in-flight slot.
	require.Eventually(t, store.InFlight, time.Second, time.Millisecond)

	require.False(t, c.Submit(context.Background(), "second question", ModeChart))
	require.Zero(t, fake.chartCalls)

	// Only the first user message made it into the transcript.
	msgs := store.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "first question", msgs[0].Text)

	cancel()
	require.True(t, <-firstDone)
	require.False(t, store.InFlight())
}

func TestControllerStreamTimeoutSettlesSubmission(t *testing.T) {
	fake := &fakeQuerier{streamBlock: true}
	store := NewStore()
	c := NewController(store, fake, 20*time.Millisecond)

	require.True(t, c.Submit(context.Background(), "hangs forever", ModeStream))

	require.False(t, store.InFlight())
	msgs := store.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, FallbackErrorText, msgs[1].Text)
}

func TestControllerStreamEndingWithoutCompleteFails(t *testing.T) {
	fake := &fakeQuerier{
		streamEvents: []backend.StreamEvent{
			{Type: backend.EventToken, Content: "partial"},
		},
		streamErr: errors.New("stream ended without a complete event"),
	}
	store := NewStore()
	c := NewController(store, fake, 0)

	require.True(t, c.Submit(context.Background(), "cut off", ModeStream))

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, FallbackErrorText, msgs[1].Text)

	// The partial buffer does not survive settlement.
	text, active := store.StreamingText()
	require.Empty(t, text)
	require.False(t, active)
}

func TestControllerSubmitTrimsInput(t *testing.T) {
	fake := &fakeQuerier{
		streamEvents: []backend.StreamEvent{
			{Type: backend.EventComplete},
		},
	}
	store := NewStore()
	c := NewController(store, fake, 0)

	require.True(t, c.Submit(context.Background(), "  spaced out  ", ModeStream))
	require.Equal(t, "spaced out", store.Messages()[0].Text)
}
