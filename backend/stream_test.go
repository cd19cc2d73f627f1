package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/datachat-cli/datachat/config"
	"github.com/stretchr/testify/require"
)

// sseHandler writes scripted SSE data payloads and keeps the stream
// open afterwards so only a terminal event (or the client) ends it.
func sseHandler(t *testing.T, payloads []string, closeAfter bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/ask-question", r.URL.Path)

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		// Flush the headers immediately so the client sees the
		// response even when there are no payloads; an unflushed
		// response also keeps the server from noticing the client
		// disconnect, deadlocking srv.Close in cleanup.
		flusher.Flush()

		for _, p := range payloads {
			fmt.Fprintf(w, "data: %s\n\n", p)
			flusher.Flush()
		}

		if closeAfter {
			return
		}
		// Hold the stream open until the client disconnects.
		<-r.Context().Done()
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.Config{BaseURL: srv.URL}), srv
}

func TestAskQuestionDeliversTokensThenComplete(t *testing.T) {
	payloads := []string{
		`{"type":"token","content":"The top "}`,
		`{"type":"token","content":"city is Oslo."}`,
		`{"type":"complete","sql_query":"SELECT city FROM t","table_data":[{"city":"Oslo"}]}`,
	}
	client, _ := newTestClient(t, sseHandler(t, payloads, false))

	var events []StreamEvent
	err := client.AskQuestion(context.Background(), "top city?", func(ev StreamEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	require.Len(t, events, 3)
	require.Equal(t, EventToken, events[0].Type)
	require.Equal(t, "The top ", events[0].Content)
	require.Equal(t, EventToken, events[1].Type)

	final := events[2]
	require.Equal(t, EventComplete, final.Type)
	require.Equal(t, "SELECT city FROM t", final.SQLQuery)
	require.Equal(t, []string{"city"}, final.Table.Columns)
}

func TestAskQuestionErrorEventIsTerminal(t *testing.T) {
	payloads := []string{
		`{"type":"error","content":"I couldn't answer that."}`,
		`{"type":"token","content":"should never arrive"}`,
	}
	client, _ := newTestClient(t, sseHandler(t, payloads, false))

	var events []StreamEvent
	err := client.AskQuestion(context.Background(), "bad question", func(ev StreamEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	require.Len(t, events, 1)
	require.Equal(t, EventError, events[0].Type)
	require.Equal(t, "I couldn't answer that.", events[0].Content)
}

func TestAskQuestionMalformedEventBecomesError(t *testing.T) {
	payloads := []string{`{this is not json`}
	client, _ := newTestClient(t, sseHandler(t, payloads, false))

	var events []StreamEvent
	err := client.AskQuestion(context.Background(), "q", func(ev StreamEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	require.Len(t, events, 1)
	require.Equal(t, EventError, events[0].Type)
	require.Equal(t, decodeErrorText, events[0].Content)
}

func TestAskQuestionStreamEndsWithoutComplete(t *testing.T) {
	payloads := []string{`{"type":"token","content":"partial"}`}
	client, _ := newTestClient(t, sseHandler(t, payloads, true))

	var events []StreamEvent
	err := client.AskQuestion(context.Background(), "q", func(ev StreamEvent) {
		events = append(events, ev)
	})
	require.Error(t, err)
	require.Len(t, events, 1)
}

func TestAskQuestionServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	err := client.AskQuestion(context.Background(), "q", func(StreamEvent) {
		t.Fatal("no events expected on a failed connection")
	})
	require.Error(t, err)
}

func TestAskQuestionContextCancellation(t *testing.T) {
	client, _ := newTestClient(t, sseHandler(t, nil, false))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := client.AskQuestion(ctx, "q", func(StreamEvent) {})
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}
