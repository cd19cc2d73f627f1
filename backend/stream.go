// stream.go implements the streaming path: POST /api/ask-question
// answered as a server-sent event stream of token/complete/error
// payloads. Raw events are decoded here; the caller sees only typed
// StreamEvents in arrival order.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tmaxmax/go-sse"
)

// StreamHandler receives decoded events in arrival order. The handler
// runs on the stream read loop, so it must not block.
type StreamHandler func(StreamEvent)

// AskQuestion submits a natural-language question and feeds the
// decoded event stream to fn. It returns once the stream has settled.
//
// A complete or error event is terminal: reading stops after
// delivering it and any bytes still in flight are discarded. A stream
// that ends without a terminal event (connection drop, server crash)
// returns a non-nil error; the caller decides what the user sees.
func (c *Client) AskQuestion(ctx context.Context, question string, fn StreamHandler) error {
	payload, err := json.Marshal(questionRequest{Question: question})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ask-question", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	LogRequest("AskQuestion", map[string]string{"Question": question})

	resp, err := c.streamc.Do(req)
	if err != nil {
		LogResponse("AskQuestion", "", err)
		return fmt.Errorf("ask-question request failed (is the server running at %s?): %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("ask-question stream refused (%d): %s", resp.StatusCode, string(body))
		LogResponse("AskQuestion", "", err)
		return err
	}

	settled := false
	for raw, err := range sse.Read(resp.Body, nil) {
		if err != nil {
			LogResponse("AskQuestion", "", err)
			return fmt.Errorf("ask-question stream: %w", err)
		}
		ev := decodeStreamEvent([]byte(raw.Data))
		fn(ev)
		if ev.Type != EventToken {
			settled = true
			break
		}
	}

	if !settled {
		// EOF before any terminal event.
		err := fmt.Errorf("ask-question stream ended without a complete event")
		LogResponse("AskQuestion", "", err)
		return err
	}

	LogResponse("AskQuestion", "stream settled", nil)
	return nil
}
