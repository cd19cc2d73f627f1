// Package backend implements the HTTP client for the AI SQL Agent
// backend: the streamed question endpoint, the synchronous chart
// endpoint, and the schema/health helpers.
//
// Design decisions:
//   - Two separate transports because the two endpoints have
//     incompatible response shapes (incremental SSE vs one-shot JSON
//     with a binary chart). They share nothing but the base URL.
//   - No automatic retries or reconnects on either path; a failed
//     submission is settled and the user resubmits.
//   - All methods accept context for cancellation (async-friendly).
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/datachat-cli/datachat/config"
)

// ErrTransport is the normalized failure of the synchronous path: any
// network error, non-2xx status, or malformed body wraps it.
var ErrTransport = errors.New("backend transport failure")

// syncTimeout bounds the chart, schema, and health calls. Chart
// generation renders a PNG server-side, so it is generous.
const syncTimeout = 60 * time.Second

// Client talks to the AI SQL Agent backend.
type Client struct {
	baseURL string // includes the /api prefix
	httpc   *http.Client
	// streamc has no client-level timeout: streams run until the
	// server closes them or the caller's context expires.
	streamc *http.Client
}

// NewClient builds a client for the configured backend.
func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + "/api",
		httpc:   &http.Client{Timeout: syncTimeout},
		streamc: &http.Client{},
	}
}

// questionRequest is the body of both question endpoints.
type questionRequest struct {
	Question string `json:"question"`
}

// Health probes GET /api/ and returns the backend's greeting message.
func (c *Client) Health(ctx context.Context) (string, error) {
	var body struct {
		Message string `json:"message"`
	}
	if err := c.getJSON(ctx, "/", &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

// Schema fetches the database schema description from GET /api/schema.
func (c *Client) Schema(ctx context.Context) (string, error) {
	var body struct {
		Schema string `json:"schema"`
	}
	if err := c.getJSON(ctx, "/schema", &body); err != nil {
		return "", err
	}
	return body.Schema, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed (is the server running at %s?): %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend error (%d): %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("backend parse error: %w", err)
	}
	return nil
}
