// chart.go implements the synchronous path: POST /api/ask-with-chart
// returns the full answer, the generated SQL, the result rows, and
// optionally a base64-encoded PNG chart in one response body.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// chartResponse mirrors the 2xx body of /ask-with-chart.
type chartResponse struct {
	Answer      string            `json:"answer"`
	SQLQuery    string            `json:"sql_query"`
	TableData   []json.RawMessage `json:"table_data"`
	ChartBase64 string            `json:"chart_base64"`
}

// AskWithChart submits a question on the chart path. Every failure —
// network, non-2xx, unparseable body — is normalized into ErrTransport;
// there are no retries and no partial results.
func (c *Client) AskWithChart(ctx context.Context, question string) (string, *QueryResult, error) {
	payload, err := json.Marshal(questionRequest{Question: question})
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ask-with-chart", bytes.NewReader(payload))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	LogRequest("AskWithChart", map[string]string{"Question": question})

	resp, err := c.httpc.Do(req)
	if err != nil {
		LogResponse("AskWithChart", "", err)
		return "", nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		LogResponse("AskWithChart", "", err)
		return "", nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
		LogResponse("AskWithChart", "", err)
		return "", nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var body chartResponse
	if err := json.Unmarshal(respBody, &body); err != nil {
		LogResponse("AskWithChart", "", err)
		return "", nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	table, err := decodeTable(body.TableData)
	if err != nil {
		LogResponse("AskWithChart", "", err)
		return "", nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	png, err := DecodeChart(body.ChartBase64)
	if err != nil {
		LogResponse("AskWithChart", "", err)
		return "", nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	LogResponse("AskWithChart", body.Answer, nil)
	return body.Answer, &QueryResult{
		SQLQuery: body.SQLQuery,
		Table:    table,
		ChartPNG: png,
	}, nil
}
