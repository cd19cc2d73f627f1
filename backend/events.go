// events.go defines the decoded wire types shared by both transports.
//
// The streaming endpoint delivers JSON payloads discriminated by a
// "type" field; the chart endpoint returns one JSON body. Both carry
// table_data as a list of records whose field order matters for
// display, so rows are decoded from raw JSON to preserve it.
package backend

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EventType discriminates events on the streaming path.
type EventType string

const (
	EventToken    EventType = "token"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// decodeErrorText is shown to the user when an event payload cannot be
// parsed. The raw decode error goes to the backend log, not the chat.
const decodeErrorText = "Received a malformed response from the server."

// StreamEvent is one decoded server-sent event from /ask-question.
type StreamEvent struct {
	Type     EventType
	Content  string // token fragment, or user-facing error text
	SQLQuery string // complete only
	Table    *Table // complete only
}

// Table holds result rows in the column order the backend produced.
type Table struct {
	Columns []string
	Rows    []map[string]any
}

// QueryResult is the settled output of one successful submission.
// It is wholly replaced by each submission, never merged.
type QueryResult struct {
	SQLQuery string
	Table    *Table
	ChartPNG []byte // nil when the backend produced no chart
}

// wireEvent mirrors the JSON shape of a streaming event payload.
type wireEvent struct {
	Type      string            `json:"type"`
	Content   string            `json:"content"`
	SQLQuery  string            `json:"sql_query"`
	TableData []json.RawMessage `json:"table_data"`
}

// decodeStreamEvent turns a raw SSE data payload into a typed event.
// A malformed payload becomes an error-type event rather than being
// dropped: the stream reader never crashes on bad input.
func decodeStreamEvent(data []byte) StreamEvent {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		LogResponse("StreamEvent", "", fmt.Errorf("decode event: %w", err))
		return StreamEvent{Type: EventError, Content: decodeErrorText}
	}

	switch EventType(w.Type) {
	case EventToken:
		return StreamEvent{Type: EventToken, Content: w.Content}

	case EventComplete:
		table, err := decodeTable(w.TableData)
		if err != nil {
			LogResponse("StreamEvent", "", fmt.Errorf("decode table_data: %w", err))
			return StreamEvent{Type: EventError, Content: decodeErrorText}
		}
		return StreamEvent{Type: EventComplete, SQLQuery: w.SQLQuery, Table: table}

	case EventError:
		return StreamEvent{Type: EventError, Content: w.Content}

	default:
		LogResponse("StreamEvent", "", fmt.Errorf("unknown event type %q", w.Type))
		return StreamEvent{Type: EventError, Content: decodeErrorText}
	}
}

// decodeTable decodes table_data records, recovering column order from
// the first record's raw JSON (Go maps would lose it).
func decodeTable(raws []json.RawMessage) (*Table, error) {
	t := &Table{}
	if len(raws) == 0 {
		return t, nil
	}

	cols, err := fieldOrder(raws[0])
	if err != nil {
		return nil, err
	}
	t.Columns = cols

	t.Rows = make([]map[string]any, 0, len(raws))
	for i, raw := range raws {
		var row map[string]any
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// fieldOrder walks the first record's tokens to list keys in wire order.
func fieldOrder(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("record is not a JSON object")
	}

	var cols []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", keyTok)
		}
		cols = append(cols, key)
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

// skipValue consumes one JSON value, nested or scalar.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

// DecodeChart strips the optional data-URL prefix and decodes the
// base64 PNG payload. Empty input returns nil without error.
func DecodeChart(chartBase64 string) ([]byte, error) {
	s := strings.TrimSpace(chartBase64)
	if s == "" {
		return nil, nil
	}
	if i := strings.Index(s, "base64,"); i >= 0 {
		s = s[i+len("base64,"):]
	}
	png, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	return png, nil
}

// FormatCell renders a decoded JSON scalar the way the backend would
// print it: integral floats without a decimal point, no quoting.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// StringRows converts rows to display strings in column order.
func (t *Table) StringRows() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = FormatCell(row[col])
		}
		out = append(out, cells)
	}
	return out
}
