// messages.go defines Bubble Tea messages used for async communication.
//
// All backend operations run in goroutines and send results back to
// the TUI via these message types, ensuring the UI never blocks.
package tui

import "time"

// SubmissionSettledMsg is sent when a submission has settled on either
// path — success or failure. Accepted is false when the controller's
// busy/empty guard dropped the submission.
type SubmissionSettledMsg struct {
	Accepted bool
}

// StreamTickMsg drives transcript repaints while an answer streams in.
type StreamTickMsg struct {
	Time time.Time
}

// SchemaMsg carries the backend schema description.
type SchemaMsg struct {
	Schema string
	Err    error
}

// HealthMsg carries the startup health probe outcome.
type HealthMsg struct {
	Message string
	Err     error
}

// ChartSavedMsg is sent when a chart PNG has been written to disk.
type ChartSavedMsg struct {
	Path string
	Err  error
}

// StatusMsg is a transient status message for the status bar.
type StatusMsg string
