// logger.go provides file-based logging for backend interactions.
//
// Logs are written to ~/.datachat/logs/backend.log with timestamps.
// Covers: AskQuestion, AskWithChart, and stream decode failures.
package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	logOnce sync.Once
	logFile *os.File
)

// initLog opens (or creates) the log file. Called once lazily.
func initLog() {
	logOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return
		}
		logDir := filepath.Join(homeDir, ".datachat", "logs")
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return
		}
		logPath := filepath.Join(logDir, "backend.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return
		}
		logFile = f
	})
}

func logWrite(s string) {
	initLog()
	if logFile != nil {
		logFile.WriteString(s) //nolint:errcheck
	}
}

// LogRequest logs an outbound backend request with its input details.
func LogRequest(operation string, details map[string]string) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		"\n════════════════════════════════════════════════════════════════\n"+
			"[REQUEST] %s  |  Op: %s\n"+
			"════════════════════════════════════════════════════════════════\n",
		ts, operation,
	))
	for k, v := range details {
		sb.WriteString(fmt.Sprintf("%s:\n%s\n────────────────────────────────────────\n", k, v))
	}
	logWrite(sb.String())
}

// LogResponse logs a backend response or failure for an operation.
func LogResponse(operation string, response string, err error) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	errStr := "(none)"
	if err != nil {
		errStr = err.Error()
	}
	entry := fmt.Sprintf(
		"[RESPONSE] %s  |  Op: %s\n"+
			"────────────────────────────────────────\n"+
			"Error: %s\n"+
			"────────────────────────────────────────\n"+
			"Response:\n%s\n"+
			"════════════════════════════════════════════════════════════════\n\n",
		ts, operation, errStr, response,
	)
	logWrite(entry)
}
