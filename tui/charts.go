package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// saveChart writes a chart PNG under ~/.datachat/charts/ and returns
// the file path. Terminals can't render the image inline, so the chat
// view surfaces the path instead.
func saveChart(png []byte) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home dir: %w", err)
	}

	dir := filepath.Join(home, ".datachat", "charts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create charts dir: %w", err)
	}

	path := filepath.Join(dir, "chart-"+uuid.NewString()[:8]+".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}
	return path, nil
}
