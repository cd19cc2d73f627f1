package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/datachat-cli/datachat/backend"
	"github.com/datachat-cli/datachat/chat"
	"github.com/datachat-cli/datachat/config"
)

// Start wires the backend client, store, and controller together and
// launches the TUI.
func Start(cfg config.Config) error {
	client := backend.NewClient(cfg)
	store := chat.NewStore()
	controller := chat.NewController(store, client, cfg.StreamTimeout())

	app := NewApp(controller, client, cfg)
	p := tea.NewProgram(app, tea.WithAltScreen())

	_, err := p.Run()
	return err
}
