// view_schema.go — database schema view.
//
// Fetches the schema description from the backend once per visit and
// shows it in a scrollable viewport.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/datachat-cli/datachat/backend"
)

type SchemaView struct {
	client   *backend.Client
	viewport *Viewport
	loading  bool
	err      error
	width    int
	height   int
}

func NewSchemaView(client *backend.Client) *SchemaView {
	return &SchemaView{
		client:   client,
		viewport: NewViewport(80, 20),
	}
}

func (v *SchemaView) Name() string { return "Schema" }

func (v *SchemaView) WantsTextInput() bool { return false }

func (v *SchemaView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.SetSize(width-2, height-3)
}

func (v *SchemaView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "r", Desc: "reload"},
		{Key: "↑/↓ j/k", Desc: "scroll"},
		{Key: "PgUp/PgDn", Desc: "page"},
	}
}

func (v *SchemaView) Init() tea.Cmd {
	v.loading = true
	return v.fetchSchema()
}

func (v *SchemaView) fetchSchema() tea.Cmd {
	client := v.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		schema, err := client.Schema(ctx)
		return SchemaMsg{Schema: schema, Err: err}
	}
}

func (v *SchemaView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			v.loading = true
			v.err = nil
			return v, v.fetchSchema()
		case "up", "k":
			v.viewport.ScrollUp(1)
		case "down", "j":
			v.viewport.ScrollDown(1)
		case "left", "h":
			v.viewport.ScrollLeft(4)
		case "right", "l":
			v.viewport.ScrollRight(4)
		case "pgup":
			v.viewport.PageUp()
		case "pgdown":
			v.viewport.PageDown()
		case "home", "g":
			v.viewport.Home()
		case "end", "G":
			v.viewport.End()
		}
		return v, nil

	case SchemaMsg:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.viewport.SetContent(msg.Schema)
			v.viewport.Home()
		}
		return v, nil
	}

	return v, nil
}

func (v *SchemaView) View() string {
	title := StyleTitle.Render("🗄 Database Schema")

	var body string
	switch {
	case v.loading:
		body = StyleDimmed.Render("loading schema...")
	case v.err != nil:
		body = StyleError.Render("Error: " + v.err.Error())
	default:
		body = v.viewport.Render()
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}
