// app.go is the top-level Bubble Tea model that orchestrates all views.
//
// Key design decisions:
//   - Two views (Chat, Schema) switched with F3
//   - Command mode (`:`, or Esc from the chat input) for quick commands
//   - Help overlay (F1) toggled on/off
//   - A health probe runs at startup; the header shows the outcome
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/datachat-cli/datachat/backend"
	"github.com/datachat-cli/datachat/chat"
	"github.com/datachat-cli/datachat/config"
)

const appVersion = "0.1.0"

// Tab indices.
const (
	TabChat = iota
	TabSchema
)

// InputMode determines what keystrokes do.
type InputMode int

const (
	ModeNormal InputMode = iota
	ModeCommand
)

// App is the root Bubble Tea model.
type App struct {
	controller *chat.Controller
	client     *backend.Client
	cfg        config.Config

	views     []View
	activeTab int

	// Health probe outcome; nil until the probe settles.
	healthErr error
	healthSet bool

	// UI state
	width     int
	height    int
	mode      InputMode
	cmdInput  string
	showHelp  bool
	statusMsg string
}

// NewApp creates the application with its two views wired to the
// shared controller and backend client.
func NewApp(controller *chat.Controller, client *backend.Client, cfg config.Config) *App {
	a := &App{
		controller: controller,
		client:     client,
		cfg:        cfg,
	}
	a.views = []View{
		NewChatView(controller),
		NewSchemaView(client),
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.views[a.activeTab].Init(), a.healthCmd())
}

// healthCmd probes the backend root endpoint once at startup.
func (a *App) healthCmd() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		msg, err := client.Health(ctx)
		return HealthMsg{Message: msg, Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Header(1) + Status(1) + Slack(1) + Borders(2) = 5 lines chrome
		contentW := a.width - 2
		viewH := a.height - 5
		for _, v := range a.views {
			v.SetSize(contentW, viewH)
		}
		return a, nil

	case HealthMsg:
		a.healthSet = true
		a.healthErr = msg.Err
		if msg.Err != nil {
			a.statusMsg = StyleError.Render("backend unreachable: " + msg.Err.Error())
		}
		return a, nil

	case StatusMsg:
		a.statusMsg = string(msg)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	// Forward other messages to active view
	if a.activeTab < len(a.views) {
		updatedView, cmd := a.views[a.activeTab].Update(msg)
		a.views[a.activeTab] = updatedView
		return a, cmd
	}

	return a, nil
}

// handleKey processes keyboard input.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.mode == ModeCommand {
		return a.handleCommandMode(msg)
	}
	return a.handleNormalMode(msg)
}

func (a *App) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// When the active view is accepting text input (chat), only
	// intercept non-text keys and let everything else pass through.
	textMode := a.activeTab < len(a.views) && a.views[a.activeTab].WantsTextInput()

	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "f1":
		a.showHelp = !a.showHelp
		return a, nil

	case "f3":
		return a.switchTab((a.activeTab + 1) % len(a.views))

	case "esc":
		a.mode = ModeCommand
		a.cmdInput = ""
		return a, nil

	case ":":
		if !textMode {
			a.mode = ModeCommand
			a.cmdInput = ""
			return a, nil
		}

	case "?":
		if !textMode {
			a.showHelp = !a.showHelp
			return a, nil
		}
	}

	// Forward to active view
	if a.activeTab < len(a.views) {
		updatedView, cmd := a.views[a.activeTab].Update(msg)
		a.views[a.activeTab] = updatedView
		return a, cmd
	}

	return a, nil
}

func (a *App) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		cmd := a.executeCommand(a.cmdInput)
		a.mode = ModeNormal
		a.cmdInput = ""
		return a, cmd

	case "esc":
		a.mode = ModeNormal
		a.cmdInput = ""
		return a, nil

	case "backspace":
		if len(a.cmdInput) > 0 {
			a.cmdInput = a.cmdInput[:len(a.cmdInput)-1]
		}
		return a, nil

	default:
		if len(msg.String()) == 1 {
			a.cmdInput += msg.String()
		}
		return a, nil
	}
}

func (a *App) switchTab(idx int) (tea.Model, tea.Cmd) {
	if idx >= 0 && idx < len(a.views) {
		a.activeTab = idx
		return a, a.views[a.activeTab].Init()
	}
	return a, nil
}

func (a *App) executeCommand(input string) tea.Cmd {
	input = strings.TrimSpace(input)
	switch input {
	case "", ":":
		return nil
	case "q", "quit":
		return tea.Quit
	case "chat":
		_, cmd := a.switchTab(TabChat)
		return cmd
	case "schema":
		_, cmd := a.switchTab(TabSchema)
		return cmd
	case "clear":
		if !a.controller.Store().Reset() {
			a.statusMsg = "cannot clear while a question is in flight"
			return nil
		}
		a.statusMsg = "conversation cleared"
		if cv, ok := a.views[TabChat].(*ChatView); ok {
			cv.Refresh()
		}
		return nil
	case "health":
		a.healthSet = false
		return a.healthCmd()
	default:
		a.statusMsg = "unknown command: " + input
		return nil
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}

	header := a.renderHeader()

	var inner string
	if a.showHelp {
		inner = a.renderHelp()
	} else if a.activeTab < len(a.views) {
		inner = a.views[a.activeTab].View()
	}

	// Frame height = Total - Header(1) - Status(1) - Slack(2)
	frameHeight := a.height - 4
	if frameHeight < 0 {
		frameHeight = 0
	}

	frame := StyleBorder.
		Width(a.width - 2).
		Height(frameHeight).
		Render(inner)

	statusBar := a.renderStatusBar()

	return header + "\n" + frame + "\n" + statusBar
}

// renderHeader draws a simple text bar: logo + version + backend info.
func (a *App) renderHeader() string {
	logo := StyleBold.Render("💬 datachat")
	version := StyleDimmed.Render(" v" + appVersion)

	var health string
	switch {
	case !a.healthSet:
		health = StyleDimmed.Render("  ○ " + a.cfg.BaseURL)
	case a.healthErr != nil:
		health = StyleError.Render("  ✗ " + a.cfg.BaseURL)
	default:
		health = StyleSuccess.Render("  ⚡ " + a.cfg.BaseURL)
	}

	content := logo + version + health

	right := StyleDimmed.Render(fmt.Sprintf("%d×%d", a.width, a.height))
	gap := a.width - lipgloss.Width(content) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Width(a.width).
		Render(content + filler + right)
}

func (a *App) renderStatusBar() string {
	var content string

	switch a.mode {
	case ModeCommand:
		content = StylePrompt.Render(":") + a.cmdInput + "█"
	default:
		if a.statusMsg != "" {
			content = a.statusMsg
		} else {
			var parts []string
			for _, h := range a.getHelpItems() {
				parts = append(parts,
					StyleHelpKey.Render(h.Key)+" "+StyleHelpDesc.Render(h.Desc))
			}
			content = strings.Join(parts, "  │  ")
		}
	}

	return StyleStatusBar.Width(a.width).Render(content)
}

func (a *App) getHelpItems() []KeyBinding {
	global := []KeyBinding{
		{Key: "F1", Desc: "help"},
		{Key: "F3", Desc: "switch view"},
		{Key: "Ctrl+C", Desc: "quit"},
	}
	if a.activeTab < len(a.views) {
		return append(a.views[a.activeTab].ShortHelp(), global...)
	}
	return global
}

func (a *App) renderHelp() string {
	help := []string{
		StyleTitle.Render("⌨ datachat Keyboard Shortcuts"),
		"",
		StyleHelpKey.Render("F1") + "               Toggle this help",
		StyleHelpKey.Render("F2") + "               Toggle Ask/Chart submission mode",
		StyleHelpKey.Render("F3") + "               Switch between Chat and Schema",
		StyleHelpKey.Render("Esc") + "              Command mode",
		StyleHelpKey.Render("Ctrl+C") + "          Quit",
		"",
		StyleTitle.Render("Chat view"),
		"",
		StyleHelpKey.Render("Enter") + "            Submit question",
		StyleHelpKey.Render("Ctrl+J/K") + "         Scroll transcript",
		StyleHelpKey.Render("PgUp/PgDn") + "        Page transcript",
		StyleHelpKey.Render("Ctrl+R") + "           Focus results / transcript",
		"",
		StyleTitle.Render("Commands"),
		"",
		StyleHelpKey.Render(":schema") + "          Show database schema",
		StyleHelpKey.Render(":clear") + "           Clear the conversation",
		StyleHelpKey.Render(":health") + "          Re-probe the backend",
		StyleHelpKey.Render(":quit") + "            Quit",
		"",
		StyleDimmed.Render("Press F1 to close"),
	}

	contentHeight := a.height - 3
	return lipgloss.NewStyle().
		Width(a.width-4).
		Height(contentHeight).
		Padding(1, 2).
		Render(strings.Join(help, "\n"))
}
