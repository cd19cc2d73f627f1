// view_chat.go — conversational query view.
//
// Left pane: the transcript, including the in-progress streamed reply.
// Right pane: the generated SQL and result table for the last settled
// submission. Bottom: the question input.
//
// Submissions run asynchronously; a 30fps tick repaints the transcript
// while tokens stream in, and stops once the submission settles.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/datachat-cli/datachat/backend"
	"github.com/datachat-cli/datachat/chat"
)

// streamTickInterval is ~30fps, fast enough that token-by-token
// updates read as continuous.
const streamTickInterval = 33 * time.Millisecond

type chatFocus int

const (
	focusTranscript chatFocus = iota
	focusResults
)

type ChatView struct {
	controller *chat.Controller

	transcript *Viewport
	results    *Viewport

	input      string
	submitMode chat.Mode
	focus      chatFocus

	chartPath string

	width  int
	height int
}

func NewChatView(controller *chat.Controller) *ChatView {
	return &ChatView{
		controller: controller,
		transcript: NewViewport(80, 20),
		results:    NewViewport(40, 20),
		submitMode: chat.ModeStream,
	}
}

func (v *ChatView) Name() string { return "Chat" }

func (v *ChatView) WantsTextInput() bool { return true }

func (v *ChatView) SetSize(width, height int) {
	v.width = width
	v.height = height

	transcriptW, resultsW := v.paneWidths()
	paneH := height - 3 // input line + spacing
	if paneH < 1 {
		paneH = 1
	}
	v.transcript.SetSize(transcriptW-2, paneH-2)
	v.results.SetSize(resultsW-2, paneH-2)
}

func (v *ChatView) paneWidths() (int, int) {
	resultsW := (v.width * 2) / 5
	if resultsW < 30 {
		resultsW = 30
	}
	transcriptW := v.width - resultsW - 1
	if transcriptW < 20 {
		transcriptW = 20
	}
	return transcriptW, resultsW
}

func (v *ChatView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "Enter", Desc: "ask (" + v.submitMode.String() + ")"},
		{Key: "F2", Desc: "mode"},
		{Key: "Ctrl+J/K", Desc: "scroll"},
		{Key: "Ctrl+R", Desc: "results"},
	}
}

func (v *ChatView) Init() tea.Cmd {
	v.Refresh()
	return nil
}

// Refresh re-renders both panes from the store. Called after external
// state changes such as :clear.
func (v *ChatView) Refresh() {
	v.transcript.SetContentLines(v.renderTranscript())
	v.transcript.End()
	v.results.SetContentLines(v.renderResults())
}

func (v *ChatView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case StreamTickMsg:
		v.Refresh()
		if v.controller.Store().InFlight() {
			return v, streamTickCmd()
		}
		return v, nil

	case SubmissionSettledMsg:
		v.Refresh()
		if !msg.Accepted {
			return v, nil
		}
		if r := v.controller.Store().Result(); r != nil && len(r.ChartPNG) > 0 {
			return v, saveChartCmd(r.ChartPNG)
		}
		return v, nil

	case ChartSavedMsg:
		if msg.Err != nil {
			return v, func() tea.Msg {
				return StatusMsg(StyleError.Render("chart save failed: " + msg.Err.Error()))
			}
		}
		v.chartPath = msg.Path
		v.results.SetContentLines(v.renderResults())
		return v, nil
	}

	return v, nil
}

func (v *ChatView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return v, v.submit()
	case "f2":
		if v.submitMode == chat.ModeStream {
			v.submitMode = chat.ModeChart
		} else {
			v.submitMode = chat.ModeStream
		}
		return v, nil
	case "ctrl+r":
		if v.focus == focusTranscript {
			v.focus = focusResults
		} else {
			v.focus = focusTranscript
		}
		return v, nil
	case "ctrl+k":
		v.focused().ScrollUp(1)
	case "ctrl+j":
		v.focused().ScrollDown(1)
	case "ctrl+h":
		v.focused().ScrollLeft(4)
	case "ctrl+l":
		v.focused().ScrollRight(4)
	case "pgup":
		v.focused().PageUp()
	case "pgdown":
		v.focused().PageDown()
	case "home":
		v.focused().Home()
	case "end":
		v.focused().End()
	case "backspace":
		if len(v.input) > 0 {
			v.input = v.input[:len(v.input)-1]
		}
	default:
		if msg.Type == tea.KeyRunes {
			v.input += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			v.input += " "
		}
	}
	return v, nil
}

func (v *ChatView) focused() *Viewport {
	if v.focus == focusResults {
		return v.results
	}
	return v.transcript
}

// submit hands the input to the controller. Submit appends the user
// message and flips the busy guard before any network activity, so the
// first tick repaint already shows the question.
func (v *ChatView) submit() tea.Cmd {
	text := strings.TrimSpace(v.input)
	if text == "" {
		return nil
	}
	if v.controller.Store().InFlight() {
		return func() tea.Msg {
			return StatusMsg("still answering the previous question")
		}
	}

	v.input = ""
	v.chartPath = ""
	mode := v.submitMode
	controller := v.controller

	// Submit blocks until the submission settles; Bubble Tea runs the
	// command on its own goroutine, so the UI stays live and the tick
	// below repaints the transcript as tokens arrive.
	submitCmd := func() tea.Msg {
		accepted := controller.Submit(context.Background(), text, mode)
		return SubmissionSettledMsg{Accepted: accepted}
	}

	v.Refresh()
	return tea.Batch(submitCmd, streamTickCmd())
}

func streamTickCmd() tea.Cmd {
	return tea.Tick(streamTickInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}

func saveChartCmd(png []byte) tea.Cmd {
	return func() tea.Msg {
		path, err := saveChart(png)
		return ChartSavedMsg{Path: path, Err: err}
	}
}

func (v *ChatView) renderTranscript() []string {
	store := v.controller.Store()

	var lines []string
	messages := store.Messages()

	if len(messages) == 0 {
		lines = append(lines,
			StyleTitle.Render("💬 Ask your data"),
			"",
			"Type a question about your database in plain English.",
			"",
			"  • "+StyleHelpKey.Render("Enter")+" streams the answer token by token",
			"  • "+StyleHelpKey.Render("F2")+" switches to chart mode for a plotted result",
			"",
			StyleDimmed.Render("The generated SQL and result rows appear on the right."),
		)
		return lines
	}

	for _, msg := range messages {
		switch msg.Origin {
		case chat.OriginUser:
			lines = append(lines, StyleUserLabel.Render(msg.Origin.DisplayName()+": ")+msg.Text)
		default:
			lines = append(lines, StyleAssistantLabel.Render(msg.Origin.DisplayName()+":"))
			for _, l := range strings.Split(msg.Text, "\n") {
				lines = append(lines, "  "+l)
			}
		}
		lines = append(lines, "")
	}

	if text, active := store.StreamingText(); active {
		lines = append(lines, StyleAssistantLabel.Render("AI:"))
		for _, l := range strings.Split(text+"█", "\n") {
			lines = append(lines, "  "+l)
		}
	} else if store.InFlight() {
		lines = append(lines, StyleDimmed.Render("  ⏳ Thinking..."))
	}

	return lines
}

func (v *ChatView) renderResults() []string {
	result := v.controller.Store().Result()

	if result == nil {
		return []string{StyleDimmed.Render("No results yet.")}
	}

	var lines []string

	if result.SQLQuery != "" {
		lines = append(lines, StyleBold.Render("SQL"))
		for _, l := range strings.Split(result.SQLQuery, "\n") {
			lines = append(lines, "  "+l)
		}
		lines = append(lines, "")
	}

	lines = append(lines, formatTable(result.Table)...)

	if v.chartPath != "" {
		lines = append(lines, "",
			StyleSuccess.Render("📊 Chart saved: ")+v.chartPath)
	} else if len(result.ChartPNG) > 0 {
		lines = append(lines, "", StyleDimmed.Render("saving chart..."))
	}

	return lines
}

// formatTable renders the result rows as an aligned text table with
// per-column widths capped at 50 runes.
func formatTable(t *backend.Table) []string {
	if t == nil || len(t.Columns) == 0 {
		return []string{StyleDimmed.Render("no rows")}
	}

	runeLen := utf8.RuneCountInString
	rows := t.StringRows()

	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = runeLen(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && runeLen(cell) > widths[i] {
				widths[i] = runeLen(cell)
			}
		}
	}
	for i := range widths {
		if widths[i] > 50 {
			widths[i] = 50
		}
	}

	var lines []string
	header := ""
	for i, col := range t.Columns {
		header += fmt.Sprintf(" %-*s │", widths[i], col)
	}
	var sepBuilder strings.Builder
	for _, ch := range header {
		if ch == '│' {
			sepBuilder.WriteRune('┼')
		} else {
			sepBuilder.WriteRune('─')
		}
	}
	lines = append(lines, strings.TrimRight(header, "│"))
	lines = append(lines, strings.TrimRight(sepBuilder.String(), "┼"))

	for _, row := range rows {
		line := ""
		for i, cell := range row {
			if i < len(widths) {
				if runeLen(cell) > widths[i] {
					runes := []rune(cell)
					cell = string(runes[:widths[i]-1]) + "…"
				}
				line += fmt.Sprintf(" %-*s │", widths[i], cell)
			}
		}
		lines = append(lines, strings.TrimRight(line, "│"))
	}

	lines = append(lines, "", StyleDimmed.Render(fmt.Sprintf("%d row(s)", len(rows))))
	return lines
}

func (v *ChatView) View() string {
	transcriptW, resultsW := v.paneWidths()
	paneH := v.height - 3
	if paneH < 1 {
		paneH = 1
	}

	transcriptTitle := " Transcript"
	resultsTitle := " Results"
	if v.focus == focusTranscript {
		transcriptTitle = lipgloss.NewStyle().Foreground(ColorAccent).Render(" ●") + " Transcript"
	} else {
		resultsTitle = lipgloss.NewStyle().Foreground(ColorAccent).Render(" ●") + " Results"
	}

	left := lipgloss.NewStyle().
		Width(transcriptW).
		Height(paneH).
		Render(StyleBold.Render(transcriptTitle) + "\n" + v.transcript.Render())

	right := lipgloss.NewStyle().
		Width(resultsW).
		Height(paneH).
		Render(StyleBold.Render(resultsTitle) + "\n" + v.results.Render())

	panes := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)

	modeLabel := StyleDimmed.Render("[" + v.submitMode.String() + "]")
	prompt := StylePrompt.Render("Ask> ") + v.input + "█ " + modeLabel
	if v.controller.Store().InFlight() {
		prompt = StylePrompt.Render("Ask> ") + StyleDimmed.Render("waiting for answer...")
	}

	return lipgloss.JoinVertical(lipgloss.Left, panes, "", prompt)
}
