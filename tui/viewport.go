// viewport.go provides a reusable scrollable viewport component with
// vertical and horizontal scrolling. Used by the transcript, the
// result table, and the schema view.
package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Viewport is a scrollable text area.
type Viewport struct {
	width   int
	height  int
	content []string // lines of content
	scrollY int      // vertical scroll offset (line index)
	scrollX int      // horizontal scroll offset (column index)
}

// NewViewport creates a viewport with the given dimensions.
func NewViewport(width, height int) *Viewport {
	return &Viewport{width: width, height: height}
}

// SetContent replaces the viewport content.
func (v *Viewport) SetContent(content string) {
	v.content = strings.Split(content, "\n")
	v.clampScroll()
}

// SetContentLines replaces the viewport content with pre-split lines.
func (v *Viewport) SetContentLines(lines []string) {
	v.content = lines
	v.clampScroll()
}

// SetSize updates viewport dimensions.
func (v *Viewport) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.clampScroll()
}

// ScrollUp moves the viewport up by n lines.
func (v *Viewport) ScrollUp(n int) {
	v.scrollY -= n
	v.clampScroll()
}

// ScrollDown moves the viewport down by n lines.
func (v *Viewport) ScrollDown(n int) {
	v.scrollY += n
	v.clampScroll()
}

// ScrollLeft pans the viewport left.
func (v *Viewport) ScrollLeft(n int) {
	v.scrollX -= n
	if v.scrollX < 0 {
		v.scrollX = 0
	}
}

// ScrollRight pans the viewport right.
func (v *Viewport) ScrollRight(n int) {
	v.scrollX += n
}

// PageUp scrolls up by one page.
func (v *Viewport) PageUp() { v.ScrollUp(v.height) }

// PageDown scrolls down by one page.
func (v *Viewport) PageDown() { v.ScrollDown(v.height) }

// Home scrolls to the top.
func (v *Viewport) Home() {
	v.scrollY = 0
	v.scrollX = 0
}

// End scrolls to the bottom.
func (v *Viewport) End() {
	v.scrollY = v.maxScrollY()
}

// Render returns the visible portion of the content.
func (v *Viewport) Render() string {
	if len(v.content) == 0 {
		return ""
	}

	end := v.scrollY + v.height
	if end > len(v.content) {
		end = len(v.content)
	}

	var visible []string
	for i := v.scrollY; i < end; i++ {
		line := v.content[i]
		if v.scrollX > 0 {
			if v.scrollX < len(line) {
				line = line[v.scrollX:]
			} else {
				line = ""
			}
		}
		if len(line) > v.width && v.width > 0 {
			line = line[:v.width]
		}
		visible = append(visible, line)
	}

	for len(visible) < v.height {
		visible = append(visible, "")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(visible, "\n"), v.scrollIndicator())
}

func (v *Viewport) clampScroll() {
	maxY := v.maxScrollY()
	if v.scrollY > maxY {
		v.scrollY = maxY
	}
	if v.scrollY < 0 {
		v.scrollY = 0
	}
}

func (v *Viewport) maxScrollY() int {
	max := len(v.content) - v.height
	if max < 0 {
		return 0
	}
	return max
}

// scrollIndicator renders a dimmed position line when content overflows.
func (v *Viewport) scrollIndicator() string {
	if len(v.content) <= v.height {
		return ""
	}

	total := len(v.content)
	pos := v.scrollY
	pct := 0
	if total > 0 {
		pct = (pos * 100) / total
	}

	ruleWidth := v.width - 20
	if ruleWidth < 0 {
		ruleWidth = 0
	}
	return StyleDimmed.Render(
		strings.Repeat("─", ruleWidth) +
			" " + strconv.Itoa(pct) + "% " +
			"(" + strconv.Itoa(pos+1) + "/" + strconv.Itoa(total) + ")")
}
