package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/podscope/podscope/pkg/subscription"
)

// logPane is a scrollback ring over the active log tail. Container output may
// carry ANSI escapes; lines are stripped before rendering so they cannot
// corrupt the dashboard.
type logPane struct {
	title  string
	lines  []string
	cap    int
	offset int // 0 means follow the tail
	width  int
	height int
}

func newLogPane(scrollback int) *logPane {
	return &logPane{cap: scrollback}
}

// Append adds one line, evicting the oldest past the scrollback cap.
func (p *logPane) Append(line subscription.LogLine) {
	text := ansi.Strip(line.Text)
	p.lines = append(p.lines, text)
	if len(p.lines) > p.cap {
		p.lines = p.lines[len(p.lines)-p.cap:]
	}
}

// Reset clears the pane for a new tail.
func (p *logPane) Reset(title string) {
	p.title = title
	p.lines = p.lines[:0]
	p.offset = 0
}

func (p *logPane) SetDimensions(w, h int) { p.width, p.height = w, h }

func (p *logPane) ScrollUp(n int) {
	p.offset = min(p.offset+n, max(0, len(p.lines)-p.visible()))
}

func (p *logPane) ScrollDown(n int) {
	p.offset = max(0, p.offset-n)
}

func (p *logPane) visible() int {
	// Border eats two rows, the title one more.
	return max(1, p.height-3)
}

func (p *logPane) View() string {
	if p.width <= 0 || p.height <= 0 {
		return ""
	}
	visible := p.visible()
	end := len(p.lines) - p.offset
	if end < 0 {
		end = 0
	}
	start := max(0, end-visible)
	rows := make([]string, 0, visible+1)
	title := p.title
	if title == "" {
		title = "no log tail - press enter on a pod"
	}
	if p.offset > 0 {
		title += " [scrolled]"
	}
	rows = append(rows, TableHeaderStyle.Render(truncate(title, p.width-2)))
	for _, line := range p.lines[start:end] {
		rows = append(rows, truncate(line, p.width-2))
	}
	inner := strings.Join(rows, "\n")
	return LogPaneStyle.Width(p.width - 2).Height(p.height - 2).Render(inner)
}
