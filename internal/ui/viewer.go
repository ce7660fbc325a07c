package ui

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	tea "github.com/charmbracelet/bubbletea/v2"
)

// YAMLViewer is a scrollable, syntax-highlighted viewer for a pod manifest.
type YAMLViewer struct {
	title   string
	content []string
	width   int
	height  int
	offset  int
}

// NewYAMLViewer highlights text as YAML with the configured chroma theme.
// Highlighting is best-effort; on error the raw text is shown.
func NewYAMLViewer(title, text, theme string) *YAMLViewer {
	var sb strings.Builder
	if err := quick.Highlight(&sb, text, "yaml", "terminal256", theme); err == nil {
		text = sb.String()
	}
	return &YAMLViewer{title: title, content: strings.Split(text, "\n")}
}

func (v *YAMLViewer) Init() tea.Cmd          { return nil }
func (v *YAMLViewer) SetDimensions(w, h int) { v.width, v.height = w, h }

func (v *YAMLViewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		switch m.String() {
		case "up":
			v.offset = max(0, v.offset-1)
		case "down":
			v.offset = min(max(0, len(v.content)-v.visible()), v.offset+1)
		case "pgup":
			v.offset = max(0, v.offset-(v.visible()-1))
		case "pgdown":
			v.offset = min(max(0, len(v.content)-v.visible()), v.offset+(v.visible()-1))
		case "home":
			v.offset = 0
		case "end":
			v.offset = max(0, len(v.content)-v.visible())
		}
	}
	return v, nil
}

func (v *YAMLViewer) visible() int { return max(1, v.height-1) }

func (v *YAMLViewer) View() string {
	if v.height <= 0 || v.width <= 0 {
		return ""
	}
	end := min(len(v.content), v.offset+v.visible())
	lines := append([]string{HeaderStyle.Render(truncate(v.title, v.width))}, v.content[v.offset:end]...)
	return strings.Join(lines, "\n")
}
