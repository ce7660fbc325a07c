package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
)

// NamespaceSelectedMsg signals the outcome of the namespace selector.
type NamespaceSelectedMsg struct {
	Name    string
	Confirm bool
	Close   bool
}

// NamespaceModel is a filterable list of namespaces.
type NamespaceModel struct {
	width, height int
	all           []string
	filter        []rune
	selected      int
}

// NewNamespaceModel constructs the selector over the given namespace names.
func NewNamespaceModel(namespaces []string) *NamespaceModel {
	return &NamespaceModel{all: namespaces}
}

func (m *NamespaceModel) Init() tea.Cmd          { return nil }
func (m *NamespaceModel) SetDimensions(w, h int) { m.width, m.height = w, h }

// SetNamespaces replaces the list, keeping the selection in range.
func (m *NamespaceModel) SetNamespaces(namespaces []string) {
	m.all = namespaces
	if m.selected >= len(m.visible()) {
		m.selected = 0
	}
}

func (m *NamespaceModel) visible() []string {
	f := strings.ToLower(string(m.filter))
	if f == "" {
		return m.all
	}
	var out []string
	for _, ns := range m.all {
		if strings.Contains(strings.ToLower(ns), f) {
			out = append(out, ns)
		}
	}
	return out
}

func (m *NamespaceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "ctrl+g", "esc":
		return m, func() tea.Msg { return NamespaceSelectedMsg{Close: true} }
	case "up":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down":
		if m.selected < len(m.visible())-1 {
			m.selected++
		}
		return m, nil
	case "backspace":
		if len(m.filter) > 0 {
			m.filter = m.filter[:len(m.filter)-1]
			m.selected = 0
		}
		return m, nil
	case "enter":
		items := m.visible()
		if m.selected < len(items) {
			name := items[m.selected]
			return m, func() tea.Msg {
				return NamespaceSelectedMsg{Name: name, Confirm: true, Close: true}
			}
		}
		return m, nil
	}
	k := key.Key()
	if k.Text != "" && k.Mod&(tea.ModCtrl|tea.ModAlt|tea.ModMeta|tea.ModSuper|tea.ModHyper) == 0 {
		m.filter = append(m.filter, []rune(k.Text)...)
		m.selected = 0
	}
	return m, nil
}

func (m *NamespaceModel) View() string {
	var sb strings.Builder
	sb.WriteString("Namespace: " + string(m.filter) + "\n")
	items := m.visible()
	maxRows := max(1, m.height-2)
	for i, ns := range items {
		if i >= maxRows {
			break
		}
		line := truncate(ns, max(1, m.width-4))
		if i == m.selected {
			line = RowSelectedStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return ModalStyle.Render(strings.TrimRight(sb.String(), "\n"))
}
