package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/reflect-runtime/metadata"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// listHeight caps the visible part of the type list.
const listHeight = 20

type modelState int

const (
	stateSelectType modelState = iota
	stateDescribe
	stateTypedRef
	stateShowResult
)

type interactiveModel struct {
	err      error
	s        *session
	result   string
	types    []*metadata.Type
	visible  []*metadata.Type
	filter   textinput.Model
	ref      textinput.Model
	selected int
	state    modelState
	all      bool
}

func newInteractiveModel(s *session) *interactiveModel {
	filter := textinput.New()
	filter.Prompt = "filter: "
	filter.Placeholder = "type name"
	filter.Width = 40
	filter.Focus()

	ref := textinput.New()
	ref.Prompt = "ref: "
	ref.Placeholder = "Type:field.field"
	ref.Width = 60

	m := &interactiveModel{
		s:      s,
		filter: filter,
		ref:    ref,
		state:  stateSelectType,
	}
	m.reload()
	return m
}

func (m *interactiveModel) reload() {
	m.types = m.s.userTypes(m.all)
	m.applyFilter()
}

func (m *interactiveModel) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for _, t := range m.types {
		if q == "" || strings.Contains(strings.ToLower(t.FullName()), q) {
			m.visible = append(m.visible, t)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *interactiveModel) current() *metadata.Type {
	if m.selected < len(m.visible) {
		return m.visible[m.selected]
	}
	return nil
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state == stateDescribe || m.state == stateShowResult {
				return m, tea.Quit
			}

		case "up":
			if m.state == stateSelectType && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down":
			if m.state == stateSelectType && m.selected < len(m.visible)-1 {
				m.selected++
			}
			return m, nil

		case "ctrl+a":
			if m.state == stateSelectType {
				m.all = !m.all
				m.reload()
			}
			return m, nil

		case "tab":
			if m.state == stateSelectType || m.state == stateDescribe {
				if t := m.current(); t != nil {
					m.ref.SetValue(t.FullName() + ":")
					m.ref.CursorEnd()
				}
				m.filter.Blur()
				m.ref.Focus()
				m.state = stateTypedRef
			}
			return m, nil

		case "enter":
			switch m.state {
			case stateSelectType:
				if m.current() != nil {
					m.filter.Blur()
					m.state = stateDescribe
				}
			case stateTypedRef:
				m.computeRef()
				m.ref.Blur()
				m.state = stateShowResult
			case stateDescribe, stateShowResult:
				m.back()
			}
			return m, nil

		case "esc":
			if m.state != stateSelectType {
				m.back()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelectType:
		before := m.filter.Value()
		m.filter, cmd = m.filter.Update(msg)
		if m.filter.Value() != before {
			m.selected = 0
			m.applyFilter()
		}
	case stateTypedRef:
		m.ref, cmd = m.ref.Update(msg)
	}
	return m, cmd
}

func (m *interactiveModel) back() {
	m.state = stateSelectType
	m.result = ""
	m.err = nil
	m.ref.Blur()
	m.filter.Focus()
}

func (m *interactiveModel) computeRef() {
	spec := strings.TrimSpace(m.ref.Value())
	r, fields, err := m.s.typedRef(spec)
	if err != nil {
		m.err = err
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", spec)
	for _, f := range fields {
		fmt.Fprintf(&b, "  +%-4d %s %s\n", f.Offset(), f.FieldType().FullName(), f.Name())
	}
	fmt.Fprintf(&b, "\ntype %s, offset %d", r.Type.FullName(), r.Offset)
	m.result = b.String()
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Reflect"))
	b.WriteString(" ")
	b.WriteString(m.s.source)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectType:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("no matching types"))
			b.WriteString("\n")
		}
		start := 0
		if m.selected >= listHeight {
			start = m.selected - listHeight + 1
		}
		end := min(start+listHeight, len(m.visible))
		for i := start; i < end; i++ {
			t := m.visible[i]
			if i == m.selected {
				b.WriteString(selectedStyle.Render(fmt.Sprintf("> %-9s %s", t.Kind, t.FullName())))
			} else {
				b.WriteString("  " + kindStyle.Render(fmt.Sprintf("%-9s", t.Kind)) + " " + nameStyle.Render(t.FullName()))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter describe • tab typed ref • ctrl+a toggle System • ctrl+c quit"))

	case stateDescribe:
		for _, line := range m.s.describe(m.current()) {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab typed ref • enter/esc back • q quit"))

	case stateTypedRef:
		b.WriteString("Compute a typed reference:\n\n")
		b.WriteString(m.ref.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter compute • esc back"))

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive(s *session) error {
	p := tea.NewProgram(newInteractiveModel(s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
