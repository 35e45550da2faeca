package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// studentSubmittedMsg is emitted when the login gate accepts a student ID.
type studentSubmittedMsg struct {
	student string
}

type loginModel struct {
	input  textinput.Model
	errMsg string
	width  int
	height int
}

func newLoginModel(initial string) *loginModel {
	input := textinput.New()
	input.Prompt = "Student ID: "
	input.Placeholder = "RIN"
	input.CharLimit = 32
	input.Cursor.SetMode(cursor.CursorBlink)
	input.SetValue(initial)
	input.Focus()
	return &loginModel{input: input}
}

func (m *loginModel) init() tea.Cmd {
	return textinput.Blink
}

func (m *loginModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = maxInt(10, minInt(width-8, 40)-lipgloss.Width(m.input.Prompt))
}

func (m *loginModel) update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		student := strings.TrimSpace(m.input.Value())
		if student == "" {
			m.errMsg = "Enter a student ID."
			return nil
		}
		m.errMsg = ""
		return func() tea.Msg { return studentSubmittedMsg{student: student} }
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *loginModel) view() string {
	lines := []string{
		loginBrandStyle.Render("Student Information System"),
		loginMutedStyle.Render("Grades"),
		"",
		m.input.View(),
	}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	lines = append(lines, "", loginMutedStyle.Render("enter: continue  ctrl+c: quit"))
	card := loginCardStyle.Render(strings.Join(lines, "\n"))
	if m.width == 0 || m.height == 0 {
		return card
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card)
}
