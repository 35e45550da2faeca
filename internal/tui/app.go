package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/gradebook/internal/grades"
	"github.com/verte-zerg/gradebook/internal/source"
)

const (
	screenLogin = iota
	screenGrades
)

// Options configures the grades TUI.
type Options struct {
	Student   string
	ExpandAll bool
	Terms     grades.TermTranslator
	Courses   CourseTranslator
}

// Model implements the Bubble Tea program: a login gate followed by the
// grades screen.
type Model struct {
	loader Loader
	cache  *source.Cache
	opts   Options

	screen  int
	login   *loginModel
	grades  *gradesModel
	pending tea.Cmd

	width  int
	height int
}

// NewModel constructs the TUI. With a student preset the login gate is skipped.
func NewModel(loader Loader, cache *source.Cache, opts Options) *Model {
	m := &Model{
		loader: loader,
		cache:  cache,
		opts:   opts,
		login:  newLoginModel(opts.Student),
	}
	if opts.Student != "" {
		m.pending = m.openGrades(opts.Student)
	} else {
		m.pending = m.login.init()
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmd := m.pending
	m.pending = nil
	return cmd
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.login.setSize(msg.Width, msg.Height)
		if m.grades != nil {
			m.grades.setSize(msg.Width, msg.Height)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.closeGrades()
			return m, tea.Quit
		}
		if m.screen == screenGrades {
			switch msg.String() {
			case "q":
				m.closeGrades()
				return m, tea.Quit
			case "esc":
				m.closeGrades()
				m.screen = screenLogin
				return m, m.login.init()
			}
		}
	case studentSubmittedMsg:
		return m, m.openGrades(msg.student)
	}

	if m.screen == screenGrades {
		return m, m.grades.update(msg)
	}
	return m, m.login.update(msg)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.screen == screenGrades {
		return m.grades.view()
	}
	return m.login.view()
}

func (m *Model) openGrades(student string) tea.Cmd {
	m.closeGrades()
	if m.grades == nil || m.grades.student != student {
		m.cache.Reset()
	}
	m.grades = newGradesModel(student, m.loader, m.cache, m.opts.Terms, m.opts.Courses, m.opts.ExpandAll)
	m.screen = screenGrades
	if m.width > 0 && m.height > 0 {
		m.grades.setSize(m.width, m.height)
	}
	return m.grades.mount()
}

func (m *Model) closeGrades() {
	if m.grades != nil {
		m.grades.unmount()
	}
}
