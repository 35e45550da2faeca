package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/gradebook/internal/grades"
	"github.com/verte-zerg/gradebook/internal/model"
	"github.com/verte-zerg/gradebook/internal/source"
	"github.com/verte-zerg/gradebook/internal/view"
)

const toastDuration = 4 * time.Second

// Loader fetches a student's grade record.
type Loader interface {
	LoadPayload(ctx context.Context, student string) (*model.Payload, error)
}

// CourseTranslator maps a raw title code to a display title.
type CourseTranslator interface {
	Translate(code string) string
}

type gradesFetchedMsg struct {
	student string
	payload *model.Payload
	err     error
}

// alertCheckMsg arrives after the frame following a delivery was drawn.
type alertCheckMsg struct{}

type toastExpiredMsg struct {
	id int
}

type gradesModel struct {
	student   string
	loader    Loader
	cache     *source.Cache
	terms     grades.TermTranslator
	courses   CourseTranslator
	expandAll bool

	ctrl     *view.Controller
	focus    int
	viewport viewport.Model
	spinner  spinner.Model

	headerLines []int
	toast       *view.Alert
	toastID     int
	fetchErr    string

	width  int
	height int
}

func newGradesModel(student string, loader Loader, cache *source.Cache, terms grades.TermTranslator, courses CourseTranslator, expandAll bool) *gradesModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle
	return &gradesModel{
		student:   student,
		loader:    loader,
		cache:     cache,
		terms:     terms,
		courses:   courses,
		expandAll: expandAll,
		viewport:  viewport.New(0, 0),
		spinner:   sp,
	}
}

// mount creates a fresh controller and starts a fetch when nothing is cached.
func (m *gradesModel) mount() tea.Cmd {
	m.ctrl = view.NewController(m.cache, m.terms)
	m.focus = 0
	m.fetchErr = ""
	m.ctrl.Mount()
	if m.ctrl.State() != view.StateInitial {
		m.afterLoad()
		return checkAlert
	}
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m *gradesModel) unmount() {
	if m.ctrl != nil {
		m.ctrl.Unmount()
	}
}

func (m *gradesModel) reload() tea.Cmd {
	m.unmount()
	m.cache.Reset()
	return m.mount()
}

func (m *gradesModel) fetch() tea.Cmd {
	student := m.student
	loader := m.loader
	return func() tea.Msg {
		payload, err := loader.LoadPayload(context.Background(), student)
		return gradesFetchedMsg{student: student, payload: payload, err: err}
	}
}

func checkAlert() tea.Msg {
	return alertCheckMsg{}
}

func (m *gradesModel) afterLoad() {
	if m.expandAll {
		m.ctrl.ExpandAll()
	}
	m.renderContent()
}

func (m *gradesModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.updateLayout()
	m.renderContent()
}

func (m *gradesModel) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = 1
	if m.toast != nil {
		headerHeight++
	}
	footerHeight = 1
	if m.fetchErr != "" {
		footerHeight++
	}
	bodyHeight = maxInt(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *gradesModel) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.viewport.Width = m.width
	m.viewport.Height = bodyHeight
}

func (m *gradesModel) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case gradesFetchedMsg:
		return m.onFetched(msg)
	case alertCheckMsg:
		alert, ok := m.ctrl.TakeAlert()
		if !ok {
			return nil
		}
		m.toast = &alert
		m.toastID++
		m.updateLayout()
		id := m.toastID
		return tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.dismissToast()
		}
		return nil
	case spinner.TickMsg:
		if m.ctrl.State() != view.StateInitial {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return nil
}

func (m *gradesModel) onFetched(msg gradesFetchedMsg) tea.Cmd {
	if msg.student != m.student || m.ctrl.State() != view.StateInitial {
		return nil
	}
	payload := msg.payload
	if msg.err != nil {
		m.fetchErr = msg.err.Error()
		payload = nil
		m.updateLayout()
	}
	m.cache.Store(payload)
	if m.ctrl.State() == view.StateInitial {
		return nil
	}
	m.afterLoad()
	return checkAlert
}

func (m *gradesModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.toast != nil {
		m.dismissToast()
	}
	if msg.String() == "r" {
		return m.reload()
	}
	if m.ctrl.State() != view.StateLoaded {
		return nil
	}
	count := len(m.ctrl.Sections())
	switch msg.String() {
	case "up", "k":
		m.moveFocus(-1)
	case "down", "j":
		m.moveFocus(1)
	case "enter", " ":
		if count > 0 {
			m.ctrl.Toggle(m.focus)
		}
	case "a":
		m.ctrl.ExpandAll()
	case "c":
		m.ctrl.SetExpanded(nil)
	case "g", "home":
		m.focus = 0
	case "G", "end":
		m.focus = maxInt(0, count-1)
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	m.renderContent()
	m.ensureFocusVisible()
	return nil
}

func (m *gradesModel) dismissToast() {
	m.toast = nil
	m.updateLayout()
}

func (m *gradesModel) moveFocus(delta int) {
	count := len(m.ctrl.Sections())
	if count == 0 {
		return
	}
	m.focus += delta
	if m.focus < 0 {
		m.focus = 0
	}
	if m.focus >= count {
		m.focus = count - 1
	}
}

func (m *gradesModel) ensureFocusVisible() {
	if m.focus < 0 || m.focus >= len(m.headerLines) || m.viewport.Height <= 0 {
		return
	}
	line := m.headerLines[m.focus]
	switch {
	case line < m.viewport.YOffset:
		m.viewport.SetYOffset(line)
	case line >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}

func (m *gradesModel) renderContent() {
	if m.ctrl == nil || m.ctrl.State() != view.StateLoaded {
		m.viewport.SetContent("")
		m.headerLines = nil
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	content, headers := renderAccordion(m.ctrl.Snapshot(), m.focus, width, m.courses)
	m.headerLines = headers
	m.viewport.SetContent(content)
}

func (m *gradesModel) view() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *gradesModel) renderHeader() string {
	title := titleStyle.Render("GRADES") + "  " + headerStyle.Render(truncateLine(m.student, maxInt(1, m.width-10)))
	if m.toast == nil {
		return title
	}
	toast := toastStyle.Render(truncateLine(m.toast.Title+": "+m.toast.Message, maxInt(1, m.width-2)))
	return title + "\n" + toast
}

func (m *gradesModel) renderBody() string {
	switch m.ctrl.State() {
	case view.StateInitial:
		return lipgloss.Place(m.width, maxInt(1, m.viewport.Height), lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading grades...")
	case view.StateFailed:
		return headerStyle.Render("No grades to show. Press r to try again.")
	default:
		return m.viewport.View()
	}
}

func (m *gradesModel) renderFooter() string {
	help := "Move: up/down  Toggle: enter  Expand all: a  Collapse: c  Reload: r  Back: esc  Quit: q"
	help = headerStyle.Render(truncateLine(help, m.width))
	if m.fetchErr != "" {
		return help + "\n" + errorStyle.Render(truncateLine(m.fetchErr, m.width))
	}
	return help
}

// renderAccordion draws the overall card and every section. It returns the
// content and the line index of each section header.
func renderAccordion(state view.ViewState, focus, width int, courses CourseTranslator) (string, []int) {
	var lines []string
	lines = append(lines, strings.Split(renderOverall(state.OverallGPA, width), "\n")...)

	expanded := make(map[int]bool, len(state.Expanded))
	for _, i := range state.Expanded {
		expanded[i] = true
	}
	headers := make([]int, 0, len(state.Sections))
	for i, section := range state.Sections {
		lines = append(lines, "")
		headers = append(headers, len(lines))
		lines = append(lines, renderSectionHeader(section, expanded[i], i == focus, width))
		if expanded[i] {
			lines = append(lines, strings.Split(renderSectionContent(section, width, courses), "\n")...)
		}
	}
	if len(state.Sections) == 0 {
		lines = append(lines, "", headerStyle.Render("No terms on record."))
	}
	return strings.Join(lines, "\n"), headers
}

func renderOverall(gpa float64, width int) string {
	title := cardTitleStyle.Render("Overall")
	tag := renderTag(gpa)
	gap := maxInt(1, width-lipgloss.Width(title)-lipgloss.Width(tag))
	return lipgloss.JoinHorizontal(lipgloss.Center, title, strings.Repeat(" ", gap), tag)
}

func renderTag(gpa float64) string {
	formatted := grades.FormatGPA(gpa)
	if formatted == "" {
		return ""
	}
	return tagStyle.Render(formatted + " GPA")
}

func renderSectionHeader(section model.Section, expanded, focused bool, width int) string {
	marker := "+"
	if expanded {
		marker = "-"
	}
	label := truncateLine(section.TermLabel, maxInt(1, width-4))
	line := label + strings.Repeat(" ", maxInt(1, width-lipgloss.Width(label)-1)) + marker
	if focused {
		return sectionFocusStyle.Render(line)
	}
	return sectionStyle.Render(line)
}

func renderSectionContent(section model.Section, width int, courses CourseTranslator) string {
	classes := classesStyle.Render("  CLASSES:")
	tag := renderTag(grades.TermGPA(section.Courses))
	gap := maxInt(1, width-lipgloss.Width(classes)-lipgloss.Width(tag))
	rows := []string{lipgloss.JoinHorizontal(lipgloss.Center, classes, strings.Repeat(" ", gap), tag)}
	for _, c := range section.Courses {
		rows = append(rows, renderCourse(c, width, courses))
	}
	return strings.Join(rows, "\n")
}

func renderCourse(c model.Course, width int, courses CourseTranslator) string {
	textWidth := maxInt(3, width-badgeWidth-4)
	innerWidth := textWidth - 2
	title := c.TitleCode
	if courses != nil {
		title = courses.Translate(c.TitleCode)
	}
	text := strings.Join([]string{
		courseTitleStyle.Render(truncateLine(title, innerWidth)),
		courseMetaStyle.Render(truncateLine(strings.TrimSpace(c.Subject+" "+c.CourseNumber), innerWidth)),
		courseMetaStyle.Render(fmt.Sprintf("%d credits", grades.Credits(c))),
	}, "\n")
	text = lipgloss.NewStyle().Width(textWidth).PaddingLeft(2).Render(text)
	return lipgloss.JoinHorizontal(lipgloss.Center, text, "  ", renderBadge(c))
}

func renderBadge(c model.Course) string {
	color := grades.GradeColor(c.GPAHours, c.Points)
	return badgeStyle.Background(lipgloss.Color(color.Hex())).Render(c.Grade)
}
