package tui

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/gradebook/internal/model"
	"github.com/verte-zerg/gradebook/internal/source"
	"github.com/verte-zerg/gradebook/internal/translate"
	"github.com/verte-zerg/gradebook/internal/view"
)

type fakeLoader struct {
	payload *model.Payload
	err     error
	calls   int
}

func (f *fakeLoader) LoadPayload(_ context.Context, _ string) (*model.Payload, error) {
	f.calls++
	return f.payload, f.err
}

func samplePayload() *model.Payload {
	return &model.Payload{
		GPA: 3.41,
		Terms: []model.Term{
			{Code: "202209", Courses: []model.Course{
				{Subject: "ARTS", CourseNumber: "1020", TitleCode: "MEDIA STUDIO", Attempted: 4, Grade: "P", CourseID: "1"},
			}},
			{Code: "202301", Courses: []model.Course{
				{Subject: "MATH", CourseNumber: "2010", TitleCode: "MULTIVARIABLE CALCULUS", Attempted: 3, GPAHours: 3, Points: 12, Grade: "A", CourseID: "2"},
				{Subject: "PHYS", CourseNumber: "1100", TitleCode: "PHYSICS I", Attempted: 4, GPAHours: 4, Points: 10, Grade: "C+", CourseID: "3"},
			}},
		},
	}
}

func newTestGrades(loader Loader, cache *source.Cache) *gradesModel {
	g := newGradesModel("661234567", loader, cache, translate.NewTerms(nil), translate.NewCourses(nil), false)
	g.setSize(80, 40)
	return g
}

func TestGradesModelLoadsAfterFetch(t *testing.T) {
	loader := &fakeLoader{payload: samplePayload()}
	cache := source.NewCache(source.NewNotifier())
	g := newTestGrades(loader, cache)
	if cmd := g.mount(); cmd == nil {
		t.Fatalf("expected fetch command")
	}
	if g.ctrl.State() != view.StateInitial {
		t.Fatalf("expected initial state before fetch")
	}
	if !strings.Contains(g.view(), "Loading grades") {
		t.Fatalf("expected loading view")
	}

	cmd := g.update(g.fetch()())
	if g.ctrl.State() != view.StateLoaded {
		t.Fatalf("expected loaded, got %s", g.ctrl.State())
	}
	if cmd == nil {
		t.Fatalf("expected alert check command")
	}
	if next := g.update(cmd()); next != nil || g.toast != nil {
		t.Fatalf("unexpected toast on success")
	}

	out := g.view()
	for _, want := range []string{"Overall", "3.41 GPA", "Spring 2023", "Fall 2022", "3.14 GPA", "Multivariable Calculus", "MATH 2010", "3 credits"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Media Studio") {
		t.Fatalf("expected collapsed second section:\n%s", out)
	}
	if _, ok := cache.TryGetCached(); !ok {
		t.Fatalf("expected payload cached after fetch")
	}
}

func TestGradesModelFailureAlertsOnce(t *testing.T) {
	loader := &fakeLoader{err: errors.New("no grade record imported for student")}
	cache := source.NewCache(source.NewNotifier())
	g := newTestGrades(loader, cache)
	g.mount()

	cmd := g.update(g.fetch()())
	if g.ctrl.State() != view.StateFailed {
		t.Fatalf("expected failed, got %s", g.ctrl.State())
	}
	if cmd == nil {
		t.Fatalf("expected alert check command")
	}
	if tick := g.update(cmd()); tick == nil || g.toast == nil {
		t.Fatalf("expected toast with expiry")
	}
	out := g.view()
	if !strings.Contains(out, "Failed to load") || !strings.Contains(out, "no grade record") {
		t.Fatalf("expected toast and error footer:\n%s", out)
	}

	g.update(toastExpiredMsg{id: g.toastID})
	if g.toast != nil {
		t.Fatalf("expected toast dismissed")
	}
	if g.update(alertCheckMsg{}) != nil || g.toast != nil {
		t.Fatalf("expected alert to fire only once")
	}
}

func TestGradesModelUsesCache(t *testing.T) {
	loader := &fakeLoader{payload: samplePayload()}
	cache := source.NewCache(source.NewNotifier())
	cache.Store(samplePayload())
	g := newTestGrades(loader, cache)
	g.mount()
	if g.ctrl.State() != view.StateLoaded {
		t.Fatalf("expected synchronous load from cache")
	}
	if loader.calls != 0 {
		t.Fatalf("expected no fetch when cached, got %d", loader.calls)
	}
}

func TestGradesModelIgnoresStaleFetch(t *testing.T) {
	loader := &fakeLoader{payload: samplePayload()}
	cache := source.NewCache(source.NewNotifier())
	g := newTestGrades(loader, cache)
	g.mount()
	g.update(gradesFetchedMsg{student: "someone-else", payload: samplePayload()})
	if g.ctrl.State() != view.StateInitial {
		t.Fatalf("expected stale fetch ignored")
	}
}

func TestGradesModelKeys(t *testing.T) {
	cache := source.NewCache(source.NewNotifier())
	cache.Store(samplePayload())
	g := newTestGrades(&fakeLoader{}, cache)
	g.mount()

	g.update(tea.KeyMsg{Type: tea.KeyDown})
	g.update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := g.ctrl.Expanded(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected second section open, got %v", got)
	}
	if !strings.Contains(g.view(), "Media Studio") {
		t.Fatalf("expected second section rendered")
	}

	g.update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if len(g.ctrl.Expanded()) != 0 {
		t.Fatalf("expected section closed, got %v", g.ctrl.Expanded())
	}

	g.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	if len(g.ctrl.Expanded()) != 2 {
		t.Fatalf("expected all expanded, got %v", g.ctrl.Expanded())
	}
	g.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if len(g.ctrl.Expanded()) != 0 {
		t.Fatalf("expected all collapsed, got %v", g.ctrl.Expanded())
	}

	g.update(tea.KeyMsg{Type: tea.KeyDown})
	g.update(tea.KeyMsg{Type: tea.KeyDown})
	if g.focus != 1 {
		t.Fatalf("expected focus clamped to last section, got %d", g.focus)
	}
}

func TestGradesModelReloadRemounts(t *testing.T) {
	loader := &fakeLoader{}
	cache := source.NewCache(source.NewNotifier())
	g := newTestGrades(loader, cache)
	g.mount()
	g.update(g.fetch()())
	if g.ctrl.State() != view.StateFailed {
		t.Fatalf("expected failure with empty loader")
	}

	loader.payload = samplePayload()
	if cmd := g.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}); cmd == nil {
		t.Fatalf("expected fetch after reload")
	}
	if g.ctrl.State() != view.StateInitial {
		t.Fatalf("expected fresh controller after reload")
	}
	g.update(g.fetch()())
	if g.ctrl.State() != view.StateLoaded {
		t.Fatalf("expected loaded after retry, got %s", g.ctrl.State())
	}
}

func TestRenderAccordionHeaders(t *testing.T) {
	state := view.ViewState{
		State:      view.StateLoaded,
		OverallGPA: math.NaN(),
		Sections: []model.Section{
			{TermLabel: "Spring 2023", Courses: []model.Course{{TitleCode: "A", GPAHours: 0}}},
			{TermLabel: "Fall 2022", Courses: []model.Course{{TitleCode: "B"}}},
		},
		Expanded: []int{0},
	}
	content, headers := renderAccordion(state, 1, 60, nil)
	if len(headers) != 2 {
		t.Fatalf("expected 2 header lines, got %d", len(headers))
	}
	lines := strings.Split(content, "\n")
	if !strings.Contains(lines[headers[0]], "Spring 2023") || !strings.HasSuffix(strings.TrimSpace(lines[headers[0]]), "-") {
		t.Fatalf("unexpected first header: %q", lines[headers[0]])
	}
	if !strings.Contains(lines[headers[1]], "Fall 2022") || !strings.HasSuffix(strings.TrimSpace(lines[headers[1]]), "+") {
		t.Fatalf("unexpected second header: %q", lines[headers[1]])
	}
	if strings.Contains(content, "GPA") || strings.Contains(content, "NaN") {
		t.Fatalf("expected undefined gpa tags omitted:\n%s", content)
	}
}
