// Package view owns the grades screen state: loading, failure, the built
// sections and which of them are expanded.
package view

import (
	"math"
	"sort"

	"github.com/verte-zerg/gradebook/internal/grades"
	"github.com/verte-zerg/gradebook/internal/model"
	"github.com/verte-zerg/gradebook/internal/source"
)

// State is the load state of one mounted grades screen.
type State int

// Load states. Loaded and Failed are terminal for a mount.
const (
	StateInitial State = iota
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "initial"
	}
}

// Alert is a non-blocking notification for the user.
type Alert struct {
	Kind    string
	Title   string
	Message string
}

// FailedAlert is raised once when no grades could be loaded.
var FailedAlert = Alert{
	Kind:    "error",
	Title:   "Failed to load",
	Message: "Looks like we're having trouble pulling up your grades.",
}

// ViewState is a snapshot handed to the renderer.
type ViewState struct {
	State      State
	OverallGPA float64
	Sections   []model.Section
	Expanded   []int
}

// Loaded reports whether the screen reached a terminal outcome.
func (v ViewState) Loaded() bool { return v.State != StateInitial }

// Failed reports whether the terminal outcome carried no payload.
func (v ViewState) Failed() bool { return v.State == StateFailed }

// Controller drives one mount of the grades screen. It is not safe for
// concurrent use; every call is expected on the UI goroutine.
type Controller struct {
	src   source.DataSource
	terms grades.TermTranslator

	state      State
	overallGPA float64
	sections   []model.Section
	expanded   []int

	sub        source.Subscription
	mounted    bool
	alertTaken bool
	builds     int
}

// NewController returns a controller in the initial state with the first
// section expanded.
func NewController(src source.DataSource, terms grades.TermTranslator) *Controller {
	return &Controller{
		src:        src,
		terms:      terms,
		overallGPA: math.NaN(),
		expanded:   []int{0},
	}
}

// Mount loads from the cache when possible, otherwise subscribes once for
// the grades-ready notification. Repeated calls are no-ops.
func (c *Controller) Mount() {
	if c.mounted {
		return
	}
	c.mounted = true
	if payload, ok := c.src.TryGetCached(); ok {
		c.deliver(payload)
		return
	}
	c.sub = c.src.OnReady(c.deliver)
	if c.state != StateInitial {
		c.release()
	}
}

// Unmount releases the notification subscription.
func (c *Controller) Unmount() {
	c.release()
	c.mounted = false
}

func (c *Controller) release() {
	if c.sub == nil {
		return
	}
	c.sub.Cancel()
	c.sub = nil
}

func (c *Controller) deliver(payload *model.Payload) {
	if c.state != StateInitial {
		return
	}
	c.release()
	if payload == nil {
		c.state = StateFailed
		return
	}
	c.overallGPA, c.sections = grades.BuildSections(*payload, c.terms)
	c.builds++
	c.state = StateLoaded
}

// State returns the current load state.
func (c *Controller) State() State { return c.state }

// Snapshot returns the current view state.
func (c *Controller) Snapshot() ViewState {
	return ViewState{
		State:      c.state,
		OverallGPA: c.overallGPA,
		Sections:   c.sections,
		Expanded:   c.Expanded(),
	}
}

// Sections returns the built sections, most recent term first.
func (c *Controller) Sections() []model.Section { return c.sections }

// OverallGPA returns the payload GPA, NaN until loaded.
func (c *Controller) OverallGPA() float64 { return c.overallGPA }

// Expanded returns the expanded section indices that exist, ascending.
func (c *Controller) Expanded() []int {
	out := make([]int, 0, len(c.expanded))
	for _, i := range c.expanded {
		if i >= 0 && i < len(c.sections) {
			out = append(out, i)
		}
	}
	return out
}

// IsExpanded reports whether section i is expanded.
func (c *Controller) IsExpanded(i int) bool {
	if i < 0 || i >= len(c.sections) {
		return false
	}
	for _, e := range c.expanded {
		if e == i {
			return true
		}
	}
	return false
}

// SetExpanded replaces the expanded set. Indices outside the section list
// are dropped.
func (c *Controller) SetExpanded(indices []int) {
	seen := make(map[int]struct{}, len(indices))
	next := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(c.sections) {
			continue
		}
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		next = append(next, i)
	}
	sort.Ints(next)
	c.expanded = next
}

// Toggle opens section i alone, or closes it when it is already open.
func (c *Controller) Toggle(i int) {
	if c.IsExpanded(i) {
		c.SetExpanded(nil)
		return
	}
	c.SetExpanded([]int{i})
}

// ExpandAll opens every section.
func (c *Controller) ExpandAll() {
	all := make([]int, len(c.sections))
	for i := range all {
		all[i] = i
	}
	c.SetExpanded(all)
}

// TakeAlert returns the failure alert the first time it is called after the
// screen failed.
func (c *Controller) TakeAlert() (Alert, bool) {
	if c.state != StateFailed || c.alertTaken {
		return Alert{}, false
	}
	c.alertTaken = true
	return FailedAlert, true
}
