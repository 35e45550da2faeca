// Package grades builds the term-grouped grade view model.
package grades

import (
	"math"
	"slices"
	"sort"
	"strconv"

	"github.com/verte-zerg/gradebook/internal/model"
)

// TermTranslator maps a raw term code to a display label.
type TermTranslator interface {
	Translate(code string) string
}

// BuildSections groups the payload by term, most recent term first, and
// returns the overall GPA carried by the payload.
func BuildSections(payload model.Payload, terms TermTranslator) (float64, []model.Section) {
	sections := make([]model.Section, 0, len(payload.Terms))
	for _, term := range payload.Terms {
		sections = append(sections, model.Section{
			TermCode:  term.Code,
			TermLabel: terms.Translate(term.Code),
			Courses:   slices.Clone(term.Courses),
		})
	}
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].TermCode > sections[j].TermCode
	})
	return OverallGPA(payload), sections
}

// OverallGPA returns the upstream GPA, NaN when it was absent or malformed.
func OverallGPA(payload model.Payload) float64 {
	if math.IsInf(payload.GPA, 0) {
		return math.NaN()
	}
	return payload.GPA
}

// TermGPA returns earned points over GPA hours rounded to two places.
// A zero-weight term yields NaN.
func TermGPA(courses []model.Course) float64 {
	var hours, points float64
	for _, c := range courses {
		hours += c.GPAHours
		points += c.Points
	}
	if hours == 0 {
		return math.NaN()
	}
	return Round2(points / hours)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatGPA formats a GPA with two decimals; undefined values render empty.
func FormatGPA(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Credits returns the whole credit hours attempted for display.
func Credits(c model.Course) int {
	return int(math.Floor(c.Attempted))
}
