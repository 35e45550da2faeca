// Package report renders the grades view model as plain text.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/verte-zerg/gradebook/internal/grades"
	"github.com/verte-zerg/gradebook/internal/model"
)

const (
	terminalWidthBackup = 80
	compactWidth        = 60
	colGrade            = 3
)

// CourseTranslator maps a raw title code to a display title.
type CourseTranslator interface {
	Translate(code string) string
}

// Options controls report rendering.
type Options struct {
	Courses CourseTranslator
	Color   bool
	Width   int
}

// Render writes the overall GPA followed by one table per section.
func Render(w io.Writer, overallGPA float64, sections []model.Section, opts Options) error {
	renderer := lipgloss.NewRenderer(w)
	heading := renderer.NewStyle().Bold(opts.Color)

	lines := []string{heading.Render("Overall") + "  " + gpaTag(overallGPA)}
	if len(sections) == 0 {
		lines = append(lines, "", "No terms found.")
	}
	for _, section := range sections {
		lines = append(lines, "", heading.Render(section.TermLabel)+"  "+gpaTag(grades.TermGPA(section.Courses)))
		lines = append(lines, sectionTable(renderer, section, opts)...)
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func gpaTag(v float64) string {
	formatted := grades.FormatGPA(v)
	if formatted == "" {
		return "-"
	}
	return formatted + " GPA"
}

func sectionTable(renderer *lipgloss.Renderer, section model.Section, opts Options) []string {
	compact := opts.Width > 0 && opts.Width < compactWidth
	headers := []string{"Course", "Code", "Credits", "Grade"}
	if !compact {
		headers = append(headers, "Color")
	}
	rows := make([][]string, 0, len(section.Courses))
	colors := make([]grades.Color, 0, len(section.Courses))
	for _, c := range section.Courses {
		color := grades.GradeColor(c.GPAHours, c.Points)
		colors = append(colors, color)
		row := []string{
			courseTitle(opts.Courses, c),
			strings.TrimSpace(c.Subject + " " + c.CourseNumber),
			strconv.Itoa(grades.Credits(c)),
			c.Grade,
		}
		if !compact {
			row = append(row, color.Hex())
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return []string{"No courses."}
	}

	var decorate cellDecorator
	if opts.Color {
		decorate = func(r, col int, padded string) string {
			if r < 0 || col != colGrade {
				return padded
			}
			return renderer.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color(colors[r].Hex())).
				Bold(true).
				Render(padded)
		}
	}
	return formatTable(headers, rows, map[int]bool{2: true}, decorate)
}

func courseTitle(courses CourseTranslator, c model.Course) string {
	if courses == nil {
		return c.TitleCode
	}
	return courses.Translate(c.TitleCode)
}

// TerminalWidth returns the width of stdout, or a fallback when it is not a
// terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// ShouldUseColor reports whether w is a terminal and NO_COLOR is unset.
func ShouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// Summary renders a one-line description of a section list.
func Summary(sections []model.Section) string {
	courses := 0
	for _, s := range sections {
		courses += len(s.Courses)
	}
	return fmt.Sprintf("%d terms, %d courses", len(sections), courses)
}
