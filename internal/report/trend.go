package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/gradebook/internal/grades"
	"github.com/verte-zerg/gradebook/internal/model"
)

// Series is a named run of GPA values, oldest first.
type Series struct {
	Name   string
	Values []float64
	Color  string
}

type lineStyle struct {
	name   string
	period int
	on     int
}

const (
	defaultTrendHeight = 8
	minPlotWidth       = 10
	maxGPA             = 4.0
	axisSeparator      = " │ "
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
}

// TrendOptions controls RenderTrend.
type TrendOptions struct {
	Color  bool
	Width  int
	Height int
}

// TrendSeries returns the per-term and cumulative GPA for sections, oldest
// term first. Terms without GPA hours are skipped and do not count toward
// the cumulative value.
func TrendSeries(sections []model.Section) (labels []string, term, cumulative []float64) {
	var hours, points float64
	for i := len(sections) - 1; i >= 0; i-- {
		s := sections[i]
		gpa := grades.TermGPA(s.Courses)
		if math.IsNaN(gpa) {
			continue
		}
		for _, c := range s.Courses {
			hours += c.GPAHours
			points += c.Points
		}
		labels = append(labels, s.TermLabel)
		term = append(term, gpa)
		cumulative = append(cumulative, grades.Round2(points/hours))
	}
	return labels, term, cumulative
}

// RenderTrend plots term and cumulative GPA on a fixed 0-4 scale.
func RenderTrend(w io.Writer, sections []model.Section, opts TrendOptions) error {
	labels, term, cumulative := TrendSeries(sections)
	if len(term) == 0 {
		_, err := fmt.Fprintln(w, "No graded terms found.")
		return err
	}
	series := []Series{
		{Name: "Term GPA", Values: term, Color: grades.Neutral.Hex()},
		{Name: "Cumulative GPA", Values: cumulative, Color: grades.GradeColor(1, 3).Hex()},
	}

	height := opts.Height
	if height <= 0 {
		height = defaultTrendHeight
	}
	width := PlotWidthFor(opts.Width)
	renderer := lipgloss.NewRenderer(w)

	cells := make([][][]uint8, len(series))
	for si, s := range series {
		cells[si] = makeCells(height, width)
		style := lineStyles[si%len(lineStyles)]
		values := resampleSeries(s.Values, width)
		prevX, prevY := -1, -1
		for x, v := range values {
			px, py := x*2, valueToRow(v, height*4)
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					if style.shouldPlot(dx) {
						setBrailleDot(cells[si], dx, dy)
					}
				})
			} else {
				setBrailleDot(cells[si], px, py)
			}
			prevX, prevY = px, py
		}
	}

	var b strings.Builder
	b.WriteString("GPA by term\n")
	for _, s := range series {
		fmt.Fprintf(&b, "%s: latest=%s\n", s.Name, grades.FormatGPA(s.Values[len(s.Values)-1]))
	}
	axis := axisLabels(height)
	axisWidth := runewidth.StringWidth(grades.FormatGPA(maxGPA))
	for y := 0; y < height; y++ {
		b.WriteString(padCell(axis[y], axisWidth, true))
		b.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, idx := composeCell(cells, x, y)
			ch := string(brailleFromMask(mask))
			if opts.Color && idx >= 0 {
				ch = renderer.NewStyle().Foreground(lipgloss.Color(series[idx].Color)).Render(ch)
			}
			b.WriteString(ch)
		}
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat(" ", axisWidth+runewidth.StringWidth(axisSeparator)))
	b.WriteString(spanLabels(labels[0], labels[len(labels)-1], width))
	b.WriteString("\n")
	b.WriteString(renderLegend(renderer, series, opts.Color))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// PlotWidthFor computes a plot width that fits within totalWidth.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		totalWidth = terminalWidthBackup
	}
	axisWidth := runewidth.StringWidth(grades.FormatGPA(maxGPA)) + runewidth.StringWidth(axisSeparator)
	plotWidth := totalWidth - axisWidth
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func spanLabels(first, last string, width int) string {
	if first == last {
		return runewidth.Truncate(first, width, "")
	}
	gap := width - runewidth.StringWidth(first) - runewidth.StringWidth(last)
	if gap < 1 {
		return runewidth.Truncate(first, width, "")
	}
	return first + strings.Repeat(" ", gap) + last
}

func axisLabels(height int) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = grades.FormatGPA(maxGPA)
	if height > 2 {
		labels[height/2] = grades.FormatGPA(maxGPA / 2)
	}
	if height > 1 {
		labels[height-1] = grades.FormatGPA(0)
	}
	return labels
}

func renderLegend(renderer *lipgloss.Renderer, series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := brailleFromMask(0x01)
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", marker, s.Name, lineStyles[i%len(lineStyles)].name)
		if useColor {
			label = renderer.NewStyle().Foreground(lipgloss.Color(s.Color)).Render(label)
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

// composeCell merges the dots of every series; the first series to touch a
// cell owns its color.
func composeCell(seriesCells [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, cells := range seriesCells {
		if y < 0 || y >= len(cells) || x < 0 || x >= len(cells[y]) {
			continue
		}
		if cells[y][x] == 0 {
			continue
		}
		if owner == -1 {
			owner = i
		}
		mask |= cells[y][x]
	}
	return mask, owner
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

// resampleSeries stretches values across width columns by linear
// interpolation, averaging buckets when there are more values than columns.
func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case len(values) == width:
		copy(out, values)
	case len(values) > width:
		for i := 0; i < width; i++ {
			start := i * len(values) / width
			end := (i + 1) * len(values) / width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case len(values) == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := 0; i < width; i++ {
			pos := float64(i) * float64(len(values)-1) / float64(width-1)
			idx := int(math.Floor(pos))
			if idx >= len(values)-1 {
				out[i] = values[len(values)-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// valueToRow maps a GPA onto a dot row, 0 being the top of the plot.
func valueToRow(v float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	pos := math.Max(0, math.Min(v/maxGPA, 1))
	return int(math.Round((1 - pos) * float64(rows-1)))
}

// drawLine walks a Bresenham line between two dot positions.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func setBrailleDot(cells [][]uint8, x, y int) {
	cellY, cellX := y/4, x/2
	if y < 0 || x < 0 || cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// brailleDotMask returns the Unicode braille bit for a dot inside a 2x4 cell.
func brailleDotMask(x, y int) uint8 {
	masks := [2][4]uint8{
		{0x01, 0x02, 0x04, 0x40},
		{0x08, 0x10, 0x20, 0x80},
	}
	if x < 0 || x > 1 || y < 0 || y > 3 {
		return 0
	}
	return masks[x][y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
