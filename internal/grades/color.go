package grades

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// qualityScale is the quality points per credit hour of a perfect grade.
const qualityScale = 4

const (
	curveScale = 100
	saturation = 0.8
	lightness  = 0.5
	neutralHex = "#2699FB"
)

// Color is an HSL color. Hue is in degrees and is not clamped; saturation and
// lightness are in [0,1].
type Color struct {
	H float64
	S float64
	L float64
}

// Neutral is the color for courses that carry no grade weight.
var Neutral = mustHSL(neutralHex)

func mustHSL(hex string) Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(fmt.Sprintf("invalid color %q: %v", hex, err))
	}
	h, s, l := c.Hsl()
	return Color{H: h, S: s, L: l}
}

// GradeColor maps a course's weight and earned points onto a red-to-green hue.
func GradeColor(hours, points float64) Color {
	if hours == 0 {
		return Neutral
	}
	ratio := points / (hours * qualityScale)
	return Color{H: curve(ratio), S: saturation, L: lightness}
}

// curve is a cubic ease-in-out around 0.5 scaled to curveScale.
func curve(ratio float64) float64 {
	x := 2*ratio - 1
	return curveScale * ((x*x*x + 1) / 2)
}

// CSS renders the color in CSS hsl() notation.
func (c Color) CSS() string {
	return fmt.Sprintf("hsl(%s,%s%%,%s%%)", trimFloat(c.H), trimFloat(c.S*100), trimFloat(c.L*100))
}

// Hex renders the color as #rrggbb. Out-of-range hues wrap around the wheel.
func (c Color) Hex() string {
	h := math.Mod(c.H, 360)
	if h < 0 {
		h += 360
	}
	if math.IsNaN(h) {
		h = 0
	}
	return colorful.Hsl(h, c.S, c.L).Clamped().Hex()
}

func trimFloat(v float64) string {
	return fmt.Sprintf("%g", math.Round(v*1e6)/1e6)
}
