// Package translate maps opaque registrar codes to display strings.
package translate

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultSeasons maps the two-digit month suffix of a term code to a season.
var DefaultSeasons = map[string]string{
	"01": "Spring",
	"05": "Summer",
	"09": "Fall",
	"12": "Winter",
}

// Terms translates YYYYMM term codes into labels such as "Fall 2022".
type Terms struct {
	seasons map[string]string
}

// NewTerms returns a term translator. Overrides replace default season names.
func NewTerms(overrides map[string]string) *Terms {
	seasons := make(map[string]string, len(DefaultSeasons)+len(overrides))
	for k, v := range DefaultSeasons {
		seasons[k] = v
	}
	for k, v := range overrides {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		seasons[k] = v
	}
	return &Terms{seasons: seasons}
}

// Translate returns the label for code, or code itself when it is not recognised.
func (t *Terms) Translate(code string) string {
	if len(code) != 6 || !allDigits(code) {
		return code
	}
	season, ok := t.seasons[code[4:]]
	if !ok {
		return code
	}
	return season + " " + code[:4]
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Courses translates upper-case registrar titles into display titles.
type Courses struct {
	overrides map[string]string
	caser     cases.Caser
}

// NewCourses returns a course title translator with exact-match overrides.
func NewCourses(overrides map[string]string) *Courses {
	normalized := make(map[string]string, len(overrides))
	for k, v := range overrides {
		normalized[normalizeCode(k)] = v
	}
	return &Courses{
		overrides: normalized,
		caser:     cases.Title(language.English),
	}
}

// Translate returns the display title for a raw title code.
func (c *Courses) Translate(code string) string {
	key := normalizeCode(code)
	if key == "" {
		return ""
	}
	if title, ok := c.overrides[key]; ok {
		return title
	}
	words := strings.Fields(key)
	for i, w := range words {
		if keepUpper(w) {
			continue
		}
		words[i] = c.caser.String(w)
	}
	return strings.Join(words, " ")
}

func normalizeCode(code string) string {
	return strings.Join(strings.Fields(strings.ToUpper(code)), " ")
}

// keepUpper reports whether a token reads better in capitals: roman
// numerals and tokens with digits such as "3D".
func keepUpper(w string) bool {
	if isRoman(w) {
		return true
	}
	return strings.ContainsAny(w, "0123456789")
}

func isRoman(w string) bool {
	switch w {
	case "I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X":
		return true
	}
	return false
}
