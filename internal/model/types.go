// Package model defines shared data structures.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reserved payload keys carrying metadata instead of term data.
const (
	KeyLoaded = "loaded"
	KeyGPA    = "gpa"
)

// Config defines grades screen settings.
type Config struct {
	Student   string
	ExpandAll bool
	DBPath    string
}

// Course is one enrolled course in a term with numeric fields already normalized.
type Course struct {
	Subject      string
	CourseNumber string
	TitleCode    string
	Attempted    float64
	GPAHours     float64
	Points       float64
	Grade        string
	CourseID     string
}

// Term pairs a raw term code with its courses in input order.
type Term struct {
	Code    string
	Courses []Course
}

// Payload is the typed form of the upstream term-keyed grade record.
type Payload struct {
	Loaded bool
	GPA    float64
	Terms  []Term
}

// Section is one collapsible term group handed to the renderer.
type Section struct {
	TermCode  string
	TermLabel string
	Courses   []Course
}

// ParseNumber coerces a numeric string. Malformed input reports ok=false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Text decodes a JSON string or number as a string.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	*t = Text(data)
	return nil
}

// Number decodes a JSON number or numeric string. Anything else decodes to 0.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = 0
	v, ok := decodeNumeric(data)
	if ok {
		*n = Number(v)
	}
	return nil
}

func decodeNumeric(data []byte) (float64, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, false
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, false
		}
		return ParseNumber(s)
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, false
	}
	return f, true
}

type rawCourse struct {
	Subject      string `json:"SUBJ"`
	CourseNumber Text   `json:"COURSE"`
	TitleCode    string `json:"TITLE"`
	Attempted    Number `json:"ATTEMPTED"`
	GPAHours     Number `json:"GPA_HRS"`
	Points       Number `json:"POINTS"`
	Grade        string `json:"GRADE"`
	CourseID     Text   `json:"CRN"`
}

// UnmarshalJSON decodes the upstream key layout and normalizes numeric fields.
func (c *Course) UnmarshalJSON(data []byte) error {
	var raw rawCourse
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Course{
		Subject:      raw.Subject,
		CourseNumber: string(raw.CourseNumber),
		TitleCode:    raw.TitleCode,
		Attempted:    float64(raw.Attempted),
		GPAHours:     float64(raw.GPAHours),
		Points:       float64(raw.Points),
		Grade:        raw.Grade,
		CourseID:     string(raw.CourseID),
	}
	return nil
}

// UnmarshalJSON splits the reserved keys from the term keys, keeping term
// document order. A repeated term key keeps its first position and its last
// value.
func (p *Payload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("grade payload must be a JSON object")
	}
	out := Payload{GPA: math.NaN()}
	seen := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to decode %q: %w", key, err)
		}
		switch key {
		case KeyLoaded:
			var loaded bool
			if err := json.Unmarshal(value, &loaded); err == nil {
				out.Loaded = loaded
			}
		case KeyGPA:
			if v, ok := decodeNumeric(value); ok {
				out.GPA = v
			}
		default:
			var courses []Course
			if err := json.Unmarshal(value, &courses); err != nil {
				return fmt.Errorf("failed to decode term %q: %w", key, err)
			}
			if i, ok := seen[key]; ok {
				out.Terms[i].Courses = courses
				continue
			}
			seen[key] = len(out.Terms)
			out.Terms = append(out.Terms, Term{Code: key, Courses: courses})
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

// ParsePayload decodes a raw grade record.
func ParsePayload(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
