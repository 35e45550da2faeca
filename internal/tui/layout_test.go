package tui

import (
	"strings"
	"testing"
)

func TestFitLinesPadsAndClips(t *testing.T) {
	out := fitLines("ab\ncdef\nxyz", 4, 2)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "ab  " || lines[1] != "cdef" {
		t.Fatalf("unexpected lines: %q", lines)
	}

	out = fitLines("a", 2, 3)
	if out != "a \n  \n  " {
		t.Fatalf("unexpected padded output: %q", out)
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("Introduction to Algorithms", 10); got != "Introdu..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateLine("short", 10); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
