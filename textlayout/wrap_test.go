package textlayout

import (
	"reflect"
	"strings"
	"testing"
)

// tenPerRune is a fixed-pitch measurer: every rune is 10 units wide.
func tenPerRune(s string) float64 {
	return float64(len([]rune(s)) * 10)
}

func TestWrapEmptyText(t *testing.T) {
	lines := Wrap("", 100, tenPerRune)
	if len(lines) != 1 {
		t.Fatalf("Wrap(\"\") returned %d lines, want 1", len(lines))
	}
	if strings.TrimSpace(lines[0]) != "" {
		t.Errorf("Wrap(\"\") = %q, want a blank line", lines[0])
	}
}

func TestWrapFitsOnOneLine(t *testing.T) {
	got := Wrap("hello world foo", 1000, tenPerRune)
	want := []string{"hello world foo "}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}

func TestWrapOverWideWordsSitAlone(t *testing.T) {
	got := Wrap("aaaaaaaaaa bbbbbbbbbb", 50, tenPerRune)
	want := []string{"aaaaaaaaaa ", "bbbbbbbbbb "}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}

func TestWrapEqualWidthStaysOnLine(t *testing.T) {
	// "ab cd " is exactly 60 units.
	got := Wrap("ab cd ef", 60, tenPerRune)
	want := []string{"ab cd ", "ef "}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}

func TestWrapNewlineIsOrdinary(t *testing.T) {
	got := Wrap("a\nb c", 1000, tenPerRune)
	want := []string{"a\nb c "}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}

func TestWrapProperties(t *testing.T) {
	texts := []string{
		"",
		"one",
		"the quick brown fox jumps over the lazy dog",
		"supercalifragilisticexpialidocious is a word",
		"a b c d e f g h i j k l m n o p",
		"tiny enormouslylongwordthatneverfits tiny",
	}
	widths := []float64{10, 45, 80, 200, 1000}

	for _, text := range texts {
		for _, maxWidth := range widths {
			lines := Wrap(text, maxWidth, tenPerRune)
			if len(lines) == 0 {
				t.Fatalf("Wrap(%q, %v) returned no lines", text, maxWidth)
			}
			if got := Unwrap(lines); got != text {
				t.Errorf("Unwrap(Wrap(%q, %v)) = %q", text, maxWidth, got)
			}
			for i, line := range lines[:len(lines)-1] {
				if tenPerRune(line) <= maxWidth {
					continue
				}
				if strings.Count(strings.TrimSuffix(line, " "), " ") != 0 {
					t.Errorf("Wrap(%q, %v) line %d %q overflows with more than one word", text, maxWidth, i, line)
				}
			}
		}
	}
}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		lines []string
		want  string
	}{
		{[]string{" "}, ""},
		{[]string{"hello world "}, "hello world"},
		{[]string{"hello ", "world "}, "hello world"},
	}
	for _, tt := range tests {
		if got := Unwrap(tt.lines); got != tt.want {
			t.Errorf("Unwrap(%q) = %q, want %q", tt.lines, got, tt.want)
		}
	}
}
