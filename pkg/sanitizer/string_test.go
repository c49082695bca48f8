package sanitizer

import (
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Mazda 3", "Mazda 3"},
		{"leading and trailing space", "  Mazda 3  ", "Mazda 3"},
		{"collapses whitespace runs", "Mazda \t\t 3", "Mazda 3"},
		{"strips control characters", "Mazda\x003\x1b", "Mazda3"},
		{"newlines become single spaces", "line one\n\nline two", "line one line two"},
		{"empty", "", ""},
		{"only whitespace", " \t\n ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanText(tc.input); got != tc.want {
				t.Errorf("CleanText(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestCleanTextCapsLength(t *testing.T) {
	long := strings.Repeat("a", 300)
	if got := CleanText(long); len(got) != maxFieldLength {
		t.Errorf("length = %d, want %d", len(got), maxFieldLength)
	}
}

func TestCleanEmail(t *testing.T) {
	if got := CleanEmail("  Dana@Example.COM "); got != "dana@example.com" {
		t.Errorf("CleanEmail = %q, want dana@example.com", got)
	}
}
