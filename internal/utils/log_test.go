package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "Achiever, Arranger", limit: 0, expect: ""},
		{name: "fits", input: "Achiever", limit: 10, expect: "Achiever"},
		{name: "cut with ellipsis", input: "Compare Arthur with the team", limit: 7, expect: "Compare..."},
		{name: "collapses newlines", input: "  first line\n\n  second\tline ", limit: 50, expect: "first line second line"},
		{name: "counts runes", input: "Über Strategisch", limit: 4, expect: "Über..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
