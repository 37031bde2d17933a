package ids

import (
	"strings"
	"testing"
)

func TestNew_UniqueAndSorted(t *testing.T) {
	prev := New()
	seen := map[string]bool{prev: true}
	for i := 0; i < 1000; i++ {
		id := New()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		if id <= prev {
			t.Fatalf("id %s does not sort after %s", id, prev)
		}
		seen[id] = true
		prev = id
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"R1", true},
		{New(), true},
		{"part-42_a.b", true},
		{"", false},
		{"has space", false},
		{"a/b", false},
		{strings.Repeat("x", 65), false},
		{"tab\tid", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.id); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
