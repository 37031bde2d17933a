package inventory

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"plain", "R1", "R1", nil},
		{"trimmed", "  LED red \t", "LED red", nil},
		{"empty", "", "", ErrEmptyName},
		{"blank", "   ", "", ErrEmptyName},
		{"at limit", strings.Repeat("x", maxNameLength), strings.Repeat("x", maxNameLength), nil},
		{"too long", strings.Repeat("x", maxNameLength+1), "", ErrNameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateName(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("validateName() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("validateName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveID(t *testing.T) {
	generated, err := resolveID("")
	if err != nil || generated == "" {
		t.Fatalf("resolveID(\"\") = %q, %v", generated, err)
	}
	if got, err := resolveID("R1"); err != nil || got != "R1" {
		t.Errorf("resolveID(R1) = %q, %v", got, err)
	}
	for _, bad := range []string{"a b", "a/b", strings.Repeat("x", 65)} {
		if _, err := resolveID(bad); !errors.Is(err, ErrInvalidID) {
			t.Errorf("resolveID(%q) error = %v, want ErrInvalidID", bad, err)
		}
	}
}

func TestApplyRef(t *testing.T) {
	current := ptr("img-1")

	if got := applyRef(current, nil); got == nil || *got != "img-1" {
		t.Errorf("nil update should keep current, got %v", got)
	}
	if got := applyRef(current, ptr("")); got != nil {
		t.Errorf("empty update should clear, got %q", *got)
	}
	if got := applyRef(current, ptr("img-2")); got == nil || *got != "img-2" {
		t.Errorf("update should replace, got %v", got)
	}
	if got := applyRef(nil, nil); got != nil {
		t.Errorf("nil/nil = %q, want nil", *got)
	}
}

func TestPartLowStock(t *testing.T) {
	tests := []struct {
		stock, min int
		want       bool
	}{
		{0, 5, true},
		{5, 5, false},
		{6, 5, false},
		{0, 0, false},
	}
	for _, tt := range tests {
		p := Part{Stock: tt.stock, MinStock: tt.min}
		if got := p.LowStock(); got != tt.want {
			t.Errorf("Part{Stock:%d, MinStock:%d}.LowStock() = %v, want %v", tt.stock, tt.min, got, tt.want)
		}
	}
}
