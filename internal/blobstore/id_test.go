package blobstore

import (
	"strings"
	"testing"
	"time"
)

func TestNewIDShape(t *testing.T) {
	now := time.UnixMilli(1760000000123)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := NewID(now)
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if !strings.HasPrefix(id, "1760000000123-") {
			t.Fatalf("unexpected prefix: %s", id)
		}
		if err := ValidateID(id); err != nil {
			t.Fatalf("validate %s: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"1760000000123-abcd1234", true},
		{"1-abcd", true},
		{"", false},
		{"abc", false},
		{"1760000000123-ABCD", false},
		{"../1760000000123-abcd", false},
		{"1760000000123-ab/cd", false},
	}
	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			err := ValidateID(tc.id)
			if tc.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.valid && err == nil {
				t.Fatalf("expected invalid id %q", tc.id)
			}
		})
	}
}
