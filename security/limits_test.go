package security

import (
	"errors"
	"fmt"
	"testing"
)

func TestWithDefaults(t *testing.T) {
	l := Limits{MaxGroupDepth: 5}.WithDefaults()
	if l.MaxGroupDepth != 5 {
		t.Fatalf("explicit value overwritten: %d", l.MaxGroupDepth)
	}
	d := DefaultLimits()
	if l.MaxDocumentSize != d.MaxDocumentSize || l.MaxControlWordLength != d.MaxControlWordLength {
		t.Fatalf("zero fields not defaulted: %+v", l)
	}
	if (Limits{}).WithDefaults() != d {
		t.Fatal("zero limits should default completely")
	}
}

func TestLimitError(t *testing.T) {
	err := NewLimitError("group depth", 100, 101, 42)
	want := "rtf: group depth limit exceeded at offset 42: 101 > 100"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}

	var le *LimitError
	wrapped := fmt.Errorf("parse: %w", err)
	if !errors.As(wrapped, &le) || le.Limit != "group depth" {
		t.Fatalf("errors.As failed on wrapped error: %v", wrapped)
	}
}
