package errors_test

import (
	"testing"

	"github.com/jacoelho/xmlkit/errors"
)

func TestWarningsAggregation(t *testing.T) {
	var w errors.Warnings
	if w.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for an empty Warnings", w.Len())
	}
	if w.Err() != nil {
		t.Fatalf("Err() = %v, want nil for an empty Warnings", w.Err())
	}

	w.Add(errors.NewInvalid(errors.UndeclaredAttribute, errors.Position{Line: 1}, "attribute %q undeclared", "x"))
	w.Add(errors.NewInvalid(errors.DuplicateID, errors.Position{Line: 2}, "duplicate id %q", "y"))

	if w.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", w.Len())
	}
	if got := w.All(); len(got) != 2 {
		t.Fatalf("All() returned %d entries, want 2", len(got))
	}
	if w.Err() == nil {
		t.Fatal("Err() = nil, want a non-nil aggregate error")
	}
}
