package errors_test

import (
	"strings"
	"testing"

	"github.com/jacoelho/xmlkit/errors"
)

func TestNotWellFormedError(t *testing.T) {
	err := errors.NewNotWellFormed(errors.UnexpectedToken, errors.Position{Line: 3, Column: 7}, "expected %q", ">")
	msg := err.Error()
	for _, want := range []string{"not well-formed", "unexpected-token", "line 3, column 7", `expected ">"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, want substring %q", msg, want)
		}
	}
}

func TestInvalidErrorNoPosition(t *testing.T) {
	err := errors.NewInvalid(errors.UnexpectedElement, errors.Position{}, "unexpected element %q", "b")
	if strings.Contains(err.Error(), " at ") {
		t.Errorf("Error() = %q, did not expect a position suffix", err.Error())
	}
}
