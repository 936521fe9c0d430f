package errors

import (
	"github.com/hashicorp/go-multierror"
)

// Warnings aggregates the non-fatal Invalid reports a parse delivers to
// report_invalid when validation is off (spec.md §7): the document is
// still well-formed, but one or more DTD-validity constraints did not
// hold. Parsing continues and the caller decides what to do with them.
type Warnings struct {
	errs *multierror.Error
}

// Add appends one Invalid report.
func (w *Warnings) Add(e *Invalid) {
	w.errs = multierror.Append(w.errs, e)
}

// Len reports how many warnings were collected.
func (w *Warnings) Len() int {
	if w.errs == nil {
		return 0
	}
	return len(w.errs.Errors)
}

// All returns the collected warnings in report order.
func (w *Warnings) All() []*Invalid {
	if w.errs == nil {
		return nil
	}
	out := make([]*Invalid, 0, len(w.errs.Errors))
	for _, e := range w.errs.Errors {
		if inv, ok := e.(*Invalid); ok {
			out = append(out, inv)
		}
	}
	return out
}

// Err returns the aggregate as an error, or nil if nothing was
// collected.
func (w *Warnings) Err() error {
	if w.errs == nil || len(w.errs.Errors) == 0 {
		return nil
	}
	return w.errs.ErrorOrNil()
}
