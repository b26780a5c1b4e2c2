package engine

import (
	"fmt"
	"strings"
)

// ProjectFailure pairs a failed project with the error its pipeline returned.
type ProjectFailure struct {
	Project string
	Err     error
}

// RunError is returned alongside a partial AggregateResult when at least one
// project failed. Sibling projects are unaffected.
type RunError struct {
	Failures []ProjectFailure
	Total    int
}

func newRunError(res *AggregateResult) *RunError {
	failed := res.Failed()
	if len(failed) == 0 {
		return nil
	}
	e := &RunError{Total: len(res.Order)}
	for _, p := range failed {
		e.Failures = append(e.Failures, ProjectFailure{Project: p, Err: res.Failures[p]})
	}
	return e
}

func (e *RunError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Project, f.Err))
	}
	return fmt.Sprintf("%d of %d projects failed: %s", len(e.Failures), e.Total, strings.Join(parts, "; "))
}

func (e *RunError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
