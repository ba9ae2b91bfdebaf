// fatal.go - the fatal/silent error partition

package rr

import "fmt"

// FatalError is raised for any condition spec.md §7 classifies as fatal:
// divergence, short I/O, a capture or dispatch call made in the wrong
// mode, or an unimplemented kind in the codec. The original aborts the
// process outright; this module panics internally with a FatalError value
// and recovers at each exported entry point, turning it into an ordinary
// returned error without asking callers to recover panics of their own.
type FatalError struct {
	Message string
	Current ProgramPoint
	Wanted  ProgramPoint
	Kind    Kind
}

func (e *FatalError) Error() string {
	if e.Current == (ProgramPoint{}) && e.Wanted == (ProgramPoint{}) {
		return fmt.Sprintf("rr: fatal: %s", e.Message)
	}
	return fmt.Sprintf("rr: fatal: %s (current=%s expected=%s kind=%s)", e.Message, e.Current, e.Wanted, e.Kind)
}

// fail raises a bare fatal error with no program-point context. Its
// declared return type lets call sites read as `return fail(...)` even
// though it never returns normally.
func fail(msg string) error {
	panic(&FatalError{Message: msg})
}

// divergence raises a fatal error carrying the mismatch context a
// post-mortem report needs: what the caller expected versus what the
// queue actually held.
func divergence(msg string, current, wanted ProgramPoint, kind Kind) error {
	panic(&FatalError{Message: msg, Current: current, Wanted: wanted, Kind: kind})
}

// recoverFatal, deferred at an exported API boundary, turns a FatalError
// panic into a returned error on *errp. Any other panic value propagates
// unchanged — only the errors this package itself raises are converted.
func recoverFatal(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	fe, ok := r.(*FatalError)
	if !ok {
		panic(r)
	}
	*errp = fe
}
