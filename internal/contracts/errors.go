// Package contracts defines the narrow interfaces the matching engine's
// callers sit behind: risk pre-checks, trade event sinks, and replay
// journaling. The core never calls these directly except where noted;
// they exist so an RPC layer, a risk service, or a replay log can be
// plugged in without the core knowing about any of them.
package contracts

import "fmt"

// ErrorKind classifies a failure surfaced by the core.
type ErrorKind int

const (
	// InvalidInput: bad shape, rejected before any mutation.
	InvalidInput ErrorKind = iota
	// NotFound: a benign negative result (unknown order id or symbol).
	NotFound
	// Internal: an invariant violation. Fatal for the affected book only.
	Internal
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case NotFound:
		return "NotFound"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// EngineError wraps an error with the kind the caller should branch on.
type EngineError struct {
	Kind ErrorKind
	Msg  string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is makes errors.Is match by kind: any *EngineError target with the same
// Kind matches, whatever its message (e.g. errors.Is(err,
// contracts.Internalf(""))).
func (e *EngineError) Is(target error) bool {
	other, ok := target.(*EngineError)
	return ok && other.Kind == e.Kind
}

func InvalidInputf(format string, args ...any) error {
	return &EngineError{Kind: InvalidInput, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &EngineError{Kind: NotFound, Msg: fmt.Sprintf(format, args...)}
}

func Internalf(format string, args ...any) error {
	return &EngineError{Kind: Internal, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, defaulting to Internal for any
// error the core did not originate (conservative: an unclassified failure
// should not be treated as a benign NotFound/InvalidInput by callers).
func KindOf(err error) ErrorKind {
	if ee, ok := err.(*EngineError); ok {
		return ee.Kind
	}
	return Internal
}
