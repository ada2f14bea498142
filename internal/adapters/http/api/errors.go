package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrMissingIssueKey = errors.New("Issue key is required") //nolint:staticcheck // surfaced verbatim to the calendar page
	ErrInternal        = errors.New("internal error")
)

// kindError tags an underlying error with an operation and a sentinel kind.
type kindError struct {
	op   string
	kind error
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return e.kind.Error()
	}
	return e.err.Error()
}

func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// Op returns the operation that produced the error.
func (e *kindError) Op() string { return e.op }

// WrapKind wraps err so that errors.Is(result, kind) holds. The message stays
// that of err so clients see the underlying cause.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{op: op, kind: kind, err: err}
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &kindError{op: op, kind: kind}
}

// opOf extracts the operation name for logging, or "" when err is untagged.
func opOf(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.Op()
	}
	return ""
}

// panicError converts a recovered panic value into an ErrInternal error.
func panicError(op string, v any) error {
	if err, ok := v.(error); ok {
		return WrapKind(op, ErrInternal, err)
	}
	return WrapKind(op, ErrInternal, fmt.Errorf("%v", v))
}
