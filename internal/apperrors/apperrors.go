// Package apperrors defines the error taxonomy the daemon uses to decide
// process exit codes. Every fatal startup error is one of these kinds;
// runtime errors in the input or store path are logged and swallowed
// instead of propagated here.
package apperrors

import "fmt"

// Kind identifies one of the daemon's error categories.
type Kind int

const (
	// KindNone is the zero value; never returned as an error kind.
	KindNone Kind = iota
	KindWrongArgument
	KindConfig
	KindPermission
	KindNoDevices
	KindInputLayer
	KindStore
	KindSystem
)

// exitCodes assigns a distinct small integer per kind.
var exitCodes = map[Kind]int{
	KindWrongArgument: 1,
	KindInputLayer:    2,
	KindPermission:    3,
	KindNoDevices:     4,
	KindStore:         5,
	KindConfig:        6,
	KindSystem:        7,
}

// Error wraps an underlying cause with a Kind so the controller can map it
// to an exit code without a type switch over every possible error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a typed Error from a format string, analogous to fmt.Errorf.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a Kind to an existing error.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// ExitCode returns the process exit code for err, or 1 for any error that
// isn't a *Error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ae *Error
	if ok := asError(err, &ae); ok {
		if code, found := exitCodes[ae.Kind]; found {
			return code
		}
	}
	return 1
}

func asError(err error, target **Error) bool {
	for err != nil {
		if ae, ok := err.(*Error); ok {
			*target = ae
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
