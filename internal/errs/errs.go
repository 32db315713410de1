// Package errs holds the sentinel errors shared by the analysis packages.
package errs

import (
	"github.com/pkg/errors"
)

// ErrInvalidInput marks a structural problem with caller supplied data:
// a window longer than the series, too few samples to cluster, feature rows
// of different widths. Missing poses are never reported through it.
var ErrInvalidInput = errors.New("invalid input")

// Invalid wraps ErrInvalidInput with a formatted message and a stack trace.
func Invalid(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}

// IsInvalid reports whether err was produced by Invalid.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
