// Package errs holds the error kinds shared by the calibration packages.
//
// Every error returned by the library wraps one of the sentinels below, so
// callers can branch with errors.Is regardless of the attached context.
package errs

import (
	"github.com/pkg/errors"
)

var (
	// ErrShape reports a wrong number of dimensions or mismatched sizes
	// between aligned arrays.
	ErrShape = errors.New("shape mismatch")

	// ErrNotFitted reports a query on a binning tree before Fit.
	ErrNotFitted = errors.New("binning tree is not fitted")

	// ErrInvalidParameter reports an unknown option name or an out of range
	// parameter value.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Shapef wraps ErrShape with a formatted message.
func Shapef(format string, args ...interface{}) error {
	return errors.Wrapf(ErrShape, format, args...)
}

// InvalidParameterf wraps ErrInvalidParameter with a formatted message.
func InvalidParameterf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidParameter, format, args...)
}

// BatchSizes checks that got equals want, the leading dimension every aligned
// array has to share.
func BatchSizes(want, got int) error {
	if want != got {
		return Shapef("expected batch size (%d) to match batch size (%d)", got, want)
	}
	return nil
}
