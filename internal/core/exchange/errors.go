package exchange

import (
	"github.com/cockroachdb/errors"
)

// invariantf reports an accounting invariant violation. The enclosing ledger
// transaction must be rolled back when one is returned.
func invariantf(format string, args ...interface{}) error {
	return errors.AssertionFailedf(format, args...)
}

// IsInvariantViolation reports whether err, or an error it wraps, is an
// accounting invariant violation raised by this package.
func IsInvariantViolation(err error) bool {
	return errors.IsAssertionFailure(err)
}
