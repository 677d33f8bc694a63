package scheduler

import (
	"errors"
	"fmt"
)

// ErrNoPathAvailable is returned by Select when no path satisfies the
// eligibility filter. Transient: the caller is expected to retry on the
// next wake-up. Never logged above debug severity — see SPEC_FULL.md.
var ErrNoPathAvailable = errors.New("scheduler: no path available")

// ErrDone is returned by Select when a redundant-mode burst has already
// returned every eligible path; the caller stops packing for this burst.
var ErrDone = errors.New("scheduler: burst exhausted")

// InvalidConfigError is returned when an algorithm name fails to parse.
// Raised once at construction time and surfaces to configuration
// validation.
type InvalidConfigError struct {
	Token string
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("scheduler: invalid config: unrecognized algorithm %q", e.Token)
}
