package eval

import (
	"errors"
	"fmt"
	"time"
)

// ErrTextTooShort rejects manuscripts under the evaluation minimum. The
// orchestrator logs it and produces an empty result rather than failing the
// job; inputs under the stricter extraction gate never reach this point.
var ErrTextTooShort = errors.New("manuscript text is too short for meaningful evaluation")

// TimeoutError aborts a whole job when the deadline passes between steps.
// All partial work is discarded; callers must not persist anything.
type TimeoutError struct {
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("evaluation timed out after %s", e.Elapsed.Round(time.Millisecond))
}

// IsTimeout reports whether err is (or wraps) a job timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
