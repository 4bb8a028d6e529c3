package connectors

import (
	"fmt"
	"time"
)

// ThrottleError сигнализирует ретраю, сколько именно ждать: Slack отдает
// Retry-After на 429, и честнее подождать его, чем гадать бэкоффом.
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

func (e *ThrottleError) Unwrap() error { return e.Cause }
