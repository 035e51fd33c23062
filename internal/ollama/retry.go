package ollama

import (
	"fmt"
	"time"
)

// RetryPolicy describes how Complete re-attempts a failed request.
// MaxAttempts <= 0 means retry forever; callers needing a ceiling on an
// unbounded policy must wrap the call with their own context deadline.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Unbounded reports whether the policy retries forever.
func (p RetryPolicy) Unbounded() bool { return p.MaxAttempts <= 0 }

// ExhaustedError is returned when a bounded policy runs out of attempts.
// It carries the last underlying attempt error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("inference failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }
