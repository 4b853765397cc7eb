package retry

import (
	"fmt"
	"time"
)

// Policy encapsulates backoff settings for transient remote failures.
// It is immutable after construction.
type Policy struct {
	Initial    time.Duration // base delay before the first retry
	Max        time.Duration // cap for exponential growth
	MaxRetries int           // retry attempts after the first failure
}

// DefaultPolicy matches the vendor client contract: up to 3 retries with
// capped exponential backoff starting at 500ms.
func DefaultPolicy() Policy {
	return Policy{Initial: 500 * time.Millisecond, Max: 5 * time.Second, MaxRetries: 3}
}

// Delay returns the backoff delay for the given retry attempt (1-based).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	d := p.Initial * (1 << (retryCount - 1))
	if d > p.Max {
		return p.Max
	}
	return d
}

// Validate ensures invariants; returns an error if the policy cannot apply.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}
