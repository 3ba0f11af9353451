// Package resilience guards a proposal store with fortify's bulkhead,
// circuit breaker and retry patterns.
package resilience

import "time"

// Config configures the resilient store.
type Config struct {
	// MaxConcurrent limits concurrent store calls.
	MaxConcurrent int

	// BreakerThreshold is the number of consecutive backend failures
	// before the breaker opens.
	BreakerThreshold int

	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration

	// ReadAttempts is the number of attempts for Load and List.
	ReadAttempts int

	// ReadDelay is the initial delay between read attempts.
	ReadDelay time.Duration

	// Timeout bounds a single store call.
	Timeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:    32,
		BreakerThreshold: 5,
		BreakerTimeout:   30 * time.Second,
		ReadAttempts:     3,
		ReadDelay:        50 * time.Millisecond,
		Timeout:          10 * time.Second,
	}
}

// Option configures the store.
type Option func(*Config)

// WithMaxConcurrent sets the maximum concurrent store calls.
func WithMaxConcurrent(n int) Option {
	return func(c *Config) {
		c.MaxConcurrent = n
	}
}

// WithBreaker sets the failure threshold and open duration.
func WithBreaker(threshold int, timeout time.Duration) Option {
	return func(c *Config) {
		c.BreakerThreshold = threshold
		c.BreakerTimeout = timeout
	}
}

// WithReadRetry sets the attempts and initial delay for reads.
func WithReadRetry(attempts int, delay time.Duration) Option {
	return func(c *Config) {
		c.ReadAttempts = attempts
		c.ReadDelay = delay
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}
