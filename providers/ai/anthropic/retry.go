package anthropic

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jsonsift/jsonsift/internal/utils"
)

// ErrRetryExhausted is returned when all retry attempts have been consumed
// without a successful response. The error is wrapped with the last
// underlying provider error so callers can use [errors.Is] / [errors.As]
// to inspect the root cause.
var ErrRetryExhausted = errors.New("jsonsift: all retry attempts exhausted")

// RetryConfig holds the tuning parameters for the retry policy. Zero values
// are replaced with the defaults documented below.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the first
	// failure. A value of 3 means the API is called at most 4 times.
	// Negative values disable retries. Default: 3.
	MaxRetries int

	// InitialBackoff is the wait duration before the first retry attempt.
	// Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed backoff so it never exceeds this value.
	// Default: 30s.
	MaxBackoff time.Duration

	// BackoffFactor is the exponential growth multiplier applied to
	// InitialBackoff on successive retries
	// (backoff = min(InitialBackoff * BackoffFactor^attempt, MaxBackoff)).
	// Default: 2.0.
	BackoffFactor float64

	// JitterFraction adds random noise to the computed backoff in the range
	// [0, JitterFraction * backoff] to avoid thundering-herd problems.
	// Default: 0.1 (10% jitter).
	JitterFraction float64

	// RetryableFunc returns true when an error should trigger a retry.
	// The default implementation retries on HTTP status codes 429, 500,
	// 502, 503, and 529.
	RetryableFunc func(error) bool
}

// defaultRetryableFunc returns true for transient HTTP errors. Anthropic
// signals overload with 529 (overloaded_error) in addition to the usual
// 429/5xx codes. Network-level failures without a status code are not
// retried; they usually indicate misconfiguration rather than a transient
// upstream condition.
func defaultRetryableFunc(err error) bool {
	var statusErr *utils.HTTPStatusError
	if !errors.As(err, &statusErr) {
		return false
	}

	switch statusErr.StatusCode {
	case 429, 500, 502, 503, 529:
		return true
	}
	return false
}

// defaultRetryConfig returns the retry policy used by newly constructed
// providers.
func defaultRetryConfig() RetryConfig {
	config := RetryConfig{}
	applyRetryDefaults(&config)
	return config
}

// applyRetryDefaults fills in zero-valued fields in config. Negative
// MaxRetries is clamped to 0 (a single attempt, no retries).
func applyRetryDefaults(config *RetryConfig) {
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	if config.InitialBackoff == 0 {
		config.InitialBackoff = time.Second
	}

	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}

	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2.0
	}

	if config.JitterFraction == 0 {
		config.JitterFraction = 0.1
	}

	if config.RetryableFunc == nil {
		config.RetryableFunc = defaultRetryableFunc
	}
}

// computeBackoff returns the backoff duration for the given attempt (0-indexed).
// backoff = min(InitialBackoff * BackoffFactor^attempt, MaxBackoff) + jitter
func computeBackoff(config RetryConfig, attempt int) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))
	if base > float64(config.MaxBackoff) {
		base = float64(config.MaxBackoff)
	}

	jitter := base * config.JitterFraction * rand.Float64() //nolint:gosec // non-cryptographic jitter is intentional
	return time.Duration(base + jitter)
}
