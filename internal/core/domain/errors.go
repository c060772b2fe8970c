package domain

import "errors"

// ErrRateLimited marks a failure caused by the inference service rejecting a
// call for quota or throughput reasons. It is the only failure class the
// retry executor treats as retryable; adapters wrap their provider-specific
// throttling errors with it.
var ErrRateLimited = errors.New("inference service rate limited")

// ErrMalformedResponse marks a response that did not match the expected
// structured shape. It is a recoverable stage failure, never a crash.
var ErrMalformedResponse = errors.New("malformed inference response")

// IsRateLimit reports whether err carries the rate-limit signature.
func IsRateLimit(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
