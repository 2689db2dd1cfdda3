package aladhan

import "errors"

var (
	ErrNetwork         = errors.New("timings request failed")
	ErrRateLimited     = errors.New("timings request rate limited")
	ErrInvalidResponse = errors.New("invalid timings response")
	ErrInvalidQuery    = errors.New("invalid timings query")
)
