package gateway

import "errors"

var (
	// ErrInvalidRequest is returned when the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidAmount is returned when the amount is zero or negative
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrInvalidAuthority is returned when the authority token is malformed
	ErrInvalidAuthority = errors.New("invalid authority")
)
