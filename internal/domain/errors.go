package domain

import "errors"

// Sentinel errors for catalog resolution
var (
	// ErrUnknownResolver indicates no resolver is registered for the
	// parsed kind/action combination
	ErrUnknownResolver = errors.New("no resolver registered for media kind")

	// ErrUpstreamUnavailable indicates the remote metadata source is
	// unreachable or returned an unusable shape
	ErrUpstreamUnavailable = errors.New("remote metadata source unavailable")

	// ErrNotAuthenticated indicates the readiness gate timed out before
	// an authenticated session was available
	ErrNotAuthenticated = errors.New("not authenticated against metadata source")

	// ErrItemNotFound indicates the requested record does not exist
	ErrItemNotFound = errors.New("item not found")
)
