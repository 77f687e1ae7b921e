package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrGatewayUnavailable is returned by call sites when no gateway was configured.
var ErrGatewayUnavailable = errors.New("gateway not configured")

// ErrNoItinerary is returned when a session has no plan to export.
var ErrNoItinerary = errors.New("no itinerary available")

// ErrInvalidSessionID is returned for an empty or oversized session ID.
var ErrInvalidSessionID = errors.New("invalid session id")

var (
	// ErrInputTooLarge is returned when a message exceeds the input limit.
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	// ErrInvalidUTF8 is returned for messages that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")
)
