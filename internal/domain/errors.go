package domain

import "errors"

var (
	// ErrInsufficientData is returned when an analysis is attempted over an
	// empty dataset. The reporting cycle treats it as "skip this tick".
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// ErrMalformedEvent marks a single stream event that failed validation.
	// The event is dropped; the rest of the batch continues.
	ErrMalformedEvent = errors.New("malformed trade event")

	// ErrStreamDisconnect indicates the live subscription was lost and the
	// session must be rebuilt.
	ErrStreamDisconnect = errors.New("stream disconnected")

	// ErrUnknownSource is returned by the source registry for an exchange
	// identifier that has no registered implementation.
	ErrUnknownSource = errors.New("unknown stream source")
)
