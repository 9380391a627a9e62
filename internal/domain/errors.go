package domain

import "errors"

var (
	// ErrUnexpectedPayload marks an upstream response whose top-level shape is
	// not one the source is known to return.
	ErrUnexpectedPayload = errors.New("unexpected upstream payload")

	// ErrUpstreamError marks an error envelope embedded in a 200 response.
	ErrUpstreamError = errors.New("upstream error envelope")

	// ErrNoData marks a well-formed response with nothing to write.
	ErrNoData = errors.New("no data")

	// ErrMissingRequired marks a record that lacks a field the write cannot do without.
	ErrMissingRequired = errors.New("missing required field")

	// ErrNoSunEvent is returned when the sun does not rise or set on the requested day.
	ErrNoSunEvent = errors.New("no sunrise or sunset")
)

// ErrUnknownJob is returned when a trigger names a job that is not registered.
var ErrUnknownJob = errors.New("unknown job")

// ErrAlreadyRunning marks a trigger that arrived while the same job was mid-cycle.
var ErrAlreadyRunning = errors.New("job already running")
