package models

import "errors"

var (
	// ErrInvalidWindow is returned when a window's end is not strictly after its start
	ErrInvalidWindow = errors.New("end time must be after start time")
	// ErrMissingInput is returned when the date or one of the clock inputs is empty
	ErrMissingInput = errors.New("date, start time and end time are all required")
	// ErrMalformedInput is returned when a date or clock input cannot be parsed
	ErrMalformedInput = errors.New("malformed date or time")
)
