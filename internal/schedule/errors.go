package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrInvertedRange reports an event whose end time precedes its start time.
	ErrInvertedRange = errors.New("end time precedes start time")
	// ErrInvalidWorkingHours reports a working-hours window that is malformed
	// or does not satisfy start < end.
	ErrInvalidWorkingHours = errors.New("invalid working hours")
)

// TimeFormatError is returned when a wall-clock string is not a zero-padded
// 24h "HH:MM" value.
type TimeFormatError struct {
	Value string
}

func (e *TimeFormatError) Error() string {
	return fmt.Sprintf("invalid wall-clock time %q (want zero-padded HH:MM)", e.Value)
}

// EventError ties a validation failure to the event that caused it.
type EventError struct {
	EventID string
	Date    string
	Err     error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("event %q on %s: %v", e.EventID, e.Date, e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}
