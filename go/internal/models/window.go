package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the layout of the date picked by the operator
	DateLayout = "2006-01-02"
	// ClockLayout is the layout of the start/end time pickers
	ClockLayout = "15:04"
)

// TimeWindow is a validated [start, end) pair of instants. It is immutable once created.
type TimeWindow struct {
	start time.Time
	end   time.Time
}

// NewTimeWindow creates a TimeWindow, failing with ErrInvalidWindow unless end is strictly after start
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if !end.After(start) {
		return TimeWindow{}, fmt.Errorf("%w: end %s is not after start %s",
			ErrInvalidWindow, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return TimeWindow{start: start, end: end}, nil
}

// ParseWindow builds a TimeWindow from the operator's date and start/end clock inputs,
// interpreted in loc. Seconds are always zero.
func ParseWindow(date, startClock, endClock string, loc *time.Location) (TimeWindow, error) {
	date = strings.TrimSpace(date)
	startClock = strings.TrimSpace(startClock)
	endClock = strings.TrimSpace(endClock)
	if date == "" || startClock == "" || endClock == "" {
		return TimeWindow{}, ErrMissingInput
	}
	if loc == nil {
		loc = time.Local
	}

	start, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+startClock, loc)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("%w: start: %v", ErrMalformedInput, err)
	}
	end, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+endClock, loc)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("%w: end: %v", ErrMalformedInput, err)
	}

	return NewTimeWindow(start, end)
}

func (w TimeWindow) Start() time.Time { return w.start }

func (w TimeWindow) End() time.Time { return w.end }

// IsZero reports whether w was never set
func (w TimeWindow) IsZero() bool {
	return w.start.IsZero() && w.end.IsZero()
}

// DurationSeconds returns floor((end - start) / 1s)
func (w TimeWindow) DurationSeconds() int {
	return int(w.end.Sub(w.start) / time.Second)
}

// RemainingSeconds returns the whole seconds left until end as seen at the given instant.
// The result is negative once at is past end.
func (w TimeWindow) RemainingSeconds(at time.Time) int {
	d := w.end.Sub(at)
	secs := int(d / time.Second)
	if d < 0 && d%time.Second != 0 {
		secs--
	}
	return secs
}

// Equal reports whether both windows cover the same instants
func (w TimeWindow) Equal(other TimeWindow) bool {
	return w.start.Equal(other.start) && w.end.Equal(other.end)
}

func (w TimeWindow) String() string {
	return w.start.Format(time.RFC3339) + "/" + w.end.Format(time.RFC3339)
}
