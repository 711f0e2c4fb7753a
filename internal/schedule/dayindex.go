// Package schedule computes free time and busyness statistics from a flat
// list of calendar events. Every function is a pure transformation of its
// arguments: inputs are never mutated and results are freshly allocated.
package schedule

import (
	"time"

	"schedcal/internal/model"
)

// DateLayout is the calendar date format used by model.Event.Date.
const DateLayout = "2006-01-02"

// span is a validated [start, end) range in minutes of day.
type span struct {
	start int
	end   int
}

// DateKey formats the civil date of t (in t's own location) as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into midnight of that date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// EventsForDate returns the events scheduled on date, in input order.
//
// Every selected event is validated: a malformed time yields a
// *TimeFormatError and an inverted range yields ErrInvertedRange, both
// wrapped in an *EventError. Zero-length events are accepted.
func EventsForDate(events []model.Event, date time.Time) ([]model.Event, error) {
	day, _, err := selectDay(events, DateKey(date))
	if err != nil {
		return nil, err
	}
	return day, nil
}

func selectDay(events []model.Event, key string) ([]model.Event, []span, error) {
	day := make([]model.Event, 0)
	spans := make([]span, 0)
	for _, ev := range events {
		if ev.Date != key {
			continue
		}
		s, err := eventSpan(ev)
		if err != nil {
			return nil, nil, err
		}
		day = append(day, ev)
		spans = append(spans, s)
	}
	return day, spans, nil
}

func eventSpan(ev model.Event) (span, error) {
	start, err := TimeToMinutes(ev.StartTime)
	if err != nil {
		return span{}, &EventError{EventID: ev.ID, Date: ev.Date, Err: err}
	}
	end, err := TimeToMinutes(ev.EndTime)
	if err != nil {
		return span{}, &EventError{EventID: ev.ID, Date: ev.Date, Err: err}
	}
	if end < start {
		return span{}, &EventError{EventID: ev.ID, Date: ev.Date, Err: ErrInvertedRange}
	}
	return span{start: start, end: end}, nil
}

// ValidateEvent checks the wall-clock fields of a single event.
func ValidateEvent(ev model.Event) error {
	_, err := eventSpan(ev)
	return err
}
