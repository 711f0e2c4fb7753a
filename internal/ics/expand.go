package ics

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "schedcal/internal/log"
	"schedcal/internal/model"
	"schedcal/internal/schedule"
)

const (
	defaultMaxOccurrencesPerEvent = 5000

	// endOfDay is used for occurrences that run past midnight.
	endOfDay = "23:59"
)

var errOccurrenceCap = errors.New("max occurrences per event reached")

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation decides which calendar date and wall-clock time an
	// occurrence lands on. If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps a single RRULE expansion. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult holds the timed events produced by ExpandEvents.
type ExpandResult struct {
	Events []model.Event
	// TruncatedEvents records UIDs that hit MaxOccurrencesPerEvent.
	TruncatedEvents []string
	// SkippedAllDay counts all-day events, which carry no wall-clock span.
	SkippedAllDay int
}

// ExpandEvents expands parsed VEVENTs into concrete single-day events
// within the configured range. It handles single events, RRULE recurrence,
// EXDATE removal and RECURRENCE-ID overrides. The result is sorted by date,
// start time and ID.
func ExpandEvents(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	masters := make(map[string][]ParsedEvent)
	overridesOf := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.AllDay {
			result.SkippedAllDay++
			continue
		}
		if ev.IsOverride && ev.Recurrence != nil {
			overridesOf[ev.UID] = append(overridesOf[ev.UID], ev)
		} else {
			masters[ev.UID] = append(masters[ev.UID], ev)
		}
	}

	out := make([]model.Event, 0)
	for uid, series := range masters {
		ov := overridesOf[uid]
		truncated := false
		for _, ev := range series {
			occ, hitCap := expandEvent(ev, ov, cfg)
			if hitCap {
				truncated = true
			}
			out = append(out, occ...)
		}
		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Error("ics: occurrence cap reached",
				errOccurrenceCap,
				"uid", uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	slices.SortFunc(out, func(a, b model.Event) int {
		return cmp.Or(
			cmp.Compare(a.Date, b.Date),
			cmp.Compare(a.StartTime, b.StartTime),
			cmp.Compare(a.ID, b.ID),
		)
	})
	slices.Sort(result.TruncatedEvents)

	result.Events = out
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Event, bool) {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, cfg), false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Event {
	if !timeRangesOverlap(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}

	start, end := ev.Start, ev.End
	if o, ok := findOverrideForStart(overrides, start); ok {
		start, end, ev = o.Start, o.End, o
	}
	return []model.Event{makeEvent(ev, start, end, cfg.DisplayLocation)}
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Event, bool) {
	out := make([]model.Event, 0)

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("ics: invalid RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	rangeStart := cfg.RangeStart.In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())
	occTimes := set.Between(rangeStart, rangeEnd, true)

	hitCap := false
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	dur := ev.End.Sub(ev.Start)
	for _, occStart := range occTimes {
		start, end, base := occStart, occStart.Add(dur), ev
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			start, end, base = o.Start, o.End, o
		}
		out = append(out, makeEvent(base, start, end, cfg.DisplayLocation))
	}
	return out, hitCap
}

// findOverrideForStart finds an override whose RECURRENCE-ID equals start.
func findOverrideForStart(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// makeEvent places one occurrence on its calendar date in loc. An
// occurrence that ends on a later date is cut at 23:59 of its start date.
func makeEvent(ev ParsedEvent, start, end time.Time, loc *time.Location) model.Event {
	startLocal := start.In(loc)
	endLocal := end.In(loc)

	date := schedule.DateKey(startLocal)
	endTime := endLocal.Format("15:04")
	if schedule.DateKey(endLocal) != date {
		endTime = endOfDay
	}

	return model.Event{
		ID:        ev.UID + "@" + startLocal.Format(time.RFC3339),
		Title:     ev.Summary,
		Date:      date,
		StartTime: startLocal.Format("15:04"),
		EndTime:   endTime,
		Type:      eventType(ev.Categories),
		SourceID:  ev.Source.ID,
	}
}

// eventType picks the first category naming a known event type.
func eventType(categories []string) model.EventType {
	for _, c := range categories {
		if t, ok := model.ParseEventType(strings.ToLower(c)); ok {
			return t
		}
	}
	return model.EventTypeOther
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
