package schedule

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"schedcal/internal/model"
)

const (
	// MinFreeMinutes is the shortest gap reported as a free interval.
	MinFreeMinutes = 30

	lunchWindowStart  = 12 * 60
	lunchWindowEnd    = 14 * 60
	shortBreakMinutes = 60
)

// ValidateWorkingHours checks that wh is well-formed and start < end.
func ValidateWorkingHours(wh model.WorkingHours) error {
	_, err := workingWindow(wh)
	return err
}

func workingWindow(wh model.WorkingHours) (span, error) {
	start, err := TimeToMinutes(wh.Start)
	if err != nil {
		return span{}, fmt.Errorf("%w: start: %w", ErrInvalidWorkingHours, err)
	}
	end, err := TimeToMinutes(wh.End)
	if err != nil {
		return span{}, fmt.Errorf("%w: end: %w", ErrInvalidWorkingHours, err)
	}
	if start >= end {
		return span{}, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidWorkingHours, wh.Start, wh.End)
	}
	return span{start: start, end: end}, nil
}

// CalculateFreeTimes returns the idle intervals of date within working
// hours, in chronological order.
//
// With no events the whole window is a single work interval. Otherwise the
// events are walked in start order with a cursor that only moves forward,
// and every gap of at least MinFreeMinutes becomes a free interval. Events
// are not clipped to the window, so an event outside working hours still
// advances the cursor. The gap before an event that starts after wh.End is
// still reported, so a free interval's EndTime can exceed wh.End.
func CalculateFreeTimes(events []model.Event, date time.Time, wh model.WorkingHours) ([]model.FreeInterval, error) {
	win, err := workingWindow(wh)
	if err != nil {
		return nil, err
	}
	key := DateKey(date)
	_, spans, err := selectDay(events, key)
	if err != nil {
		return nil, err
	}
	return freeTimes(key, spans, win), nil
}

func freeTimes(key string, spans []span, win span) []model.FreeInterval {
	out := make([]model.FreeInterval, 0)
	if len(spans) == 0 {
		return append(out, newFreeInterval(key, 0, win.start, win.end, model.SuggestedUseWork))
	}

	sorted := slices.Clone(spans)
	slices.SortStableFunc(sorted, func(a, b span) int {
		return cmp.Compare(a.start, b.start)
	})

	emit := func(start, end int) {
		d := end - start
		if d < MinFreeMinutes {
			return
		}
		out = append(out, newFreeInterval(key, len(out), start, end, classify(start, d)))
	}

	cursor := win.start
	for _, s := range sorted {
		if cursor < s.start {
			emit(cursor, s.start)
		}
		cursor = max(cursor, s.end)
	}
	if cursor < win.end {
		emit(cursor, win.end)
	}
	return out
}

// classify labels a gap by its start time first, then its length.
func classify(start, duration int) model.SuggestedUse {
	switch {
	case start >= lunchWindowStart && start < lunchWindowEnd:
		return model.SuggestedUseLunch
	case duration < shortBreakMinutes:
		return model.SuggestedUseBreak
	default:
		return model.SuggestedUseWork
	}
}

func newFreeInterval(key string, idx, start, end int, use model.SuggestedUse) model.FreeInterval {
	return model.FreeInterval{
		ID:              fmt.Sprintf("free-%s-%d", key, idx),
		Date:            key,
		StartTime:       MinutesToTime(start),
		EndTime:         MinutesToTime(end),
		DurationMinutes: end - start,
		SuggestedUse:    use,
	}
}
