package schedule

import (
	"time"

	"schedcal/internal/model"
)

// GenerateDayScheduleSummary builds the day view aggregate for date.
//
// TotalBusyMinutes is the plain sum of event durations. Overlapping events
// each count in full, so busy + free may exceed the working-hours span.
func GenerateDayScheduleSummary(events []model.Event, date time.Time, wh model.WorkingHours) (model.DayScheduleSummary, error) {
	win, err := workingWindow(wh)
	if err != nil {
		return model.DayScheduleSummary{}, err
	}
	key := DateKey(date)
	day, spans, err := selectDay(events, key)
	if err != nil {
		return model.DayScheduleSummary{}, err
	}

	free := freeTimes(key, spans, win)

	busy := 0
	for _, s := range spans {
		busy += s.end - s.start
	}
	freeTotal := 0
	for _, f := range free {
		freeTotal += f.DurationMinutes
	}

	return model.DayScheduleSummary{
		Date:             key,
		EventCount:       len(day),
		TotalBusyMinutes: busy,
		TotalFreeMinutes: freeTotal,
		Events:           day,
		FreeTimes:        free,
	}, nil
}
