package schedule

import (
	"time"

	"schedcal/internal/model"
)

const daysPerWeek = 7

// WeekStart returns midnight of the Monday on or before ref, in ref's
// location. Sunday belongs to the week that started six days earlier.
func WeekStart(ref time.Time) time.Time {
	d := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	offset := (int(d.Weekday()) + 6) % daysPerWeek
	return d.AddDate(0, 0, -offset)
}

// WeekDates returns the seven dates of ref's week, Monday first.
func WeekDates(ref time.Time) []time.Time {
	start := WeekStart(ref)
	dates := make([]time.Time, daysPerWeek)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

// CalculateWeeklyActivity reports occupied hours and event counts for each
// day of ref's week. Hours are unrounded and not overlap-corrected.
func CalculateWeeklyActivity(events []model.Event, ref time.Time) ([]model.DailyActivity, error) {
	days := make([]model.DailyActivity, 0, daysPerWeek)
	for _, d := range WeekDates(ref) {
		key := DateKey(d)
		_, spans, err := selectDay(events, key)
		if err != nil {
			return nil, err
		}
		minutes := 0
		for _, s := range spans {
			minutes += s.end - s.start
		}
		days = append(days, model.DailyActivity{
			Date:       key,
			Hours:      float64(minutes) / 60,
			EventCount: len(spans),
		})
	}
	return days, nil
}

// LeastBusyDay returns the day with the fewest hours. Ties go to the
// earliest day in the slice. The bool is false for an empty slice.
func LeastBusyDay(days []model.DailyActivity) (model.DailyActivity, bool) {
	if len(days) == 0 {
		return model.DailyActivity{}, false
	}
	best := days[0]
	for _, d := range days[1:] {
		if d.Hours < best.Hours {
			best = d
		}
	}
	return best, true
}

// HasEventInSlot reports whether any event on date covers hour, where an
// event covers the hours in [startHour, endHour) using whole-hour parts of
// its times. A 10:00-10:30 event therefore covers no hour mark.
func HasEventInSlot(events []model.Event, date time.Time, hour int) (bool, error) {
	_, spans, err := selectDay(events, DateKey(date))
	if err != nil {
		return false, err
	}
	return slotBusy(spans, hour), nil
}

func slotBusy(spans []span, hour int) bool {
	for _, s := range spans {
		if hour >= s.start/60 && hour < s.end/60 {
			return true
		}
	}
	return false
}

// WeeklyHeatmap evaluates slot occupancy for every day of ref's week at
// each of the given hour marks.
func WeeklyHeatmap(events []model.Event, ref time.Time, hours []int) ([]model.HeatmapRow, error) {
	rows := make([]model.HeatmapRow, 0, daysPerWeek)
	for _, d := range WeekDates(ref) {
		key := DateKey(d)
		_, spans, err := selectDay(events, key)
		if err != nil {
			return nil, err
		}
		row := model.HeatmapRow{
			Date:  key,
			Hours: append([]int(nil), hours...),
			Busy:  make([]bool, len(hours)),
		}
		for i, h := range hours {
			row.Busy[i] = slotBusy(spans, h)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
