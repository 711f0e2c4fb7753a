package schedule

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedcal/internal/model"
)

var officeHours = model.WorkingHours{Start: "09:00", End: "18:00"}

type wantFree struct {
	start, end string
	minutes    int
	use        model.SuggestedUse
}

func assertFree(t *testing.T, got []model.FreeInterval, want []wantFree) {
	t.Helper()
	require.Len(t, got, len(want), "free intervals: %+v", got)
	for i, w := range want {
		assert.Equal(t, w.start, got[i].StartTime, "interval %d start", i)
		assert.Equal(t, w.end, got[i].EndTime, "interval %d end", i)
		assert.Equal(t, w.minutes, got[i].DurationMinutes, "interval %d duration", i)
		assert.Equal(t, w.use, got[i].SuggestedUse, "interval %d use", i)
	}
}

func TestCalculateFreeTimesNoEvents(t *testing.T) {
	windows := []model.WorkingHours{
		officeHours,
		{Start: "12:30", End: "13:00"},
		{Start: "07:15", End: "22:45"},
	}
	for _, wh := range windows {
		t.Run(wh.Start+"-"+wh.End, func(t *testing.T) {
			got, err := CalculateFreeTimes(nil, monday, wh)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, wh.Start, got[0].StartTime)
			assert.Equal(t, wh.End, got[0].EndTime)
			assert.Equal(t, model.SuggestedUseWork, got[0].SuggestedUse)
			assert.Equal(t, "2025-01-13", got[0].Date)
		})
	}
}

func TestCalculateFreeTimesEndToEnd(t *testing.T) {
	events := []model.Event{
		ev("1", "2025-01-13", "10:00", "11:00"),
		ev("2", "2025-01-13", "13:00", "13:30"),
		ev("3", "2025-01-13", "15:00", "17:00"),
	}

	got, err := CalculateFreeTimes(events, monday, officeHours)
	require.NoError(t, err)
	assertFree(t, got, []wantFree{
		{"09:00", "10:00", 60, model.SuggestedUseWork},
		// Starts before noon: classification looks at the start time only.
		{"11:00", "13:00", 120, model.SuggestedUseWork},
		// Starts at 13:30, inside the [12:00, 14:00) lunch window.
		{"13:30", "15:00", 90, model.SuggestedUseLunch},
		{"17:00", "18:00", 60, model.SuggestedUseWork},
	})

	for i, f := range got {
		assert.Equal(t, fmt.Sprintf("free-2025-01-13-%d", i), f.ID)
	}
}

func TestCalculateFreeTimesClassification(t *testing.T) {
	t.Run("lunch", func(t *testing.T) {
		events := []model.Event{
			ev("a", "2025-01-13", "09:00", "12:30"),
			ev("b", "2025-01-13", "14:00", "18:00"),
		}
		got, err := CalculateFreeTimes(events, monday, officeHours)
		require.NoError(t, err)
		assertFree(t, got, []wantFree{{"12:30", "14:00", 90, model.SuggestedUseLunch}})
	})

	t.Run("short break", func(t *testing.T) {
		events := []model.Event{ev("a", "2025-01-13", "09:45", "18:00")}
		got, err := CalculateFreeTimes(events, monday, officeHours)
		require.NoError(t, err)
		assertFree(t, got, []wantFree{{"09:00", "09:45", 45, model.SuggestedUseBreak}})
	})

	t.Run("lunch window end is exclusive", func(t *testing.T) {
		events := []model.Event{ev("a", "2025-01-13", "09:00", "14:00")}
		got, err := CalculateFreeTimes(events, monday, officeHours)
		require.NoError(t, err)
		assertFree(t, got, []wantFree{{"14:00", "18:00", 240, model.SuggestedUseWork}})
	})

	t.Run("transit is never produced", func(t *testing.T) {
		events := []model.Event{
			ev("a", "2025-01-13", "09:30", "10:00"),
			ev("b", "2025-01-13", "12:00", "12:10"),
			ev("c", "2025-01-13", "16:00", "16:40"),
		}
		got, err := CalculateFreeTimes(events, monday, officeHours)
		require.NoError(t, err)
		for _, f := range got {
			assert.NotEqual(t, model.SuggestedUseTransit, f.SuggestedUse)
		}
	})
}

func TestCalculateFreeTimesMinimumGap(t *testing.T) {
	events := []model.Event{
		ev("a", "2025-01-13", "09:20", "10:00"), // 20m gap before: dropped
		ev("b", "2025-01-13", "10:29", "11:00"), // 29m gap: dropped
		ev("c", "2025-01-13", "11:30", "17:45"), // 30m gap: kept
	}
	got, err := CalculateFreeTimes(events, monday, officeHours)
	require.NoError(t, err)
	assertFree(t, got, []wantFree{{"11:00", "11:30", 30, model.SuggestedUseBreak}})
	for _, f := range got {
		assert.GreaterOrEqual(t, f.DurationMinutes, MinFreeMinutes)
	}
}

func TestCalculateFreeTimesOverlapAndOrder(t *testing.T) {
	events := []model.Event{
		ev("late", "2025-01-13", "15:00", "16:00"),
		ev("long", "2025-01-13", "10:00", "12:00"),
		ev("inner", "2025-01-13", "10:30", "11:00"),
		ev("tail", "2025-01-13", "11:30", "12:15"),
	}
	input := append([]model.Event(nil), events...)

	got, err := CalculateFreeTimes(events, monday, officeHours)
	require.NoError(t, err)
	assertFree(t, got, []wantFree{
		{"09:00", "10:00", 60, model.SuggestedUseWork},
		{"12:15", "15:00", 165, model.SuggestedUseLunch},
		{"16:00", "18:00", 120, model.SuggestedUseWork},
	})
	assert.Equal(t, input, events, "input must not be reordered")
}

func TestCalculateFreeTimesEventsOutsideWindow(t *testing.T) {
	t.Run("before start advances cursor", func(t *testing.T) {
		events := []model.Event{ev("a", "2025-01-13", "07:00", "09:45")}
		got, err := CalculateFreeTimes(events, monday, officeHours)
		require.NoError(t, err)
		assertFree(t, got, []wantFree{{"09:45", "18:00", 495, model.SuggestedUseWork}})
	})

	t.Run("after end is not clipped", func(t *testing.T) {
		// The gap runs up to the event start, past working hours, and the
		// cursor then sits beyond the window end so no trailing gap follows.
		events := []model.Event{ev("a", "2025-01-13", "19:00", "20:00")}
		got, err := CalculateFreeTimes(events, monday, officeHours)
		require.NoError(t, err)
		assertFree(t, got, []wantFree{{"09:00", "19:00", 600, model.SuggestedUseWork}})
	})

	t.Run("entirely before window", func(t *testing.T) {
		events := []model.Event{ev("a", "2025-01-13", "06:00", "07:00")}
		got, err := CalculateFreeTimes(events, monday, officeHours)
		require.NoError(t, err)
		assertFree(t, got, []wantFree{{"09:00", "18:00", 540, model.SuggestedUseWork}})
	})
}

func TestCalculateFreeTimesZeroLengthEvent(t *testing.T) {
	events := []model.Event{ev("z", "2025-01-13", "12:00", "12:00")}
	got, err := CalculateFreeTimes(events, monday, officeHours)
	require.NoError(t, err)
	assertFree(t, got, []wantFree{
		{"09:00", "12:00", 180, model.SuggestedUseWork},
		{"12:00", "18:00", 360, model.SuggestedUseLunch},
	})
}

func TestCalculateFreeTimesInvalidInput(t *testing.T) {
	_, err := CalculateFreeTimes(nil, monday, model.WorkingHours{Start: "18:00", End: "09:00"})
	assert.True(t, errors.Is(err, ErrInvalidWorkingHours))

	_, err = CalculateFreeTimes(nil, monday, model.WorkingHours{Start: "9", End: "18:00"})
	assert.True(t, errors.Is(err, ErrInvalidWorkingHours))
	var tfe *TimeFormatError
	assert.True(t, errors.As(err, &tfe))

	_, err = CalculateFreeTimes([]model.Event{ev("x", "2025-01-13", "11:00", "10:00")}, monday, officeHours)
	assert.True(t, errors.Is(err, ErrInvertedRange))
}

// TestCalculateFreeTimesCoverage checks, minute by minute, that free
// intervals never overlap events or each other and that every uncovered
// run inside the window is shorter than MinFreeMinutes.
func TestCalculateFreeTimesCoverage(t *testing.T) {
	days := map[string][]model.Event{
		"sparse": {
			ev("a", "2025-01-13", "10:10", "10:50"),
		},
		"dense": {
			ev("a", "2025-01-13", "09:00", "09:40"),
			ev("b", "2025-01-13", "09:55", "11:00"),
			ev("c", "2025-01-13", "11:20", "12:05"),
			ev("d", "2025-01-13", "12:20", "13:00"),
			ev("e", "2025-01-13", "14:30", "17:35"),
		},
		"overlapping": {
			ev("a", "2025-01-13", "08:00", "10:00"),
			ev("b", "2025-01-13", "09:30", "11:15"),
			ev("c", "2025-01-13", "11:00", "11:20"),
			ev("d", "2025-01-13", "16:00", "16:20"),
			ev("e", "2025-01-13", "16:10", "18:30"),
		},
	}

	win, err := workingWindow(officeHours)
	require.NoError(t, err)

	for name, events := range days {
		t.Run(name, func(t *testing.T) {
			got, err := CalculateFreeTimes(events, monday, officeHours)
			require.NoError(t, err)

			busy := make([]bool, minutesPerDay)
			for _, e := range events {
				s, err := eventSpan(e)
				require.NoError(t, err)
				for m := s.start; m < s.end; m++ {
					busy[m] = true
				}
			}

			free := make([]bool, minutesPerDay)
			for _, f := range got {
				s, _ := TimeToMinutes(f.StartTime)
				e, _ := TimeToMinutes(f.EndTime)
				assert.Equal(t, e-s, f.DurationMinutes)
				assert.GreaterOrEqual(t, f.DurationMinutes, MinFreeMinutes)
				for m := s; m < e; m++ {
					require.False(t, busy[m], "free interval %s overlaps an event at %s", f.ID, MinutesToTime(m))
					require.False(t, free[m], "free intervals overlap at %s", MinutesToTime(m))
					free[m] = true
				}
			}

			run := 0
			for m := win.start; m < win.end; m++ {
				if busy[m] || free[m] {
					run = 0
					continue
				}
				run++
				require.Less(t, run, MinFreeMinutes, "unlabelled gap ending at %s", MinutesToTime(m+1))
			}
		})
	}
}
