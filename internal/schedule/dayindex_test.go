package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedcal/internal/model"
)

// monday is 2025-01-13.
var monday = time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)

func ev(id, date, start, end string) model.Event {
	return model.Event{ID: id, Date: date, StartTime: start, EndTime: end, Type: model.EventTypeMeeting}
}

func TestEventsForDatePreservesOrder(t *testing.T) {
	events := []model.Event{
		ev("c", "2025-01-13", "15:00", "16:00"),
		ev("x", "2025-01-14", "09:00", "10:00"),
		ev("a", "2025-01-13", "09:00", "10:00"),
		ev("b", "2025-01-13", "11:00", "12:00"),
	}

	got, err := EventsForDate(events, monday)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].ID, got[1].ID, got[2].ID})

	none, err := EventsForDate(events, monday.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestEventsForDateUsesDateInOwnLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2025-01-13 20:00 UTC is already 2025-01-14 in Tokyo.
	date := time.Date(2025, 1, 13, 20, 0, 0, 0, time.UTC).In(tokyo)

	got, err := EventsForDate([]model.Event{ev("a", "2025-01-14", "09:00", "10:00")}, date)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEventsForDateValidation(t *testing.T) {
	t.Run("malformed time", func(t *testing.T) {
		_, err := EventsForDate([]model.Event{ev("bad", "2025-01-13", "9:00", "10:00")}, monday)
		require.Error(t, err)

		var ee *EventError
		require.True(t, errors.As(err, &ee))
		assert.Equal(t, "bad", ee.EventID)
		assert.Equal(t, "2025-01-13", ee.Date)

		var tfe *TimeFormatError
		require.True(t, errors.As(err, &tfe))
		assert.Equal(t, "9:00", tfe.Value)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := EventsForDate([]model.Event{ev("inv", "2025-01-13", "11:00", "10:00")}, monday)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvertedRange))
	})

	t.Run("zero length accepted", func(t *testing.T) {
		got, err := EventsForDate([]model.Event{ev("z", "2025-01-13", "10:00", "10:00")}, monday)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("other dates are not validated", func(t *testing.T) {
		got, err := EventsForDate([]model.Event{ev("bad", "2025-01-20", "nope", "10:00")}, monday)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-13", time.UTC)
	require.NoError(t, err)
	assert.True(t, d.Equal(monday))
	assert.Equal(t, "2025-01-13", DateKey(d))

	_, err = ParseDate("2025-13-01", time.UTC)
	assert.Error(t, err)
}
