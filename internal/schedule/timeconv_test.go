package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeToMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"00:00", 0, true},
		{"09:05", 545, true},
		{"12:00", 720, true},
		{"23:59", 1439, true},
		{"9:05", 0, false},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"12-00", 0, false},
		{"ab:cd", 0, false},
		{"", 0, false},
		{"12:000", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := TimeToMinutes(tc.in)
			if !tc.ok {
				var tfe *TimeFormatError
				require.Error(t, err)
				assert.True(t, errors.As(err, &tfe))
				assert.Equal(t, tc.in, tfe.Value)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMinutesToTime(t *testing.T) {
	assert.Equal(t, "00:00", MinutesToTime(0))
	assert.Equal(t, "09:05", MinutesToTime(545))
	assert.Equal(t, "23:59", MinutesToTime(1439))

	for m := 0; m < minutesPerDay; m += 7 {
		got, err := TimeToMinutes(MinutesToTime(m))
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
}

func TestTimeDifferenceInMinutes(t *testing.T) {
	d, err := TimeDifferenceInMinutes("09:30", "11:00")
	require.NoError(t, err)
	assert.Equal(t, 90, d)

	d, err = TimeDifferenceInMinutes("11:00", "09:30")
	require.NoError(t, err)
	assert.Equal(t, -90, d, "inverted ranges are reported, not corrected")

	_, err = TimeDifferenceInMinutes("9:30", "11:00")
	assert.Error(t, err)
	_, err = TimeDifferenceInMinutes("09:30", "xx")
	assert.Error(t, err)
}

func TestFormatMinutesToHourMinute(t *testing.T) {
	cases := map[int]string{
		0:   "0分",
		45:  "45分",
		60:  "1時間",
		90:  "1時間30分",
		540: "9時間",
		61:  "1時間1分",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMinutesToHourMinute(in), "minutes=%d", in)
	}
}
