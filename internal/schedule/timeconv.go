package schedule

import "fmt"

const minutesPerDay = 24 * 60

// TimeToMinutes parses a zero-padded 24h "HH:MM" wall-clock string and
// returns the minute of day (hour*60 + minute).
func TimeToMinutes(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, &TimeFormatError{Value: s}
	}
	h, ok1 := twoDigits(s[0], s[1])
	m, ok2 := twoDigits(s[3], s[4])
	if !ok1 || !ok2 || h > 23 || m > 59 {
		return 0, &TimeFormatError{Value: s}
	}
	return h*60 + m, nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// MinutesToTime renders a minute of day as "HH:MM". Only meaningful for
// 0 <= minutes < 1440; other values are not guarded.
func MinutesToTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TimeDifferenceInMinutes returns end - start in minutes. The result is
// negative when end precedes start.
func TimeDifferenceInMinutes(start, end string) (int, error) {
	s, err := TimeToMinutes(start)
	if err != nil {
		return 0, err
	}
	e, err := TimeToMinutes(end)
	if err != nil {
		return 0, err
	}
	return e - s, nil
}

// FormatMinutesToHourMinute renders a duration label such as "1時間30分",
// "2時間" or "45分". Zero renders as "0分".
func FormatMinutesToHourMinute(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%d分", m)
	case m == 0:
		return fmt.Sprintf("%d時間", h)
	default:
		return fmt.Sprintf("%d時間%d分", h, m)
	}
}
