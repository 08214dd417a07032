package reports

import (
	"fmt"
	"time"
)

// Bangkok is the fixed UTC+7 zone used for day filters and exported
// timestamps. A fixed offset avoids depending on the host tz database.
var Bangkok = time.FixedZone("ICT", 7*60*60)

const dayLayout = "2006-01-02"

// DayStart returns 00:00:00.000 of the given YYYY-MM-DD in Bangkok.
func DayStart(day string) (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, day, Bangkok)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", day, err)
	}
	return t, nil
}

// DayEnd returns 23:59:59.999 of the given YYYY-MM-DD in Bangkok.
func DayEnd(day string) (time.Time, error) {
	t, err := DayStart(day)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(24*time.Hour - time.Millisecond), nil
}

// FormatThai renders t as d/m/yyyy HH:MM:SS in Bangkok with a Buddhist
// era year, matching what th-TH spreadsheets expect.
func FormatThai(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	l := t.In(Bangkok)
	return fmt.Sprintf("%d/%d/%d %02d:%02d:%02d",
		l.Day(), int(l.Month()), l.Year()+543, l.Hour(), l.Minute(), l.Second())
}
