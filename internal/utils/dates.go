package utils

import (
	"fmt"
	"time"
)

// DateToUnix converts a YYYY-MM-DD date string to a Unix timestamp at
// midnight UTC. Dates are stored as Unix timestamps in the database.
func DateToUnix(date string) (int64, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t.Unix(), nil
}

// UnixToDate converts a Unix timestamp to a YYYY-MM-DD string in UTC
func UnixToDate(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

// MonthKey returns the (year, month) bucket a time falls into, in UTC.
// Reconciliations group transactions by this key.
func MonthKey(t time.Time) (year int, month int) {
	u := t.UTC()
	return u.Year(), int(u.Month())
}

// MonthsBetween returns the number of whole calendar months from `from`
// to `to`. Returns 0 when `from` is after `to`.
func MonthsBetween(from, to time.Time) int {
	if from.After(to) {
		return 0
	}
	f := from.UTC()
	u := to.UTC()
	months := (u.Year()-f.Year())*12 + int(u.Month()) - int(f.Month())
	if u.Day() < f.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
