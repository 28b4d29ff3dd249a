package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateFormat is the layout for posted dates.
	DateFormat = "2006-01-02"
	// DateTimeFormat is the layout for execution timestamps (no zone).
	DateTimeFormat = "2006-01-02 15:04:05"

	// MinYear and MaxYear bound every date the codecs accept.
	MinYear = 1
	MaxYear = 9999

	// unixEpochDaysFromCE is the day number of 1970-01-01 counting
	// 0001-01-01 as day 1.
	unixEpochDaysFromCE = 719163
	secondsPerDay       = 86400
)

// ParseAmount parses a plain decimal literal such as "1000.50" or "-4".
// The scale of the literal is kept so FormatAmount reproduces it.
func ParseAmount(s string) (decimal.Decimal, error) {
	if strings.ContainsAny(s, "eE") {
		return decimal.Decimal{}, fmt.Errorf("exponent notation not allowed in %q", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return d, nil
}

// FormatAmount renders d with exactly the scale it was parsed with.
// decimal.String trims trailing zeros ("1000.50" -> "1000.5"), so a
// negative exponent is rendered through StringFixed instead.
func FormatAmount(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// ParseDate parses a YYYY-MM-DD posted date as midnight UTC. Year 0000
// is rejected; the binary format counts days from 0001-01-01.
func ParseDate(s string) (time.Time, error) {
	return parseTime(DateFormat, s)
}

// ParseDateTime parses a YYYY-MM-DD HH:MM:SS timestamp as UTC. Year 0000
// is rejected.
func ParseDateTime(s string) (time.Time, error) {
	return parseTime(DateTimeFormat, s)
}

func parseTime(layout, s string) (time.Time, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, err
	}
	if t.Year() < MinYear {
		return time.Time{}, fmt.Errorf("year %04d out of range in %q", t.Year(), s)
	}
	return t, nil
}

// FormatDate renders the calendar date of t.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// FormatDateTime renders t to the second.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeFormat)
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysFromCE returns the proleptic Gregorian day number of t, with
// 0001-01-01 as day 1.
func DaysFromCE(t time.Time) int64 {
	y, m, d := t.Date()
	unix := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
	return floorDiv(unix, secondsPerDay) + unixEpochDaysFromCE
}

// DateFromDaysCE is the inverse of DaysFromCE.
func DateFromDaysCE(days int64) time.Time {
	return time.Unix((days-unixEpochDaysFromCE)*secondsPerDay, 0).UTC()
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
