package iqamah

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	// accepts H:MM, HH:MM and HH:MM:SS
	looseTimePattern = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)(?::[0-5]\d)?$`)
	// strict 24h HH:MM, the only form sent to the backend
	strictTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// NormalizeDate truncates an ISO date or timestamp to YYYY-MM-DD.
// Shorter values are returned trimmed but otherwise untouched.
func NormalizeDate(v string) string {
	s := strings.TrimSpace(v)
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

// NormalizeTime rewrites H:MM and HH:MM:SS to HH:MM. Anything it does not
// recognise comes back trimmed so the UI can still show it.
func NormalizeTime(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	m := looseTimePattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	hh := m[1]
	if len(hh) == 1 {
		hh = "0" + hh
	}
	return hh + ":" + m[2]
}

// IsPlaceholder reports whether v means "no time recorded for this day".
// "00:00" is treated as a placeholder, never as midnight.
func IsPlaceholder(v string) bool {
	s := strings.TrimSpace(v)
	return s == "" || s == "--:--" || s == "00:00"
}

// ValidTime reports whether t is a 24h HH:MM value.
func ValidTime(t string) bool {
	return strictTimePattern.MatchString(t)
}

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// looseDate splits Y-M-D into integers and lets time.Date roll over
// out-of-range days, so "2024-02-30" still yields a calendar day.
func looseDate(s string) (time.Time, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n == 0 {
			return time.Time{}, false
		}
		nums[i] = n
	}
	return time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.UTC), true
}

// nextDay returns the calendar day after date, or "" if date is unparseable.
func nextDay(date string) string {
	t, ok := looseDate(date)
	if !ok {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(dateLayout)
}

// Bounds describes one calendar month.
type Bounds struct {
	Start string
	End   string
	Days  int
	Label string
}

// MonthBounds returns the first and last date of month (1-12) in year.
func MonthBounds(year, month int) (Bounds, error) {
	if month < 1 || month > 12 {
		return Bounds{}, fmt.Errorf("month %d out of range", month)
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return Bounds{
		Start: first.Format(dateLayout),
		End:   last.Format(dateLayout),
		Days:  last.Day(),
		Label: fmt.Sprintf("%s %d", first.Month(), year),
	}, nil
}
