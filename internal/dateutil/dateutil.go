package dateutil

import (
	"fmt"
	"regexp"
	"time"
)

const ISODate = "2006-01-02"

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// TodayUTC returns today's date truncated to midnight UTC
func TodayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// IsISODate reports whether s looks like YYYY-MM-DD
func IsISODate(s string) bool {
	if !isoDatePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(ISODate, s)
	return err == nil
}

// ParseISODate parses a YYYY-MM-DD string as midnight UTC
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s': %w", s, err)
	}
	return t, nil
}

// DaysFromToday returns today+offset days formatted as YYYY-MM-DD
func DaysFromToday(offset int) string {
	return TodayUTC().AddDate(0, 0, offset).Format(ISODate)
}

// AddDays returns an ISO date shifted by n days
func AddDays(isoDate string, n int) (string, error) {
	t, err := ParseISODate(isoDate)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(ISODate), nil
}

// ValidateDateRange checks that start and end are non-negative day offsets
// with start <= end
func ValidateDateRange(startDate, endDate int) error {
	if startDate < 0 {
		return fmt.Errorf("startDate must be a natural number, got %d", startDate)
	}
	if endDate < 0 {
		return fmt.Errorf("endDate must be a natural number, got %d", endDate)
	}
	if startDate > endDate {
		return fmt.Errorf("startDate (%d) cannot be after endDate (%d)", startDate, endDate)
	}
	return nil
}
