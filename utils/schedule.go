package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock parses an HH:MM shift boundary into hour and minute.
func ParseClock(clock string) (int, int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock %q, expected HH:MM", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in clock %q", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in clock %q", clock)
	}
	return hour, minute, nil
}

// ClockOnDate places an HH:MM clock on the given date in the date's location.
func ClockOnDate(date time.Time, clock string) (time.Time, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

// LateMinutes returns how many minutes past shift start (plus tolerance) the
// check-in happened. Zero when on time.
func LateMinutes(checkIn time.Time, shiftStart string, toleranceMinutes int) (int, error) {
	start, err := ClockOnDate(checkIn, shiftStart)
	if err != nil {
		return 0, err
	}
	deadline := start.Add(time.Duration(toleranceMinutes) * time.Minute)
	if !checkIn.After(deadline) {
		return 0, nil
	}
	return int(checkIn.Sub(start).Minutes()), nil
}

// CountDaysInclusive counts calendar days between two YYYY-MM-DD dates,
// both ends included. Returns an error when the range is reversed.
func CountDaysInclusive(startDate, endDate string) (int, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return 0, fmt.Errorf("invalid start_date %q", startDate)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return 0, fmt.Errorf("invalid end_date %q", endDate)
	}
	if end.Before(start) {
		return 0, fmt.Errorf("end_date %q is before start_date %q", endDate, startDate)
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

// IsValidDate reports whether s is a YYYY-MM-DD date.
func IsValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
