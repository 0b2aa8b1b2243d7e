package dates

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// Parse parses an ISO calendar date (YYYY-MM-DD).
func Parse(value string) (time.Time, error) {
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return parsed, nil
}

// ValidateRange checks both bounds and that start <= end, returning
// normalized YYYY-MM-DD strings suitable for API requests and the
// warehouse's lexicographic range comparisons.
func ValidateRange(start, end string) (string, string, error) {
	startDate, err := Parse(start)
	if err != nil {
		return "", "", err
	}
	endDate, err := Parse(end)
	if err != nil {
		return "", "", err
	}
	if startDate.After(endDate) {
		return "", "", fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return startDate.Format(layout), endDate.Format(layout), nil
}
