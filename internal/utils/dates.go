package utils

import "time"

// ParseTimestamp accepts either a bare date (2006-01-02), taken as
// midnight UTC, or a full RFC 3339 timestamp. Loan windows are expressed
// with it, so a handoff can be scheduled for later the same day.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
