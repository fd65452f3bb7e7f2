package store

import (
	"fmt"
	"time"
)

// ParseDate normalizes a user supplied date to YYYY-MM-DD.
// Accepts ISO dates and compact YYYYMMDD; a compact date whose month field is
// out of range is retried as YYYYDDMM.
func ParseDate(s string) (string, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.Format(dateLayout), nil
	}
	if len(s) == 8 {
		if t, err := time.Parse("20060102", s); err == nil {
			return t.Format(dateLayout), nil
		}
		if t, err := time.Parse("20060201", s); err == nil {
			return t.Format(dateLayout), nil
		}
	}
	return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD or YYYYMMDD", s)
}
