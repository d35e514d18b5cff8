package model

import (
	"fmt"
	"time"
)

// LocalDateTimeLayout is the zone-less form the browser forms send.
const LocalDateTimeLayout = "2006-01-02T15:04:05"

// ParseDateTime accepts RFC 3339 timestamps and the zone-less
// LocalDateTimeLayout, which is read as UTC.
func ParseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{LocalDateTimeLayout, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q: want RFC 3339 or %s", s, LocalDateTimeLayout)
}
