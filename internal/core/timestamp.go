package core

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Naive ISO layouts, as produced by Python's isoformat on datetimes
// without a zone. They are read in time.Local.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Timestamp is a backend time that accepts RFC 3339 as well as naive ISO
// values without a zone offset.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s as RFC 3339, falling back to the naive layouts in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null leaves the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp must be a string: %s", data)
	}
	parsed, err := ParseTimestamp(s, time.Local)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
