package platform

import (
	"encoding/json"
	"fmt"
	"time"
)

// layouts accepted by platforms for dates, tried in order.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime parses s with layout, or with the usual layouts if layout is empty.
// Dates without zone are UTC.
func parseTime(s, layout string) (time.Time, error) {
	if layout != "" {
		return time.Parse(layout, s)
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// lenientTime is a time.Time decoded from any of the usual layouts.
// null and "" decode to the zero time.
type lenientTime time.Time

// UnmarshalJSON implements the json.Unmarshaler interface for lenientTime.
func (t *lenientTime) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*t = lenientTime{}
		return nil
	}
	v, err := parseTime(*s, "")
	if err != nil {
		return err
	}
	*t = lenientTime(v)
	return nil
}

func (t lenientTime) Time() time.Time { return time.Time(t) }

var _ json.Unmarshaler = (*lenientTime)(nil)
