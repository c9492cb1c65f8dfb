package query

import (
	"fmt"
	"time"
)

// DateConverter parses an ISO-8601 date string ("2024-01-02") into a
// time.Time at midnight UTC.
func DateConverter(v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected ISO-8601 date string, got %T", v)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid ISO-8601 date %q: %w", s, err)
	}
	return t, nil
}

// DatetimeConverter parses an ISO-8601 datetime string. When
// roundToSecond is true (the backing store is MySQL/InnoDB, which lacks
// sub-second datetime precision) the result is rounded to the nearest
// second.
func DatetimeConverter(roundToSecond bool) Converter {
	return func(v interface{}) (interface{}, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected ISO-8601 datetime string, got %T", v)
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t, err = time.Parse("2006-01-02T15:04:05", s)
			if err != nil {
				return nil, fmt.Errorf("invalid ISO-8601 datetime %q: %w", s, err)
			}
		}
		if roundToSecond {
			t = t.Round(time.Second)
		}
		return t, nil
	}
}
