package config

import (
	"fmt"
	"strings"
	"time"
)

// ParseDurationField parses an optional Go duration string. Empty means zero
// (caller applies its default); negative values are rejected.
func ParseDurationField(field, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, &ConfigError{Field: field, Err: fmt.Errorf("invalid duration %q", raw)}
	}
	if d < 0 {
		return 0, &ConfigError{Field: field, Err: fmt.Errorf("duration must be >= 0")}
	}
	return d, nil
}
