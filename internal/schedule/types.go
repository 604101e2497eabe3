package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TimeOfDay is a validated wall-clock minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	if t.Hour != o.Hour {
		return t.Hour < o.Hour
	}
	return t.Minute < o.Minute
}

// Entry is one reminder: a time of day and the message to send.
type Entry struct {
	At      TimeOfDay
	Message string
}

// Slot is the entry's stable key, its "HH:MM" string.
func (e Entry) Slot() string { return e.At.String() }

// Schedule is an ordered-by-time set of entries with unique times.
type Schedule struct {
	entries []Entry
}

// NewSchedule validates and orders entries: messages must be non-empty and
// times unique.
func NewSchedule(entries []Entry) (*Schedule, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no reminder entries")
	}
	seen := make(map[TimeOfDay]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Message) == "" {
			return nil, fmt.Errorf("entry %s: message is empty", e.At)
		}
		if seen[e.At] {
			return nil, fmt.Errorf("duplicate reminder time %s", e.At)
		}
		seen[e.At] = true
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return &Schedule{entries: out}, nil
}

// Entries returns the ordered entries (shared slice; callers must not mutate).
func (s *Schedule) Entries() []Entry { return s.entries }

func (s *Schedule) Len() int { return len(s.entries) }
