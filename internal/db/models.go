// Package db provides SQLite persistence for alarms and application settings.
package db

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTime is wrapped by every time-of-day parse or range failure.
var ErrInvalidTime = errors.New("invalid time of day")

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time with minute resolution and no date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// NewTimeOfDay returns the time of day hour:minute, or an error if either
// field is out of range.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: hour %d out of range 0-23", ErrInvalidTime, hour)
	}
	if minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: minute %d out of range 0-59", ErrInvalidTime, minute)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// ParseTimeOfDay parses a 24-hour "HH:MM" string. Single-digit fields are
// accepted; signs, spaces inside the value and seconds are not.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidTime, s)
	}
	hour, ok := parseField(hs)
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: bad hour in %q", ErrInvalidTime, s)
	}
	minute, ok := parseField(ms)
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: bad minute in %q", ErrInvalidTime, s)
	}
	return NewTimeOfDay(hour, minute)
}

func parseField(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// String formats the time as zero-padded "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Add returns t shifted by d, wrapping around midnight. Sub-minute parts of
// d are dropped.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	mins := (t.Hour*60 + t.Minute + int(d/time.Minute)) % minutesPerDay
	if mins < 0 {
		mins += minutesPerDay
	}
	return TimeOfDay{Hour: mins / 60, Minute: mins % 60}
}

// Matches reports whether now falls inside the minute t names.
func (t TimeOfDay) Matches(now time.Time) bool {
	return now.Hour() == t.Hour && now.Minute() == t.Minute
}

// Value stores the time as TEXT "HH:MM".
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan reads a TEXT "HH:MM" column.
func (t *TimeOfDay) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("scan time of day: unsupported type %T", src)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Alarm is a persisted alarm record.
type Alarm struct {
	ID          int64
	Time        TimeOfDay
	SoundPath   string
	Note        string
	Active      bool
	SnoozeCount int
}

// Label is the list rendering of an alarm: the time, then the note if any.
func (a Alarm) Label() string {
	if a.Note == "" {
		return a.Time.String()
	}
	return a.Time.String() + " - " + a.Note
}
