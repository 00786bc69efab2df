package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeSlot is an immutable catalog entry describing a weekly teaching window.
// Day is an upper-case weekday name; times are "HH:MM" strings.
type TimeSlot struct {
	ID        string    `db:"id" json:"id"`
	Day       string    `db:"day" json:"day"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SlotKey is the structural identity of a time slot used for conflict
// checks: two slots with the same weekday and minute range are interchangeable
// even when they are distinct catalog rows. Never compare formatted labels.
type SlotKey struct {
	Day   int
	Start int
	End   int
}

var weekdayIndex = map[string]int{
	"MONDAY":    1,
	"TUESDAY":   2,
	"WEDNESDAY": 3,
	"THURSDAY":  4,
	"FRIDAY":    5,
	"SATURDAY":  6,
	"SUNDAY":    7,
}

// WeekdayIndex maps a weekday name to its ordinal, 0 when unknown.
func WeekdayIndex(day string) int {
	return weekdayIndex[strings.ToUpper(strings.TrimSpace(day))]
}

// ParseClock converts an "HH:MM" string into minutes since midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hours*60 + minutes, nil
}

// NewSlotKey builds a SlotKey from raw day/start/end strings.
func NewSlotKey(day, start, end string) (SlotKey, error) {
	idx := WeekdayIndex(day)
	if idx == 0 {
		return SlotKey{}, fmt.Errorf("unknown weekday %q", day)
	}
	startMin, err := ParseClock(start)
	if err != nil {
		return SlotKey{}, err
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return SlotKey{}, err
	}
	if endMin <= startMin {
		return SlotKey{}, fmt.Errorf("slot end %q not after start %q", end, start)
	}
	return SlotKey{Day: idx, Start: startMin, End: endMin}, nil
}

// Key returns the slot's structural identity.
func (t TimeSlot) Key() (SlotKey, error) {
	return NewSlotKey(t.Day, t.StartTime, t.EndTime)
}

// Label renders the human-readable form stored on result rows,
// e.g. "MONDAY 09:00 - 11:00".
func (t TimeSlot) Label() string {
	return fmt.Sprintf("%s %s - %s", strings.ToUpper(strings.TrimSpace(t.Day)), t.StartTime, t.EndTime)
}
