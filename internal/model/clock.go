package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidClock = errors.New("model: invalid clock time")

// Clock is a time of day in minutes since midnight. Values of 24:00 and
// later are allowed so that a day plan can run past midnight.
type Clock int

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock reads "HH:MM" (or "H:MM").
func ParseClock(raw string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q, expected HH:MM", ErrInvalidClock, raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 {
		return 0, fmt.Errorf("%w: bad hour in %q", ErrInvalidClock, raw)
	}
	if len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: bad minute in %q", ErrInvalidClock, raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: bad minute in %q", ErrInvalidClock, raw)
	}
	return NewClock(hour, minute), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}
