// Package scheduling holds the pure scheduling core: slot generation, the
// availability index, conflict detection and resolution, the appointment
// status state machine and collection filtering. Nothing here performs I/O;
// every function works over an already-fetched snapshot of one practice day.
package scheduling

import (
	"errors"
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	minutesPerDay = 24 * 60
)

var ErrInvalidClock = errors.New("invalid clock label")

// ParseClock converts an "HH:MM" label into minutes since midnight.
func ParseClock(label string) (int, error) {
	t, err := time.Parse(ClockLayout, label)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidClock, label, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "HH:MM". Values past the end
// of the day are clamped to 23:59.
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes >= minutesPerDay {
		minutes = minutesPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func ValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

// Window is a provider's working-hours range, in minutes since midnight.
type Window struct {
	Start int
	End   int
}

func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: s, End: e}, nil
}

func (w Window) Empty() bool {
	return w.End <= w.Start
}

func (w Window) StartLabel() string {
	return FormatClock(w.Start)
}

func (w Window) EndLabel() string {
	return FormatClock(w.End)
}

// DefaultWindow is the practice-wide 09:00-17:00 day.
var DefaultWindow = Window{Start: 9 * 60, End: 17 * 60}

const DefaultIntervalMin = 30

// CanonicalClock reformats a parseable label as zero-padded "HH:MM".
func CanonicalClock(label string) (string, error) {
	m, err := ParseClock(label)
	if err != nil {
		return "", err
	}
	return FormatClock(m), nil
}
