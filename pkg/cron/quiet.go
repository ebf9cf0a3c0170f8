package cron

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidQuiet wraps every ParseQuietHours failure.
var ErrInvalidQuiet = errors.New("cron: invalid quiet hours format")

// QuietHours is a daily window, in wall-clock time, during which a job is
// skipped. End may be earlier than Start, in which case the window spans
// midnight.
type QuietHours struct {
	Start time.Duration // since midnight
	End   time.Duration
}

// ParseQuietHours reads a window written as "22:00-06:30".
func ParseQuietHours(s string) (QuietHours, error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return QuietHours{}, fmt.Errorf("%w: %q has no '-'", ErrInvalidQuiet, s)
	}
	start, err := clockOffset(from)
	if err != nil {
		return QuietHours{}, fmt.Errorf("%w: %w", ErrInvalidQuiet, err)
	}
	end, err := clockOffset(to)
	if err != nil {
		return QuietHours{}, fmt.Errorf("%w: %w", ErrInvalidQuiet, err)
	}
	return QuietHours{Start: start, End: end}, nil
}

// clockOffset converts "H:MM" or "HH:MM" to a duration since midnight.
func clockOffset(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%q is not HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("hour %q out of range 0-23", hh)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("minute %q out of range 0-59", mm)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// IsQuiet reports whether the wall-clock time of t is inside q. Convert t
// to the wanted location first.
func (q QuietHours) IsQuiet(t time.Time) bool {
	h, m, sec := t.Clock()
	at := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
	if q.Start <= q.End {
		return at >= q.Start && at < q.End
	}
	return at >= q.Start || at < q.End
}

// String renders q back to "HH:MM-HH:MM".
func (q QuietHours) String() string {
	return fmt.Sprintf("%s-%s", formatOffset(q.Start), formatOffset(q.End))
}

func formatOffset(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}
