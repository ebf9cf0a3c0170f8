package cron

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultExpression fires once per minute at second 0.
const DefaultExpression = "0 * * * * *"

// Field positions of a six-field expression.
const (
	FieldSecond = iota
	FieldMinute
	FieldHour
	FieldDayOfMonth
	FieldMonth
	FieldDayOfWeek

	fieldCount
)

var (
	// ErrInvalidExpression is returned when an expression cannot be parsed.
	ErrInvalidExpression = errors.New("cron: invalid expression")

	// ErrNotSplittable is returned when a field is replaced on an expression
	// that is not in six-field form (e.g. a descriptor such as "@hourly").
	ErrNotSplittable = errors.New("cron: expression is not a six-field expression")

	// ErrInvalidInterval is returned for a non-positive step value.
	ErrInvalidInterval = errors.New("cron: interval must be positive")
)

var parser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Expression is a parsed recurrence expression. The zero value is not
// usable; build one with ParseExpression.
type Expression struct {
	text     string
	schedule cron.Schedule
}

// ParseExpression validates text against the six-field grammar
// (second minute hour day-of-month month day-of-week) or a calendar
// descriptor such as "@hourly". Interval descriptors ("@every 5m") are
// rejected: they have no fixed fire instants to match against a tick.
// Runs of whitespace between fields are collapsed to a single space.
func ParseExpression(text string) (Expression, error) {
	text = strings.Join(strings.Fields(text), " ")
	sched, err := parser.Parse(text)
	if err != nil {
		return Expression{}, fmt.Errorf("%w %q: %w", ErrInvalidExpression, text, err)
	}
	if _, ok := sched.(*cron.SpecSchedule); !ok {
		return Expression{}, fmt.Errorf("%w %q: interval schedules are not supported", ErrInvalidExpression, text)
	}
	return Expression{text: text, schedule: sched}, nil
}

// MustParseExpression is like ParseExpression but panics on error. Only use
// it with constant input.
func MustParseExpression(text string) Expression {
	e, err := ParseExpression(text)
	if err != nil {
		panic(err)
	}
	return e
}

func defaultExpression() Expression {
	return MustParseExpression(DefaultExpression)
}

// String returns the textual form.
func (e Expression) String() string { return e.text }

// Next returns the first fire instant strictly after t.
func (e Expression) Next(t time.Time) time.Time {
	if e.schedule == nil {
		return time.Time{}
	}
	return e.schedule.Next(t)
}

// Upcoming returns the next n fire instants after t, in order.
func (e Expression) Upcoming(t time.Time, n int) []time.Time {
	if e.schedule == nil || n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for range n {
		t = e.schedule.Next(t)
		if t.IsZero() {
			break
		}
		out = append(out, t)
	}
	return out
}

// Fields returns the space-separated fields of the textual form.
func (e Expression) Fields() []string {
	return strings.Split(e.text, " ")
}

// WithField returns a copy of e with the field at pos replaced by value.
// The replacement works on the text only; the result is re-parsed.
func (e Expression) WithField(pos int, value string) (Expression, error) {
	segments := e.Fields()
	if len(segments) != fieldCount {
		return Expression{}, fmt.Errorf("%w: %q", ErrNotSplittable, e.text)
	}
	if pos < 0 || pos >= fieldCount {
		return Expression{}, fmt.Errorf("cron: field position %d out of range", pos)
	}
	segments[pos] = value
	return ParseExpression(strings.Join(segments, " "))
}

// step renders "*/n", rejecting non-positive steps.
func step(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidInterval, n)
	}
	return fmt.Sprintf("*/%d", n), nil
}
