package dateparse

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNoDate     = errors.New("no date found in text")
	ErrDateInPast = errors.New("date cannot be in the past")
	ErrDateTooFar = errors.New("date is too far in the future")
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:00"
)

// Expression is a resolved calendar date with an optional time of day.
type Expression struct {
	Time    time.Time
	HasTime bool
	// Source names the strategy that produced the date.
	Source string
}

// Date returns the calendar date as YYYY-MM-DD.
func (e Expression) Date() string {
	return e.Time.Format(dateLayout)
}

func (e Expression) String() string {
	if e.HasTime {
		return e.Time.Format(dateTimeLayout)
	}
	return e.Date()
}

// strategy reports a date for text relative to today (midnight of the
// reference day), or false when it does not recognise the phrase.
type strategy struct {
	name  string
	match func(text string, today time.Time) (time.Time, bool)
}

// Extractor turns free-text date phrases into calendar dates. Strategies run
// in a fixed order and the first match wins; results are never combined.
type Extractor struct {
	strategies []strategy
}

func New() *Extractor {
	return &Extractor{strategies: defaultStrategies()}
}

func defaultStrategies() []strategy {
	return []strategy{
		{name: SourceRelative, match: matchRelative},
		{name: SourceWeekday, match: matchWeekday},
		{name: SourceMonthDay, match: matchMonthDay},
		{name: SourceFormal, match: matchFormal},
	}
}

const (
	SourceRelative = "relative"
	SourceWeekday  = "weekday"
	SourceMonthDay = "month_day"
	SourceFormal   = "formal"
)

var defaultExtractor = New()

// Extract resolves text with the default strategy list.
func Extract(text string, ref time.Time) (Expression, error) {
	return defaultExtractor.Extract(text, ref)
}

// Extract resolves text relative to ref. A time of day found anywhere in the
// text is attached to the resolved date; otherwise the result is midnight.
func (e *Extractor) Extract(text string, ref time.Time) (Expression, error) {
	normalized := normalize(text)
	if normalized == "" {
		return Expression{}, ErrNoDate
	}

	today := midnight(ref)
	for _, s := range e.strategies {
		day, ok := s.match(normalized, today)
		if !ok {
			continue
		}
		expr := Expression{Time: day, Source: s.name}
		if hour, minute, ok := timeOfDay(normalized); ok {
			expr.Time = time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
			expr.HasTime = true
		}
		return expr, nil
	}
	return Expression{}, ErrNoDate
}

// ValidateRange rejects dates before the reference day or more than maxAhead
// after it. A zero maxAhead disables the upper bound.
func ValidateRange(expr Expression, ref time.Time, maxAhead time.Duration) error {
	today := midnight(ref)
	day := midnight(expr.Time)
	if day.Before(today) {
		return ErrDateInPast
	}
	if maxAhead > 0 && day.After(today.Add(maxAhead)) {
		return ErrDateTooFar
	}
	return nil
}

// Suggestions returns tomorrow, one week and two weeks out as YYYY-MM-DD.
func Suggestions(ref time.Time) []string {
	today := midnight(ref)
	return []string{
		today.AddDate(0, 0, 1).Format(dateLayout),
		today.AddDate(0, 0, 7).Format(dateLayout),
		today.AddDate(0, 0, 14).Format(dateLayout),
	}
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// makeDate builds a date and reports false when the day does not exist in
// that month (Feb 30, Apr 31, ...).
func makeDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
