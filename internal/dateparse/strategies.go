package dateparse

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Relative keywords

var (
	reToday     = wordRegexp("today")
	reTomorrow  = wordRegexp("tomorrow")
	reYesterday = wordRegexp("yesterday")
	reNextWeek  = wordRegexp("next week")
	reThisWeek  = wordRegexp("this week")
	reNextMonth = wordRegexp("next month")
	reInDays    = regexp.MustCompile(`\bin (\d+) days?\b`)
	reInWeeks   = regexp.MustCompile(`\bin (\d+) weeks?\b`)
	reLast      = wordRegexp("last")
)

// Offsets beyond these are treated as noise rather than dates.
const (
	maxInDays  = 3650
	maxInWeeks = 520
)

func wordRegexp(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
}

func matchRelative(text string, today time.Time) (time.Time, bool) {
	switch {
	case reToday.MatchString(text):
		return today, true
	case reTomorrow.MatchString(text):
		return today.AddDate(0, 0, 1), true
	case reYesterday.MatchString(text):
		return today.AddDate(0, 0, -1), true
	case reNextWeek.MatchString(text):
		return today.AddDate(0, 0, 7), true
	case reThisWeek.MatchString(text):
		// Friday of the current week; today when today is Friday.
		return today.AddDate(0, 0, daysUntil(today.Weekday(), time.Friday)), true
	case reNextMonth.MatchString(text):
		return addMonths(today, 1), true
	}

	if n, ok := captureInt(reInDays, text, maxInDays); ok {
		return today.AddDate(0, 0, n), true
	}
	if n, ok := captureInt(reInWeeks, text, maxInWeeks); ok {
		return today.AddDate(0, 0, 7*n), true
	}
	return time.Time{}, false
}

func captureInt(re *regexp.Regexp, text string, limit int) (int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n > limit {
		return 0, false
	}
	return n, true
}

// addMonths moves forward whole calendar months, clamping the day to the last
// day of the target month (Jan 31 + 1 month = Feb 28/29).
func addMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

// daysUntil returns 0..6, the forward distance from one weekday to another.
func daysUntil(from, to time.Weekday) int {
	return (int(to) - int(from) + 7) % 7
}

// Weekdays

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sunday": time.Sunday,
	"tues":   time.Tuesday, "thurs": time.Thursday, "thur": time.Thursday,
	"mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
	"sun": time.Sunday,
}

// The leftmost weekday mention wins; an optional next/this qualifier may
// precede it.
var reWeekday = regexp.MustCompile(`\b(?:(next|this)\s+)?(` + alternation(weekdayNames) + `)\b`)

func matchWeekday(text string, today time.Time) (time.Time, bool) {
	m := reWeekday.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	qualifier, target := m[1], weekdayNames[m[2]]
	diff := daysUntil(today.Weekday(), target)

	switch qualifier {
	case "next":
		// Never this week: always 7 to 13 days out.
		return today.AddDate(0, 0, diff+7), true
	case "this":
		return today.AddDate(0, 0, diff), true
	}

	if reLast.MatchString(text) {
		return time.Time{}, false
	}
	if diff == 0 {
		diff = 7
	}
	return today.AddDate(0, 0, diff), true
}

// Month and day

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
	"sept": time.September,
	"jan":  time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"jun": time.June, "jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var (
	monthAlt     = alternation(monthNames)
	reMonthFirst = regexp.MustCompile(`\b(` + monthAlt + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`)
	reDayFirst   = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+of\s+(` + monthAlt + `)\b(?:,?\s+(\d{4})\b)?`)
)

type monthDayCandidate struct {
	pos   int
	month time.Month
	day   int
	year  int // 0 when the text gave no year
}

func matchMonthDay(text string, today time.Time) (time.Time, bool) {
	var candidates []monthDayCandidate
	for _, idx := range reMonthFirst.FindAllStringSubmatchIndex(text, -1) {
		candidates = append(candidates, monthDayCandidate{
			pos:   idx[0],
			month: monthNames[text[idx[2]:idx[3]]],
			day:   atoi(text[idx[4]:idx[5]]),
			year:  optionalInt(text, idx[6], idx[7]),
		})
	}
	for _, idx := range reDayFirst.FindAllStringSubmatchIndex(text, -1) {
		candidates = append(candidates, monthDayCandidate{
			pos:   idx[0],
			day:   atoi(text[idx[2]:idx[3]]),
			month: monthNames[text[idx[4]:idx[5]]],
			year:  optionalInt(text, idx[6], idx[7]),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].pos < candidates[j].pos })

	for _, c := range candidates {
		if c.year != 0 && c.year < today.Year()-1 {
			// A trailing number like "dec 15 1030" is not a year.
			c.year = 0
		}
		if c.year != 0 {
			if d, ok := makeDate(c.year, c.month, c.day, today.Location()); ok {
				return d, true
			}
			continue
		}
		d, ok := makeDate(today.Year(), c.month, c.day, today.Location())
		if !ok {
			continue
		}
		if d.Before(today) {
			if d, ok = makeDate(today.Year()+1, c.month, c.day, today.Location()); !ok {
				continue
			}
		}
		return d, true
	}
	return time.Time{}, false
}

// Formal numeric dates

var (
	reMonthDayYear = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{2,4})\b`)
	reYearMonthDay = regexp.MustCompile(`\b(\d{4})[-/](\d{1,2})[-/](\d{1,2})\b`)
	reMonthDayOnly = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})\b`)
)

func matchFormal(text string, today time.Time) (time.Time, bool) {
	for _, m := range reMonthDayYear.FindAllStringSubmatch(text, -1) {
		year, explicitYear := atoi(m[3]), len(m[3]) == 4
		switch len(m[3]) {
		case 2:
			year += 2000
		case 3:
			continue
		}
		month, day := monthFirst(atoi(m[1]), atoi(m[2]))
		if d, ok := resolveFormal(year, month, day, explicitYear, today); ok {
			return d, true
		}
	}
	for _, m := range reYearMonthDay.FindAllStringSubmatch(text, -1) {
		if d, ok := resolveFormal(atoi(m[1]), atoi(m[2]), atoi(m[3]), true, today); ok {
			return d, true
		}
	}
	for _, m := range reMonthDayOnly.FindAllStringSubmatch(text, -1) {
		month, day := monthFirst(atoi(m[1]), atoi(m[2]))
		if d, ok := resolveFormal(today.Year(), month, day, false, today); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// monthFirst reads a/b as month/day, or as day/month when a cannot be a
// month and b can.
func monthFirst(a, b int) (month, day int) {
	if a > 12 && b >= 1 && b <= 12 {
		return b, a
	}
	return a, b
}

// resolveFormal rolls a date without a four-digit year forward one year when
// it falls earlier in the reference year.
func resolveFormal(year, month, day int, explicitYear bool, today time.Time) (time.Time, bool) {
	d, ok := makeDate(year, time.Month(month), day, today.Location())
	if !ok {
		return time.Time{}, false
	}
	if !explicitYear && d.Year() == today.Year() && d.Before(today) {
		return makeDate(year+1, time.Month(month), day, today.Location())
	}
	return d, true
}

// Time of day

var (
	reClock12  = regexp.MustCompile(`\b(\d{1,2})(?::([0-5]\d))?\s*([ap])\.?m\b\.?`)
	reClock24  = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	reNoon     = wordRegexp("noon")
	reMidnight = wordRegexp("midnight")
)

func timeOfDay(text string) (hour, minute int, ok bool) {
	if m := reClock12.FindStringSubmatch(text); m != nil {
		hour = atoi(m[1])
		if hour >= 1 && hour <= 12 {
			if m[2] != "" {
				minute = atoi(m[2])
			}
			hour %= 12
			if m[3] == "p" {
				hour += 12
			}
			return hour, minute, true
		}
	}
	if m := reClock24.FindStringSubmatch(text); m != nil {
		return atoi(m[1]), atoi(m[2]), true
	}
	if reNoon.MatchString(text) {
		return 12, 0, true
	}
	if reMidnight.MatchString(text) {
		return 0, 0, true
	}
	return 0, 0, false
}

// helpers

// alternation joins map keys longest first so that full names win over
// their abbreviations.
func alternation[V any](names map[string]V) string {
	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return strings.Join(keys, "|")
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func optionalInt(text string, start, end int) int {
	if start < 0 {
		return 0
	}
	return atoi(text[start:end])
}
