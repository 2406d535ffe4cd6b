package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sunday
var ref = time.Date(2024, time.March, 10, 9, 45, 0, 0, time.UTC)

func TestExtract_Relative(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"today", "2024-03-10"},
		{"Tomorrow please", "2024-03-11"},
		{"yesterday", "2024-03-09"},
		{"sometime next week", "2024-03-17"},
		{"this week", "2024-03-15"},
		{"next month", "2024-04-10"},
		{"in 3 days", "2024-03-13"},
		{"in 1 day", "2024-03-11"},
		{"in 2 weeks", "2024-03-24"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Extract(tt.text, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Date())
			assert.Equal(t, SourceRelative, got.Source)
			assert.False(t, got.HasTime)
		})
	}
}

func TestExtract_RelativeEdges(t *testing.T) {
	friday := time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC)
	got, err := Extract("this week", friday)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", got.Date())

	saturday := time.Date(2024, time.March, 16, 8, 0, 0, 0, time.UTC)
	got, err = Extract("this week", saturday)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-22", got.Date())

	endOfJan := time.Date(2024, time.January, 31, 8, 0, 0, 0, time.UTC)
	got, err = Extract("next month", endOfJan)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got.Date())
}

func TestExtract_Weekday(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"next monday", "2024-03-18"},
		{"monday", "2024-03-11"},
		{"this monday", "2024-03-11"},
		{"this sunday", "2024-03-10"},
		{"sunday", "2024-03-17"},
		{"next sunday", "2024-03-17"},
		{"next tue", "2024-03-19"},
		{"Fri works for me", "2024-03-15"},
		{"thurs afternoon", "2024-03-14"},
		{"monday or tuesday", "2024-03-11"},
		{"tuesday or monday", "2024-03-12"},
		{"friday dec 15", "2024-03-15"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Extract(tt.text, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Date())
			assert.Equal(t, SourceWeekday, got.Source)
		})
	}
}

func TestExtract_NextSameWeekdayIsOneWeekOut(t *testing.T) {
	friday := time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC)
	got, err := Extract("next friday", friday)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-22", got.Date())

	got, err = Extract("friday", friday)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-22", got.Date())

	got, err = Extract("this friday", friday)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", got.Date())
}

func TestExtract_LastDisablesBareWeekday(t *testing.T) {
	_, err := Extract("last monday", ref)
	assert.ErrorIs(t, err, ErrNoDate)
}

func TestExtract_WeekdayNeedsWholeWord(t *testing.T) {
	_, err := Extract("after the wedding", ref)
	assert.ErrorIs(t, err, ErrNoDate)
}

func TestExtract_MonthDay(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"dec 15", "2024-12-15"},
		{"December 15th", "2024-12-15"},
		{"15th of december", "2024-12-15"},
		{"march 3rd", "2025-03-03"},
		{"march 10", "2024-03-10"},
		{"sept 2", "2024-09-02"},
		{"feb 30 or march 12", "2024-03-12"},
		{"dec 15, 2027", "2027-12-15"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Extract(tt.text, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Date())
			assert.Equal(t, SourceMonthDay, got.Source)
		})
	}
}

func TestExtract_InvalidMonthDayFallsThrough(t *testing.T) {
	_, err := Extract("feb 30", ref)
	assert.ErrorIs(t, err, ErrNoDate)

	got, err := Extract("feb 30 or 4/2", ref)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-02", got.Date())
	assert.Equal(t, SourceFormal, got.Source)
}

func TestExtract_Formal(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"12/25/2024", "2024-12-25"},
		{"2024-12-25", "2024-12-25"},
		{"2024/4/1", "2024-04-01"},
		{"03/01/2024", "2024-03-01"},
		{"3/1", "2025-03-01"},
		{"3-20", "2024-03-20"},
		{"03/01/24", "2025-03-01"},
		{"13/45 or 4/5", "2024-04-05"},
		{"25/12/2024", "2024-12-25"},
		{"25/12", "2024-12-25"},
		{"12/25", "2024-12-25"},
		{"31-1-25", "2025-01-31"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Extract(tt.text, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Date())
			assert.Equal(t, SourceFormal, got.Source)
		})
	}
}

func TestExtract_HugeOffsetsAreIgnored(t *testing.T) {
	for _, text := range []string{
		"in 1317624576693539401 weeks",
		"in 999999999999999999 days",
		"in 521 weeks",
		"in 3651 days",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := Extract(text, ref)
			assert.ErrorIs(t, err, ErrNoDate)
		})
	}

	got, err := Extract("in 520 weeks", ref)
	require.NoError(t, err)
	assert.False(t, got.Time.Before(ref))
}

func TestExtract_ImplausibleTrailingYear(t *testing.T) {
	got, err := Extract("dec 15 1030", ref)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-15", got.Date())

	got, err = Extract("dec 15 2025", ref)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-15", got.Date())
}

func TestExtract_FormalLeapDayRollover(t *testing.T) {
	_, err := Extract("2/29", ref)
	assert.ErrorIs(t, err, ErrNoDate)
}

func TestExtract_TimeOfDay(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"tomorrow 3pm", "2024-03-11T15:00:00"},
		{"next monday 10:30", "2024-03-18T10:30:00"},
		{"12/15 at noon", "2024-12-15T12:00:00"},
		{"dec 15 at 9:15 a.m.", "2024-12-15T09:15:00"},
		{"friday 12am", "2024-03-15T00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Extract(tt.text, ref)
			require.NoError(t, err)
			assert.True(t, got.HasTime)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestExtract_NoTimeIsMidnight(t *testing.T) {
	got, err := Extract("tomorrow", ref)
	require.NoError(t, err)
	assert.False(t, got.HasTime)
	assert.Equal(t, 0, got.Time.Hour())
	assert.Equal(t, 0, got.Time.Minute())
	assert.Equal(t, "2024-03-11", got.String())
}

func TestExtract_StrategyOrder(t *testing.T) {
	got, err := Extract("next week on friday", ref)
	require.NoError(t, err)
	assert.Equal(t, SourceRelative, got.Source)
	assert.Equal(t, "2024-03-17", got.Date())
}

func TestExtract_NoMatch(t *testing.T) {
	for _, text := range []string{"", "   ", "whenever suits", "asap"} {
		_, err := Extract(text, ref)
		assert.ErrorIs(t, err, ErrNoDate, text)
	}
}

func TestExtract_NeverBeforeReference(t *testing.T) {
	phrases := []string{
		"today", "tomorrow", "next week", "this week", "next month", "in 4 days", "in 3 weeks",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
		"next monday", "this friday", "this sunday",
		"jan 1", "march 9", "march 10", "december 31", "1st of january",
		"1/1", "3/9", "12/31", "03/09/25",
	}

	refs := []time.Time{
		ref,
		time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC),
	}

	for _, r := range refs {
		for _, p := range phrases {
			got, err := Extract(p, r)
			require.NoError(t, err, p)
			assert.NoError(t, ValidateRange(got, r, 0), "%s from %s gave %s", p, r.Format(dateLayout), got.Date())
		}
	}
}

func TestValidateRange(t *testing.T) {
	past, err := Extract("yesterday", ref)
	require.NoError(t, err)
	assert.ErrorIs(t, ValidateRange(past, ref, 0), ErrDateInPast)

	far := Expression{Time: ref.AddDate(3, 0, 0)}
	assert.ErrorIs(t, ValidateRange(far, ref, 2*365*24*time.Hour), ErrDateTooFar)
	assert.NoError(t, ValidateRange(far, ref, 0))

	sameDay := Expression{Time: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)}
	assert.NoError(t, ValidateRange(sameDay, ref, time.Hour))
}

func TestSuggestions(t *testing.T) {
	assert.Equal(t, []string{"2024-03-11", "2024-03-17", "2024-03-24"}, Suggestions(ref))
}

func TestExtractor_CustomStrategies(t *testing.T) {
	e := &Extractor{strategies: []strategy{{name: SourceFormal, match: matchFormal}}}
	_, err := e.Extract("tomorrow", ref)
	assert.ErrorIs(t, err, ErrNoDate)
}
