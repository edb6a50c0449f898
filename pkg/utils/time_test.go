package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow(t *testing.T) {
	utilsTime := Now()
	standardTime := time.Now().UTC()

	// The times should be very close - within a small delta
	assert.WithinDuration(t, standardTime, utilsTime, 10*time.Millisecond)

	// Ensure the timezone is UTC
	assert.Equal(t, time.UTC, utilsTime.Location())
}

func TestParseISODate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		ok       bool
	}{
		{
			name:     "valid date",
			input:    "2025-03-14",
			expected: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "leap day",
			input:    "2024-02-29",
			expected: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:  "empty string",
			input: "",
			ok:    false,
		},
		{
			name:  "wrong separator",
			input: "2025/03/14",
			ok:    false,
		},
		{
			name:  "month out of range",
			input: "2025-13-01",
			ok:    false,
		},
		{
			name:  "non-leap-year february 29",
			input: "2025-02-29",
			ok:    false,
		},
		{
			name:  "timestamp instead of date",
			input: "2025-03-14T10:00:00Z",
			ok:    false,
		},
		{
			name:  "short form",
			input: "2025-3-4",
			ok:    false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseISODate(tc.input)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, got)
				assert.Equal(t, time.UTC, got.Location())
			} else {
				assert.True(t, got.IsZero())
			}
		})
	}
}

func TestIsValidISODate(t *testing.T) {
	assert.True(t, IsValidISODate("2025-01-31"))
	assert.False(t, IsValidISODate("2025-01-32"))
	assert.False(t, IsValidISODate(""))
}

func TestFormatISODate(t *testing.T) {
	// Non-UTC input is normalized before formatting
	loc := time.FixedZone("UTC+7", 7*3600)
	input := time.Date(2025, 6, 1, 2, 30, 0, 0, loc)

	assert.Equal(t, "2025-05-31", FormatISODate(input))
	assert.Equal(t, "2025-06-01", FormatISODate(input.Add(12*time.Hour)))
}

func TestFormatISO8601(t *testing.T) {
	input := time.Date(2025, 6, 1, 14, 30, 45, 0, time.UTC)
	assert.Equal(t, "2025-06-01T14:30:45Z", FormatISO8601(input))
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(base, base))
	assert.Equal(t, 14, DaysBetween(base, base.AddDate(0, 0, 14)))
	assert.Equal(t, -3, DaysBetween(base, base.AddDate(0, 0, -3)))
	// Partial days truncate toward zero
	assert.Equal(t, 1, DaysBetween(base, base.Add(36*time.Hour)))
}
