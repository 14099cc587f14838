package habit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOf_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	ts := time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, Date{2026, time.October, 19}, DateOf(ts))
	assert.Equal(t, Date{2026, time.October, 20}, DateOf(ts.In(tokyo)))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Date
	}{
		{"plain", "2026-10-19", Date{2026, time.October, 19}},
		{"rfc3339 utc", "2026-10-19T23:30:00Z", Date{2026, time.October, 19}},
		{"rfc3339 nanos", "2026-10-19T07:00:00.123Z", Date{2026, time.October, 19}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate_TimestampConvertedToLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	got, err := ParseDate("2026-10-19T23:30:00Z", tokyo)
	require.NoError(t, err)
	assert.Equal(t, Date{2026, time.October, 20}, got)
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "yesterday", "2026-13-01", "19/10/2026"} {
		_, err := ParseDate(s, time.UTC)
		assert.Error(t, err, "input %q", s)
	}
}

func TestDate_String(t *testing.T) {
	assert.Equal(t, "2026-01-05", Date{2026, time.January, 5}.String())
}

func TestDate_AddDays(t *testing.T) {
	d := Date{2026, time.December, 30}
	assert.Equal(t, Date{2027, time.January, 2}, d.AddDays(3))
	assert.Equal(t, Date{2026, time.December, 29}, d.AddDays(-1))
	assert.Equal(t, Date{2028, time.March, 1}, Date{2028, time.February, 28}.AddDays(2))
}

func TestDate_Ordering(t *testing.T) {
	a := Date{2026, time.October, 18}
	b := Date{2026, time.October, 19}

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a))
	assert.True(t, b.After(a))
	assert.Equal(t, 1, a.DaysUntil(b))
	assert.Equal(t, -1, b.DaysUntil(a))
	assert.Equal(t, 0, a.DaysUntil(a))
}

func TestDate_DaysUntil_AcrossDST(t *testing.T) {
	// Spans the 2026 US DST change; day arithmetic must not be off by one.
	a := Date{2026, time.March, 7}
	b := Date{2026, time.March, 10}
	assert.Equal(t, 3, a.DaysUntil(b))
}

func TestDate_IsZero(t *testing.T) {
	assert.True(t, Date{}.IsZero())
	assert.False(t, DateOf(testNow).IsZero())
}

func TestDate_At(t *testing.T) {
	got := Date{2026, time.October, 19}.At(18, 5, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 19, 18, 5, 0, 0, time.UTC), got)
}
