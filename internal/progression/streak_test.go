package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextStreak(t *testing.T) {
	today := date(2026, time.March, 10)
	yesterday := date(2026, time.March, 9)
	weekAgo := date(2026, time.March, 2)

	tests := []struct {
		name        string
		last        *time.Time
		current     int
		wantStreak  int
		wantChanged bool
	}{
		{"no prior scan starts a streak", nil, 0, 1, true},
		{"second scan same day", &today, 4, 4, false},
		{"consecutive day", &yesterday, 4, 5, true},
		{"eight days ago resets", &weekAgo, 12, 1, true},
		{"negative stored streak is clamped", &yesterday, -3, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streak, changed := NextStreak(tt.last, tt.current, today)
			assert.Equal(t, tt.wantStreak, streak)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

func TestNextStreak_IgnoresTimeOfDay(t *testing.T) {
	last := time.Date(2026, time.March, 9, 23, 59, 0, 0, time.UTC)
	today := time.Date(2026, time.March, 10, 0, 1, 0, 0, time.UTC)

	streak, changed := NextStreak(&last, 2, today)
	assert.Equal(t, 3, streak)
	assert.True(t, changed)
}

func TestNextStreak_AcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}

	// 2026-03-08 is 23 hours long in New York
	last := time.Date(2026, time.March, 8, 0, 30, 0, 0, ny)
	today := time.Date(2026, time.March, 9, 23, 30, 0, 0, ny)

	streak, changed := NextStreak(&last, 1, today)
	assert.Equal(t, 2, streak)
	assert.True(t, changed)
}

func TestNextStreak_FutureLastScanResets(t *testing.T) {
	tomorrow := date(2026, time.March, 11)
	streak, changed := NextStreak(&tomorrow, 6, date(2026, time.March, 10))
	assert.Equal(t, 1, streak)
	assert.True(t, changed)
}

func TestNextStreak_NeverNegative(t *testing.T) {
	today := date(2026, time.January, 1)
	streak := 0
	var last *time.Time
	for i := 0; i < 40; i++ {
		d := today.AddDate(0, 0, i*(i%3))
		streak, _ = NextStreak(last, streak, d)
		last = &d
		assert.GreaterOrEqual(t, streak, 1)
		assert.LessOrEqual(t, streak, i+1)
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(date(2026, 1, 1), date(2026, 1, 1)))
	assert.Equal(t, 1, DaysBetween(date(2025, 12, 31), date(2026, 1, 1)))
	assert.Equal(t, 366, DaysBetween(date(2024, 1, 1), date(2025, 1, 1)))
}
