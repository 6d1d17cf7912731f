package engine

import (
	"testing"
	"time"

	"forgefit/training-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStreaksEmptyHistory(t *testing.T) {
	stats, err := ComputeStreaks(nil, 3, date(2025, time.June, 11))
	require.NoError(t, err)
	assert.Zero(t, stats.CurrentDaily)
	assert.Zero(t, stats.LongestDaily)
	assert.Zero(t, stats.CurrentWeekly)
	assert.Zero(t, stats.LongestWeekly)
	assert.Nil(t, stats.LastWorkoutDate)
}

func TestComputeStreaksNegativeMinSessions(t *testing.T) {
	_, err := ComputeStreaks(nil, -1, date(2025, time.June, 11))
	assert.ErrorIs(t, err, ErrNegativeInput)
}

func TestComputeStreaksDaily(t *testing.T) {
	tests := []struct {
		name        string
		days        []time.Time
		today       time.Time
		wantCurrent int
		wantLongest int
	}{
		{
			name: "consecutive run ending today",
			days: []time.Time{
				date(2025, time.June, 9),
				date(2025, time.June, 10),
				date(2025, time.June, 11),
			},
			today:       date(2025, time.June, 11),
			wantCurrent: 3,
			wantLongest: 3,
		},
		{
			name: "gap resets the trailing run",
			days: []time.Time{
				date(2025, time.June, 2),
				date(2025, time.June, 3),
				date(2025, time.June, 6),
			},
			today:       date(2025, time.June, 6),
			wantCurrent: 1,
			wantLongest: 2,
		},
		{
			name: "last completion yesterday keeps the streak alive",
			days: []time.Time{
				date(2025, time.June, 9),
				date(2025, time.June, 10),
			},
			today:       date(2025, time.June, 11),
			wantCurrent: 2,
			wantLongest: 2,
		},
		{
			name: "stale history zeroes current but keeps longest",
			days: []time.Time{
				date(2025, time.June, 2),
				date(2025, time.June, 3),
				date(2025, time.June, 4),
			},
			today:       date(2025, time.June, 11),
			wantCurrent: 0,
			wantLongest: 3,
		},
		{
			name: "multiple completions on one day count once",
			days: []time.Time{
				date(2025, time.June, 10),
				time.Date(2025, time.June, 10, 18, 0, 0, 0, time.UTC),
				date(2025, time.June, 11),
			},
			today:       date(2025, time.June, 11),
			wantCurrent: 2,
			wantLongest: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := ComputeStreaks(tt.days, 1, tt.today)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCurrent, stats.CurrentDaily, "current")
			assert.Equal(t, tt.wantLongest, stats.LongestDaily, "longest")
		})
	}
}

func TestComputeStreaksWeekly(t *testing.T) {
	// Three sessions per week for two consecutive ISO weeks.
	days := []time.Time{
		date(2025, time.June, 2), date(2025, time.June, 4), date(2025, time.June, 6),
		date(2025, time.June, 9), date(2025, time.June, 11), date(2025, time.June, 13),
	}
	stats, err := ComputeStreaks(days, 3, date(2025, time.June, 13))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CurrentWeekly)
	assert.Equal(t, 2, stats.LongestWeekly)
}

func TestComputeStreaksWeeklyBelowThresholdBreaks(t *testing.T) {
	days := []time.Time{
		// Week 1 qualifies, week 2 has a single session, week 3 qualifies.
		date(2025, time.June, 2), date(2025, time.June, 4), date(2025, time.June, 6),
		date(2025, time.June, 9),
		date(2025, time.June, 16), date(2025, time.June, 18), date(2025, time.June, 20),
	}
	stats, err := ComputeStreaks(days, 3, date(2025, time.June, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CurrentWeekly)
	assert.Equal(t, 1, stats.LongestWeekly)
}

func TestComputeStreaksWeeklyStale(t *testing.T) {
	// Qualifying weeks ended long before today.
	days := []time.Time{
		date(2025, time.March, 3), date(2025, time.March, 5), date(2025, time.March, 7),
		date(2025, time.March, 10), date(2025, time.March, 12), date(2025, time.March, 14),
	}
	stats, err := ComputeStreaks(days, 3, date(2025, time.June, 13))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CurrentWeekly)
	assert.Equal(t, 2, stats.LongestWeekly)
}

func TestComputeStreaksWeeklyYearRollover(t *testing.T) {
	// 2020 is a 53-ISO-week year; the run crosses into week 1 of 2021.
	days := []time.Time{
		date(2020, time.December, 28), date(2020, time.December, 29), date(2020, time.December, 30),
		date(2021, time.January, 4), date(2021, time.January, 5), date(2021, time.January, 6),
	}
	stats, err := ComputeStreaks(days, 3, date(2021, time.January, 6))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CurrentWeekly)
	assert.Equal(t, 2, stats.LongestWeekly)
}

func TestNextISOWeek(t *testing.T) {
	assert.Equal(t, 202502, nextISOWeek(202501))
	assert.Equal(t, 202601, nextISOWeek(202552)) // 2025 has 52 ISO weeks
	assert.Equal(t, 202101, nextISOWeek(202053)) // 2020 has 53 ISO weeks
}

func TestNextMilestone(t *testing.T) {
	tests := []struct {
		current       int
		wantMilestone int
		wantDays      int
	}{
		{0, 7, 7},
		{6, 7, 1},
		{7, 14, 7},
		{30, 60, 30},
		{364, 365, 1},
		{365, 365, 0},
		{500, 365, 0},
		{-3, 7, 7},
	}
	for _, tt := range tests {
		m, d := NextMilestone(tt.current)
		assert.Equal(t, tt.wantMilestone, m, "current %d", tt.current)
		assert.Equal(t, tt.wantDays, d, "current %d", tt.current)
	}
}

func TestMilestoneCrossed(t *testing.T) {
	m, ok := MilestoneCrossed(6, 7)
	require.True(t, ok)
	assert.Equal(t, 7, m)

	m, ok = MilestoneCrossed(25, 31)
	require.True(t, ok)
	assert.Equal(t, 30, m)

	_, ok = MilestoneCrossed(7, 8)
	assert.False(t, ok)

	_, ok = MilestoneCrossed(0, 0)
	assert.False(t, ok)
}

func TestMergeStreakKeepsHighWaterMarks(t *testing.T) {
	last := date(2025, time.June, 11)
	stored := &domain.UserStreak{
		CurrentDaily:  9,
		LongestDaily:  20,
		CurrentWeekly: 3,
		LongestWeekly: 8,
	}
	now := time.Date(2025, time.June, 11, 12, 0, 0, 0, time.UTC)

	MergeStreak(stored, StreakStats{
		CurrentDaily:    1,
		LongestDaily:    5,
		CurrentWeekly:   1,
		LongestWeekly:   2,
		LastWorkoutDate: &last,
	}, now)

	// Current values track the recomputation, longest never decrease.
	assert.Equal(t, 1, stored.CurrentDaily)
	assert.Equal(t, 20, stored.LongestDaily)
	assert.Equal(t, 1, stored.CurrentWeekly)
	assert.Equal(t, 8, stored.LongestWeekly)
	assert.Equal(t, &last, stored.LastWorkoutDate)
	assert.Equal(t, now, stored.UpdatedAt)

	MergeStreak(stored, StreakStats{LongestDaily: 25, LongestWeekly: 10}, now)
	assert.Equal(t, 25, stored.LongestDaily)
	assert.Equal(t, 10, stored.LongestWeekly)
}
