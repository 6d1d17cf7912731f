package engine

import (
	"errors"
	"time"

	"forgefit/training-engine/internal/domain"
)

var ErrNegativeInput = errors.New("streak inputs must not be negative")

// Milestones are the fixed streak checkpoints that trigger celebratory
// feedback, in days.
var Milestones = []int{7, 14, 30, 60, 90, 180, 365}

// StreakStats is the recomputed streak state derived from distinct
// completion dates. Longest values are merged as high-water marks by the
// caller against the stored streak.
type StreakStats struct {
	CurrentDaily    int
	LongestDaily    int
	CurrentWeekly   int
	LongestWeekly   int
	LastWorkoutDate *time.Time
}

// ComputeStreaks reconciles streaks from the distinct completion dates
// (UTC days, ascending). Missing history is not an error: it yields zeroes.
//
// Daily streak: trailing run of consecutive calendar days; a gap of more than
// one day breaks it, and a last completion older than yesterday zeroes it.
// Weekly streak: trailing run of ISO weeks with at least minSessionsPerWeek
// completion days, ending at the current or previous ISO week.
func ComputeStreaks(dates []time.Time, minSessionsPerWeek int, today time.Time) (StreakStats, error) {
	if minSessionsPerWeek < 0 {
		return StreakStats{}, ErrNegativeInput
	}
	if minSessionsPerWeek == 0 {
		minSessionsPerWeek = 1
	}
	if len(dates) == 0 {
		return StreakStats{}, nil
	}

	days := normalizeDays(dates)
	today = startOfDay(today)
	last := days[len(days)-1]

	stats := StreakStats{LastWorkoutDate: &last}
	stats.LongestDaily, stats.CurrentDaily = dailyStreaks(days, today)
	stats.LongestWeekly, stats.CurrentWeekly = weeklyStreaks(days, minSessionsPerWeek, today)
	return stats, nil
}

// normalizeDays truncates to UTC midnight, dedupes and sorts ascending.
// Multiple completions on one day count once.
func normalizeDays(dates []time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(dates))
	var days []time.Time
	for _, d := range dates {
		day := startOfDay(d)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	for i := 1; i < len(days); i++ {
		for j := i; j > 0 && days[j].Before(days[j-1]); j-- {
			days[j], days[j-1] = days[j-1], days[j]
		}
	}
	return days
}

func dailyStreaks(days []time.Time, today time.Time) (longest, current int) {
	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	// The trailing run only counts as "current" while it is still alive:
	// the last completion must be today or yesterday.
	last := days[len(days)-1]
	if today.Sub(last) > 24*time.Hour {
		return longest, 0
	}
	current = 1
	for i := len(days) - 1; i > 0; i-- {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			current++
		} else {
			break
		}
	}
	return longest, current
}

// isoWeekKey collapses a date to its ISO year/week as a comparable int.
func isoWeekKey(d time.Time) int {
	year, week := d.ISOWeek()
	return year*100 + week
}

func weeklyStreaks(days []time.Time, minSessions int, today time.Time) (longest, current int) {
	counts := make(map[int]int)
	var weekKeys []int
	for _, d := range days {
		k := isoWeekKey(d)
		if counts[k] == 0 {
			weekKeys = append(weekKeys, k)
		}
		counts[k]++
	}

	qualifies := func(k int) bool { return counts[k] >= minSessions }

	// Longest run of consecutive qualifying ISO weeks.
	run := 0
	prevKey := -1
	for _, k := range weekKeys {
		if !qualifies(k) {
			run = 0
			prevKey = -1
			continue
		}
		if prevKey >= 0 && k == nextISOWeek(prevKey) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prevKey = k
	}

	// Current run must end at this ISO week or the one before it.
	thisWeek := isoWeekKey(today)
	lastQualifying := -1
	for i := len(weekKeys) - 1; i >= 0; i-- {
		if qualifies(weekKeys[i]) {
			lastQualifying = weekKeys[i]
			break
		}
	}
	if lastQualifying < 0 {
		return longest, 0
	}
	if lastQualifying != thisWeek && nextISOWeek(lastQualifying) != thisWeek {
		return longest, 0
	}
	current = 1
	prev := lastQualifying
	for i := len(weekKeys) - 1; i >= 0; i-- {
		k := weekKeys[i]
		if k >= prev {
			continue
		}
		if qualifies(k) && nextISOWeek(k) == prev {
			current++
			prev = k
		} else {
			break
		}
	}
	return longest, current
}

// nextISOWeek returns the key of the ISO week following the given key,
// handling the year rollover (52- and 53-week years).
func nextISOWeek(key int) int {
	year, week := key/100, key%100
	if week < weeksInISOYear(year) {
		return year*100 + week + 1
	}
	return (year+1)*100 + 1
}

// weeksInISOYear reports 52 or 53 for the given ISO year.
func weeksInISOYear(year int) int {
	// December 28th is always in the last ISO week of its year.
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// NextMilestone returns the smallest milestone above the current streak and
// the days remaining until it. Past the last tier it keeps returning the
// final milestone with zero remaining.
func NextMilestone(currentStreak int) (milestone, daysUntil int) {
	if currentStreak < 0 {
		currentStreak = 0
	}
	for _, m := range Milestones {
		if m > currentStreak {
			return m, m - currentStreak
		}
	}
	last := Milestones[len(Milestones)-1]
	return last, 0
}

// MilestoneCrossed reports the milestone crossed when a streak moves from
// previous to current, if any.
func MilestoneCrossed(previous, current int) (int, bool) {
	for _, m := range Milestones {
		if previous < m && current >= m {
			return m, true
		}
	}
	return 0, false
}

// MergeStreak folds freshly computed stats into the stored streak, keeping
// longest values monotone non-decreasing.
func MergeStreak(stored *domain.UserStreak, stats StreakStats, now time.Time) {
	stored.CurrentDaily = stats.CurrentDaily
	stored.CurrentWeekly = stats.CurrentWeekly
	if stats.LongestDaily > stored.LongestDaily {
		stored.LongestDaily = stats.LongestDaily
	}
	if stats.LongestWeekly > stored.LongestWeekly {
		stored.LongestWeekly = stats.LongestWeekly
	}
	stored.LastWorkoutDate = stats.LastWorkoutDate
	stored.UpdatedAt = now
}
