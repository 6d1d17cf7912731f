package engine

import (
	"testing"
	"time"

	"forgefit/training-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// date is a shorthand for UTC midnight used across the engine tests.
func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var mondayWedFriday = []time.Weekday{time.Monday, time.Wednesday, time.Friday}

func TestSkeletonPhaseCycle(t *testing.T) {
	p := NewPlanner()
	weeks, err := p.Skeleton(PlanParams{
		Level:       domain.FitnessIntermediate,
		Days:        mondayWedFriday,
		DaysPerWeek: 3,
		TotalWeeks:  10,
		StartDate:   date(2025, time.June, 2),
	})
	require.NoError(t, err)
	require.Len(t, weeks, 10)

	want := []domain.TrainingPhase{
		domain.PhaseFoundation, domain.PhaseBuild, domain.PhasePeak, domain.PhaseRecovery,
		domain.PhaseFoundation, domain.PhaseBuild, domain.PhasePeak, domain.PhaseRecovery,
		domain.PhaseFoundation,
		// Week 10 would start a new cycle but the final week always tapers.
		domain.PhaseRecovery,
	}
	for i, wk := range weeks {
		assert.Equal(t, want[i], wk.Phase, "week %d", wk.WeekNumber)
		assert.Equal(t, i+1, wk.WeekNumber)
	}
}

func TestSkeletonDates(t *testing.T) {
	p := NewPlanner()
	weeks, err := p.Skeleton(PlanParams{
		Level:       domain.FitnessNovice,
		Days:        mondayWedFriday,
		DaysPerWeek: 3,
		TotalWeeks:  2,
		StartDate:   date(2025, time.June, 2), // A Monday.
	})
	require.NoError(t, err)
	require.Len(t, weeks, 2)

	assert.Equal(t, date(2025, time.June, 2), weeks[0].StartDate)
	assert.Equal(t, date(2025, time.June, 8), weeks[0].EndDate)
	assert.Equal(t, []time.Time{
		date(2025, time.June, 2),
		date(2025, time.June, 4),
		date(2025, time.June, 6),
	}, weeks[0].TrainingDates)

	assert.Equal(t, date(2025, time.June, 9), weeks[1].StartDate)
	assert.Equal(t, date(2025, time.June, 15), weeks[1].EndDate)
}

func TestSkeletonFromKeepsAbsoluteWeekNumbers(t *testing.T) {
	p := NewPlanner()
	params := PlanParams{
		Level:       domain.FitnessIntermediate,
		Days:        mondayWedFriday,
		DaysPerWeek: 3,
		TotalWeeks:  8,
		StartDate:   date(2025, time.June, 2),
	}
	weeks, err := p.SkeletonFrom(params, 5, date(2025, time.June, 30))
	require.NoError(t, err)
	require.Len(t, weeks, 4)

	// A rebuilt week 5 must look like a generated week 5: new macro-cycle.
	assert.Equal(t, 5, weeks[0].WeekNumber)
	assert.Equal(t, domain.PhaseFoundation, weeks[0].Phase)
	assert.Equal(t, date(2025, time.June, 30), weeks[0].StartDate)
	assert.Equal(t, 8, weeks[3].WeekNumber)
	assert.Equal(t, domain.PhaseRecovery, weeks[3].Phase)

	_, err = p.SkeletonFrom(params, 9, date(2025, time.June, 30))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	p := NewPlanner()
	tests := []struct {
		name    string
		params  PlanParams
		wantErr error
	}{
		{
			name:    "no days selected",
			params:  PlanParams{DaysPerWeek: 2, TotalWeeks: 4},
			wantErr: ErrInsufficientAvailability,
		},
		{
			name:    "zero sessions per week",
			params:  PlanParams{Days: mondayWedFriday, TotalWeeks: 4},
			wantErr: ErrInsufficientAvailability,
		},
		{
			name:    "more sessions than days",
			params:  PlanParams{Days: mondayWedFriday, DaysPerWeek: 4, TotalWeeks: 4},
			wantErr: ErrInsufficientAvailability,
		},
		{
			name:    "zero weeks",
			params:  PlanParams{Days: mondayWedFriday, DaysPerWeek: 3},
			wantErr: ErrInvalidHorizon,
		},
		{
			name:   "valid",
			params: PlanParams{Days: mondayWedFriday, DaysPerWeek: 3, TotalWeeks: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Validate(tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIntensityForPhase(t *testing.T) {
	tests := []struct {
		name  string
		phase domain.TrainingPhase
		week  int
		level domain.FitnessLevel
		want  domain.IntensityLevel
	}{
		{"foundation is low", domain.PhaseFoundation, 1, domain.FitnessElite, domain.IntensityLow},
		{"build is moderate", domain.PhaseBuild, 2, domain.FitnessBeginner, domain.IntensityModerate},
		{"first peak is high", domain.PhasePeak, 3, domain.FitnessAdvanced, domain.IntensityHigh},
		{"later peak maxes advanced", domain.PhasePeak, 7, domain.FitnessAdvanced, domain.IntensityMaximum},
		{"later peak caps intermediate", domain.PhasePeak, 7, domain.FitnessIntermediate, domain.IntensityHigh},
		{"recovery is low", domain.PhaseRecovery, 4, domain.FitnessElite, domain.IntensityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, intensityForPhase(tt.phase, tt.week, tt.level))
		})
	}
}

func TestVolumeForPhase(t *testing.T) {
	tests := []struct {
		level domain.FitnessLevel
		phase domain.TrainingPhase
		want  int
	}{
		{domain.FitnessBeginner, domain.PhaseFoundation, 150},
		{domain.FitnessIntermediate, domain.PhaseBuild, 255},  // 220 * 1.15 rounded to 5
		{domain.FitnessElite, domain.PhasePeak, 430},          // 330 * 1.3
		{domain.FitnessNovice, domain.PhaseRecovery, 110},     // 180 * 0.6 rounded to 5
		{domain.FitnessAdvanced, domain.PhaseFoundation, 270},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, volumeForPhase(tt.phase, tt.level),
			"%s %s", tt.level, tt.phase)
	}
}

func TestSelectTrainingDays(t *testing.T) {
	all := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}

	t.Run("spreads across the full week", func(t *testing.T) {
		got := selectTrainingDays(all, 3)
		assert.Equal(t, []time.Weekday{time.Monday, time.Thursday, time.Sunday}, got)
	})

	t.Run("uses the endpoints for two days", func(t *testing.T) {
		got := selectTrainingDays(mondayWedFriday, 2)
		assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, got)
	})

	t.Run("count matching availability is identity", func(t *testing.T) {
		got := selectTrainingDays(mondayWedFriday, 3)
		assert.Equal(t, mondayWedFriday, got)
	})

	t.Run("single day takes the earliest", func(t *testing.T) {
		got := selectTrainingDays(mondayWedFriday, 1)
		assert.Equal(t, []time.Weekday{time.Monday}, got)
	})
}

func TestDedupeWeekdaysFillsCollisions(t *testing.T) {
	picked := []time.Weekday{time.Monday, time.Monday, time.Friday}
	got := dedupeWeekdays(picked, mondayWedFriday, 3)
	assert.Equal(t, mondayWedFriday, got)
}

func TestSortWeekdaysMondayFirst(t *testing.T) {
	days := []time.Weekday{time.Sunday, time.Wednesday, time.Monday}
	sortWeekdaysMondayFirst(days)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Sunday}, days)
}

func TestTrainingDatesOrdersEarliestFirst(t *testing.T) {
	// Input weekday order must not matter.
	got := trainingDates(date(2025, time.June, 2), []time.Weekday{time.Friday, time.Monday})
	assert.Equal(t, []time.Time{
		date(2025, time.June, 2),
		date(2025, time.June, 6),
	}, got)
}

func TestNearestSelectedWeekday(t *testing.T) {
	tests := []struct {
		name     string
		target   time.Weekday
		selected []time.Weekday
		want     time.Weekday
	}{
		{"exact match", time.Friday, mondayWedFriday, time.Friday},
		{"tie resolves earlier", time.Wednesday, []time.Weekday{time.Monday, time.Friday}, time.Monday},
		{"closest wins", time.Saturday, []time.Weekday{time.Monday, time.Friday}, time.Friday},
		{"sunday near saturday", time.Sunday, []time.Weekday{time.Monday, time.Saturday}, time.Saturday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NearestSelectedWeekday(tt.target, tt.selected))
		})
	}
}

func TestNextWeekStart(t *testing.T) {
	monday := date(2025, time.June, 2)
	assert.Equal(t, monday, NextWeekStart(monday))
	assert.Equal(t, date(2025, time.June, 9), NextWeekStart(date(2025, time.June, 3)))
	// Time of day is stripped.
	assert.Equal(t, monday, NextWeekStart(time.Date(2025, time.June, 2, 18, 30, 0, 0, time.UTC)))
}
