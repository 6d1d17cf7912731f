package engine

import (
	"testing"
	"time"

	"forgefit/training-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// assemblyCatalog covers the disciplines the hyrox-race rotation reaches so a
// week can be assembled without rest fallbacks.
func assemblyCatalog() *Catalog {
	wallBall := exerciseNamed("Wall Ball", domain.DisciplineHyrox, domain.FitnessNovice, domain.PatternSquat)
	sled := exerciseNamed("Sled Push", domain.DisciplineHyrox, domain.FitnessNovice, domain.PatternLocomotor)
	burpee := exerciseNamed("Burpee Broad Jump", domain.DisciplineHyrox, domain.FitnessIntermediate, domain.PatternSquat)
	easyRun := exerciseNamed("Easy Run", domain.DisciplineRunning, domain.FitnessBeginner, domain.PatternLocomotor)
	strides := exerciseNamed("Strides", domain.DisciplineRunning, domain.FitnessNovice, domain.PatternLocomotor)
	circuit := exerciseNamed("KB Circuit", domain.DisciplineHybrid, domain.FitnessNovice, domain.PatternHinge)
	rower := exerciseNamed("Row Erg", domain.DisciplineHybrid, domain.FitnessBeginner, domain.PatternPull)
	squat := exerciseNamed("Back Squat", domain.DisciplineStrength, domain.FitnessIntermediate, domain.PatternSquat)
	deadlift := exerciseNamed("Deadlift", domain.DisciplineStrength, domain.FitnessIntermediate, domain.PatternHinge)
	return NewCatalog([]domain.Exercise{
		wallBall, sled, burpee, easyRun, strides, circuit, rower, squat, deadlift,
	})
}

func foundationWeek(number int) domain.TrainingWeek {
	start := date(2025, time.June, 2).AddDate(0, 0, 7*(number-1))
	return domain.TrainingWeek{
		WeekNumber:    number,
		Phase:         domain.PhaseFoundation,
		Intensity:     domain.IntensityLow,
		VolumeMinutes: 220,
		StartDate:     start,
		EndDate:       start.AddDate(0, 0, 6),
		TrainingDates: trainingDates(start, mondayWedFriday),
	}
}

func TestAssembleWeekOneWorkoutPerTrainingDate(t *testing.T) {
	goal := domain.GoalHyroxRace
	a := NewAssembler(assemblyCatalog())
	week := foundationWeek(1)

	workouts, warnings := a.AssembleWeek(week, AssembleParams{
		PlanID:   primitive.NewObjectID(),
		UserID:   primitive.NewObjectID(),
		GoalType: &goal,
		Level:    domain.FitnessIntermediate,
	})
	require.Empty(t, warnings)
	require.Len(t, workouts, 3)

	// Hyrox rotation, week 1: hyrox, running, hybrid.
	assert.Equal(t, domain.DisciplineHyrox, workouts[0].Discipline)
	assert.Equal(t, domain.DisciplineRunning, workouts[1].Discipline)
	assert.Equal(t, domain.DisciplineHybrid, workouts[2].Discipline)

	for i, w := range workouts {
		assert.Equal(t, week.TrainingDates[i], w.ScheduledDate)
		assert.Equal(t, week.TrainingDates[i].Weekday(), w.DayOfWeek)
		assert.Equal(t, week.WeekNumber, w.WeekNumber)
		assert.Equal(t, week.Intensity, w.Intensity)
		assert.Equal(t, domain.StatusNotStarted, w.Status)
		assert.NotEmpty(t, w.Exercises)
		// Volume split across the week's sessions.
		assert.Equal(t, week.VolumeMinutes/3, w.EstimatedMin)
		for j, slot := range w.Exercises {
			assert.Equal(t, j+1, slot.Order)
		}
	}

	require.NotNil(t, workouts[0].SessionType)
	assert.Equal(t, domain.SessionHyroxStations, *workouts[0].SessionType)
	require.NotNil(t, workouts[1].SessionType)
	assert.Equal(t, domain.SessionEasyRun, *workouts[1].SessionType)
}

func TestAssembleWeekRotationShiftsAcrossWeeks(t *testing.T) {
	goal := domain.GoalHyroxRace
	a := NewAssembler(assemblyCatalog())

	workouts, _ := a.AssembleWeek(foundationWeek(2), AssembleParams{
		PlanID:   primitive.NewObjectID(),
		UserID:   primitive.NewObjectID(),
		GoalType: &goal,
		Level:    domain.FitnessIntermediate,
	})
	require.Len(t, workouts, 3)

	// Week 2 starts one step into the rotation.
	assert.Equal(t, domain.DisciplineRunning, workouts[0].Discipline)
	assert.Equal(t, domain.DisciplineHybrid, workouts[1].Discipline)
	assert.Equal(t, domain.DisciplineStrength, workouts[2].Discipline)
}

func TestAssembleWeekIsDeterministic(t *testing.T) {
	goal := domain.GoalHyroxRace
	a := NewAssembler(assemblyCatalog())
	params := AssembleParams{
		PlanID:   primitive.NewObjectID(),
		UserID:   primitive.NewObjectID(),
		GoalType: &goal,
		Level:    domain.FitnessIntermediate,
	}

	first, _ := a.AssembleWeek(foundationWeek(1), params)
	second, _ := a.AssembleWeek(foundationWeek(1), params)
	assert.Equal(t, first, second)
}

func TestAssembleWeekEmptyPoolSchedulesRest(t *testing.T) {
	goal := domain.GoalRunningDistance
	// Strength-only catalog: every running slot has no pool.
	squat := exerciseNamed("Back Squat", domain.DisciplineStrength, domain.FitnessBeginner, domain.PatternSquat)
	a := NewAssembler(NewCatalog([]domain.Exercise{squat}))

	workouts, warnings := a.AssembleWeek(foundationWeek(1), AssembleParams{
		PlanID:   primitive.NewObjectID(),
		UserID:   primitive.NewObjectID(),
		GoalType: &goal,
		Level:    domain.FitnessBeginner,
	})
	require.Len(t, workouts, 3)
	assert.NotEmpty(t, warnings)

	// Running rotation week 1: running, strength, running.
	assert.Equal(t, domain.DisciplineRest, workouts[0].Discipline)
	assert.Equal(t, "Active Recovery", workouts[0].Name)
	assert.Equal(t, domain.IntensityLow, workouts[0].Intensity)
	assert.Empty(t, workouts[0].Exercises)
	assert.Equal(t, domain.DisciplineStrength, workouts[1].Discipline)
	assert.Equal(t, domain.DisciplineRest, workouts[2].Discipline)
}

func TestAssembleWeekInjuryShrinksPool(t *testing.T) {
	goal := domain.GoalHyroxRace
	a := NewAssembler(assemblyCatalog())

	workouts, _ := a.AssembleWeek(foundationWeek(1), AssembleParams{
		PlanID:      primitive.NewObjectID(),
		UserID:      primitive.NewObjectID(),
		GoalType:    &goal,
		Level:       domain.FitnessIntermediate,
		InjuryParts: []domain.BodyPart{domain.BodyPartKnee},
	})
	require.Len(t, workouts, 3)
	// No exercise in the test catalog is knee-contraindicated, so the pool is
	// unchanged; the point is that injury parts flow through without error.
	for _, w := range workouts {
		assert.NotEmpty(t, w.Exercises)
	}
}

func TestPrescribe(t *testing.T) {
	a := NewAssembler(NewCatalog(nil))

	run := exerciseNamed("Tempo Run", domain.DisciplineRunning, domain.FitnessNovice, domain.PatternLocomotor)
	squat := exerciseNamed("Back Squat", domain.DisciplineStrength, domain.FitnessNovice, domain.PatternSquat)

	t.Run("locomotor work is timed", func(t *testing.T) {
		we := a.Prescribe(&run, domain.IntensityLow)
		assert.Equal(t, run.ID, we.ExerciseID)
		assert.Equal(t, run.Name, we.ExerciseName)
		require.NotNil(t, we.DurationSeconds)
		assert.Equal(t, 300, *we.DurationSeconds)
		assert.Nil(t, we.Sets)
		assert.Nil(t, we.Reps)
		require.NotNil(t, we.RestSeconds)
		assert.Equal(t, 90, *we.RestSeconds)
	})

	t.Run("strength work gets sets and reps", func(t *testing.T) {
		we := a.Prescribe(&squat, domain.IntensityMaximum)
		require.NotNil(t, we.Sets)
		assert.Equal(t, 5, *we.Sets)
		require.NotNil(t, we.Reps)
		assert.Equal(t, 12, *we.Reps)
		assert.Nil(t, we.DurationSeconds)
		require.NotNil(t, we.RestSeconds)
		assert.Equal(t, 45, *we.RestSeconds)
		assert.Contains(t, we.IntensityNote, "RPE")
	})

	t.Run("rest shrinks as intensity rises", func(t *testing.T) {
		low := a.Prescribe(&squat, domain.IntensityLow)
		high := a.Prescribe(&squat, domain.IntensityHigh)
		assert.Greater(t, *low.RestSeconds, *high.RestSeconds)
	})
}

func TestMarkKeyWorkout(t *testing.T) {
	t.Run("highest intensity wins", func(t *testing.T) {
		workouts := []domain.Workout{
			{Intensity: domain.IntensityModerate, ScheduledDate: date(2025, time.June, 2)},
			{Intensity: domain.IntensityHigh, ScheduledDate: date(2025, time.June, 4)},
			{Intensity: domain.IntensityLow, ScheduledDate: date(2025, time.June, 6)},
		}
		MarkKeyWorkout(workouts)
		assert.False(t, workouts[0].IsKeyWorkout)
		assert.True(t, workouts[1].IsKeyWorkout)
		assert.False(t, workouts[2].IsKeyWorkout)
	})

	t.Run("ties break to the latest date", func(t *testing.T) {
		workouts := []domain.Workout{
			{Intensity: domain.IntensityHigh, ScheduledDate: date(2025, time.June, 2)},
			{Intensity: domain.IntensityHigh, ScheduledDate: date(2025, time.June, 6)},
		}
		MarkKeyWorkout(workouts)
		assert.False(t, workouts[0].IsKeyWorkout)
		assert.True(t, workouts[1].IsKeyWorkout)
	})

	t.Run("re-marking keeps exactly one", func(t *testing.T) {
		workouts := []domain.Workout{
			{Intensity: domain.IntensityHigh, IsKeyWorkout: true, ScheduledDate: date(2025, time.June, 2)},
			{Intensity: domain.IntensityMaximum, ScheduledDate: date(2025, time.June, 4)},
		}
		MarkKeyWorkout(workouts)
		count := 0
		for _, w := range workouts {
			if w.IsKeyWorkout {
				count++
			}
		}
		assert.Equal(t, 1, count)
		assert.True(t, workouts[1].IsKeyWorkout)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		MarkKeyWorkout(nil)
	})
}

func TestSelectVariedAvoidsPatternRepeats(t *testing.T) {
	pool := []domain.Exercise{
		exerciseNamed("Front Squat", domain.DisciplineStrength, domain.FitnessNovice, domain.PatternSquat),
		exerciseNamed("Box Squat", domain.DisciplineStrength, domain.FitnessNovice, domain.PatternSquat),
		exerciseNamed("Push Press", domain.DisciplineStrength, domain.FitnessNovice, domain.PatternPush),
	}

	got := selectVaried(pool, 2, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "Front Squat", got[0].Name)
	// The second squat is skipped in favor of a different pattern.
	assert.Equal(t, "Push Press", got[1].Name)
}

func TestSelectVariedOffsetRotatesStart(t *testing.T) {
	pool := []domain.Exercise{
		exerciseNamed("A", domain.DisciplineStrength, domain.FitnessNovice, domain.PatternSquat),
		exerciseNamed("B", domain.DisciplineStrength, domain.FitnessNovice, domain.PatternHinge),
		exerciseNamed("C", domain.DisciplineStrength, domain.FitnessNovice, domain.PatternPush),
	}
	first := selectVaried(pool, 2, 0)
	shifted := selectVaried(pool, 2, 1)
	require.Len(t, shifted, 2)
	assert.NotEqual(t, first[0].Name, shifted[0].Name)
}
