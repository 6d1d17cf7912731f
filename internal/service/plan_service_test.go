package service

import (
	"context"
	"testing"
	"time"

	"forgefit/training-engine/internal/domain"
	"forgefit/training-engine/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testHorizonWeeks = 8

type planFixture struct {
	svc       PlanService
	profiles  *fakeProfileRepo
	plans     *fakePlanRepo
	workouts  *fakeWorkoutRepo
	exercises *fakeExerciseRepo
	adapts    *fakeAdaptationRepo
	history   *fakeHistoryRepo
	userID    primitive.ObjectID
	goalID    primitive.ObjectID
}

// newPlanFixture wires the plan service against in-memory repositories for an
// intermediate athlete training Monday, Wednesday and Friday toward a HYROX
// race with no fixed date.
func newPlanFixture(t *testing.T) *planFixture {
	t.Helper()

	f := &planFixture{
		profiles:  newFakeProfileRepo(),
		plans:     newFakePlanRepo(),
		workouts:  newFakeWorkoutRepo(),
		exercises: &fakeExerciseRepo{},
		adapts:    &fakeAdaptationRepo{},
		history:   &fakeHistoryRepo{},
		userID:    primitive.NewObjectID(),
	}

	ctx := context.Background()
	for _, ex := range []domain.Exercise{
		{Name: "Wall Ball", Discipline: domain.DisciplineHyrox, Difficulty: domain.FitnessIntermediate, PrimaryPattern: domain.PatternSquat},
		{Name: "Sled Push", Discipline: domain.DisciplineHyrox, Difficulty: domain.FitnessIntermediate, PrimaryPattern: domain.PatternLocomotor},
		{Name: "Tempo Run", Discipline: domain.DisciplineRunning, Difficulty: domain.FitnessIntermediate, PrimaryPattern: domain.PatternLocomotor},
		{Name: "Burpee Broad Jump", Discipline: domain.DisciplineHybrid, Difficulty: domain.FitnessIntermediate, PrimaryPattern: domain.PatternHinge},
		{Name: "Back Squat", Discipline: domain.DisciplineStrength, Difficulty: domain.FitnessIntermediate, PrimaryPattern: domain.PatternSquat},
	} {
		ex := ex
		_, err := f.exercises.Create(ctx, &ex)
		require.NoError(t, err)
	}

	f.goalID = primitive.NewObjectID()
	_, err := f.profiles.Create(ctx, &domain.UserProfile{
		UserID:        f.userID,
		HyroxLevel:    domain.FitnessIntermediate,
		RunningLevel:  domain.FitnessIntermediate,
		StrengthLevel: domain.FitnessIntermediate,
		Availability: domain.ScheduleAvailability{
			Monday: true, Wednesday: true, Friday: true,
			MinSessionsPerWeek: 2, MaxSessionsPerWeek: 3,
		},
		Goals: []domain.TrainingGoal{{
			ID:       f.goalID,
			Type:     domain.GoalHyroxRace,
			Status:   domain.GoalStatusActive,
			Priority: 1,
		}},
	})
	require.NoError(t, err)

	eng := engine.NewAdaptationEngine(f.profiles, f.plans, f.workouts, f.exercises, f.adapts, f.history, zap.NewNop())
	f.svc = NewPlanService(f.profiles, f.plans, f.workouts, f.exercises, f.adapts, eng, testHorizonWeeks, zap.NewNop())
	return f
}

func TestGeneratePlan(t *testing.T) {
	f := newPlanFixture(t)

	plan, err := f.svc.GeneratePlan(context.Background(), f.userID)
	require.NoError(t, err)

	// No target date on the goal, so the default horizon applies.
	assert.Equal(t, testHorizonWeeks, plan.TotalWeeks)
	assert.Equal(t, 3, plan.TrainingDaysPerWeek)
	assert.Equal(t, domain.PlanStatusActive, plan.Status)
	assert.Equal(t, 1, plan.CurrentWeek)
	assert.Equal(t, "HYROX Race Prep", plan.Name)
	require.NotNil(t, plan.GoalID)
	assert.Equal(t, f.goalID, *plan.GoalID)

	assert.Equal(t, time.Monday, plan.StartDate.Weekday())
	assert.True(t, plan.StartDate.After(time.Now().UTC()), "plan starts next week")
	require.Len(t, plan.Weeks, testHorizonWeeks)

	require.NotNil(t, plan.Metadata)
	require.NotNil(t, plan.Metadata.GoalType)
	assert.Equal(t, domain.GoalHyroxRace, *plan.Metadata.GoalType)
	assert.Equal(t, domain.FitnessIntermediate, plan.Metadata.OverallFitnessLevel)

	workouts, err := f.workouts.GetByPlanID(context.Background(), plan.ID)
	require.NoError(t, err)
	require.Len(t, workouts, testHorizonWeeks*3)
	for _, w := range workouts {
		assert.Equal(t, plan.ID, w.PlanID)
		assert.Equal(t, f.userID, w.UserID)
		assert.False(t, w.ScheduledDate.Before(plan.StartDate))
		assert.False(t, w.ScheduledDate.After(plan.EndDate))
	}
}

func TestGeneratePlanActiveExists(t *testing.T) {
	f := newPlanFixture(t)

	_, err := f.svc.GeneratePlan(context.Background(), f.userID)
	require.NoError(t, err)

	_, err = f.svc.GeneratePlan(context.Background(), f.userID)
	assert.ErrorIs(t, err, ErrActivePlanExists)
}

func TestGeneratePlanNoProfile(t *testing.T) {
	f := newPlanFixture(t)

	_, err := f.svc.GeneratePlan(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestGeneratePlanInsufficientAvailability(t *testing.T) {
	f := newPlanFixture(t)
	profile, err := f.profiles.GetByUserID(context.Background(), f.userID)
	require.NoError(t, err)
	// Three selected days can never satisfy a four-session floor.
	profile.Availability.MinSessionsPerWeek = 4
	profile.Availability.MaxSessionsPerWeek = 4

	_, err = f.svc.GeneratePlan(context.Background(), f.userID)
	assert.ErrorIs(t, err, engine.ErrInsufficientAvailability)
}

func TestRegeneratePlan(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	old, err := f.svc.GeneratePlan(ctx, f.userID)
	require.NoError(t, err)

	fresh, err := f.svc.RegeneratePlan(ctx, f.userID, &RegenerateOptions{Name: "Spring Rebuild", TotalWeeks: 4})
	require.NoError(t, err)

	assert.Equal(t, "Spring Rebuild", fresh.Name)
	assert.Equal(t, 4, fresh.TotalWeeks)
	assert.NotEqual(t, old.ID, fresh.ID)

	retired, err := f.plans.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusCompleted, retired.Status)

	workouts, err := f.workouts.GetByPlanID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Len(t, workouts, 4*3)
}

func TestValidatePlanParameters(t *testing.T) {
	f := newPlanFixture(t)

	assert.False(t, f.svc.ValidatePlanParameters(nil))

	profile, err := f.profiles.GetByUserID(context.Background(), f.userID)
	require.NoError(t, err)
	assert.True(t, f.svc.ValidatePlanParameters(profile))

	noDays := *profile
	noDays.Availability = domain.ScheduleAvailability{MinSessionsPerWeek: 1, MaxSessionsPerWeek: 3}
	assert.False(t, f.svc.ValidatePlanParameters(&noDays))
}

func TestPauseAndResumePlan(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	plan, err := f.svc.GeneratePlan(ctx, f.userID)
	require.NoError(t, err)

	require.NoError(t, f.svc.PausePlan(ctx, f.userID, plan.ID))
	_, err = f.svc.GetActivePlan(ctx, f.userID)
	assert.ErrorIs(t, err, ErrNoActivePlan)

	require.NoError(t, f.svc.ResumePlan(ctx, f.userID, plan.ID))
	active, err := f.svc.GetActivePlan(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, active.ID)

	// Resuming an already-active plan is idempotent.
	require.NoError(t, f.svc.ResumePlan(ctx, f.userID, plan.ID))
}

func TestResumePlanBlockedByOtherActive(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	first, err := f.svc.GeneratePlan(ctx, f.userID)
	require.NoError(t, err)
	require.NoError(t, f.svc.PausePlan(ctx, f.userID, first.ID))

	_, err = f.svc.GeneratePlan(ctx, f.userID)
	require.NoError(t, err)

	err = f.svc.ResumePlan(ctx, f.userID, first.ID)
	assert.ErrorIs(t, err, ErrActivePlanExists)
}

func TestSoftDeletePlan(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	plan, err := f.svc.GeneratePlan(ctx, f.userID)
	require.NoError(t, err)

	err = f.svc.SoftDeletePlan(ctx, primitive.NewObjectID(), plan.ID)
	assert.ErrorIs(t, err, ErrPlanAccessDenied)

	require.NoError(t, f.svc.SoftDeletePlan(ctx, f.userID, plan.ID))
	_, err = f.svc.GetPlanWithWorkouts(ctx, f.userID, plan.ID)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestGetPlanWithWorkouts(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	plan, err := f.svc.GeneratePlan(ctx, f.userID)
	require.NoError(t, err)

	got, err := f.svc.GetPlanWithWorkouts(ctx, f.userID, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.Plan.ID)
	assert.Len(t, got.Workouts, testHorizonWeeks*3)
}

func TestAdaptIntensityThroughService(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	plan, err := f.svc.GeneratePlan(ctx, f.userID)
	require.NoError(t, err)

	result, err := f.svc.AdaptIntensity(ctx, f.userID, engine.DirectionHarder)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.AdaptationIntensityAdjusted, result.Type)
	assert.Positive(t, result.WorkoutsAffected)

	list, err := f.svc.ListAdaptations(ctx, f.userID, plan.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.TriggerIntensityChange, list[0].Trigger)
}

func TestAdaptSchedulePlanConflict(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	_, err := f.svc.GeneratePlan(ctx, f.userID)
	require.NoError(t, err)

	f.plans.conflictOnUpdate = true
	_, err = f.svc.AdaptSchedule(ctx, f.userID, domain.ScheduleAvailability{
		Tuesday: true, Thursday: true, Saturday: true,
		MinSessionsPerWeek: 2, MaxSessionsPerWeek: 3,
	}, 3)
	assert.ErrorIs(t, err, ErrPlanConflict)
}

func TestListAdaptationsOwnership(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	plan, err := f.svc.GeneratePlan(ctx, f.userID)
	require.NoError(t, err)

	_, err = f.svc.ListAdaptations(ctx, primitive.NewObjectID(), plan.ID)
	assert.ErrorIs(t, err, ErrPlanAccessDenied)
}

func TestRevertLastAdaptationThroughService(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	plan, err := f.svc.GeneratePlan(ctx, f.userID)
	require.NoError(t, err)

	_, err = f.svc.AdaptIntensity(ctx, f.userID, engine.DirectionHarder)
	require.NoError(t, err)

	reverted, err := f.svc.RevertLastAdaptation(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, domain.TriggerIntensityChange, reverted.Trigger)

	list, err := f.svc.ListAdaptations(ctx, f.userID, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
