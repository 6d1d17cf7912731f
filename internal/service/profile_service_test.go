package service

import (
	"context"
	"testing"
	"time"

	"forgefit/training-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newProfileFixture(t *testing.T) (ProfileService, *fakeProfileRepo, primitive.ObjectID) {
	t.Helper()
	repo := newFakeProfileRepo()
	return NewProfileService(repo), repo, primitive.NewObjectID()
}

func validProfile() *domain.UserProfile {
	return &domain.UserProfile{
		HyroxLevel:    domain.FitnessIntermediate,
		RunningLevel:  domain.FitnessBeginner,
		StrengthLevel: domain.FitnessAdvanced,
		Availability: domain.ScheduleAvailability{
			Monday: true, Wednesday: true, Friday: true,
			MinSessionsPerWeek: 2, MaxSessionsPerWeek: 3,
		},
	}
}

func TestCreateProfile(t *testing.T) {
	svc, _, userID := newProfileFixture(t)

	created, err := svc.CreateProfile(context.Background(), userID, validProfile())
	require.NoError(t, err)
	assert.Equal(t, userID, created.UserID)
	assert.False(t, created.ID.IsZero())

	_, err = svc.CreateProfile(context.Background(), userID, validProfile())
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestCreateProfileInvalidAvailability(t *testing.T) {
	svc, _, userID := newProfileFixture(t)

	p := validProfile()
	p.Availability = domain.ScheduleAvailability{MinSessionsPerWeek: 1, MaxSessionsPerWeek: 3}
	_, err := svc.CreateProfile(context.Background(), userID, p)
	assert.ErrorIs(t, err, ErrInvalidAvailability)

	p = validProfile()
	p.Availability.MinSessionsPerWeek = 5
	p.Availability.MaxSessionsPerWeek = 3
	_, err = svc.CreateProfile(context.Background(), userID, p)
	assert.ErrorIs(t, err, ErrInvalidSessionBounds)
}

func TestUpdateFitnessLevelsClamps(t *testing.T) {
	svc, _, userID := newProfileFixture(t)
	_, err := svc.CreateProfile(context.Background(), userID, validProfile())
	require.NoError(t, err)

	got, err := svc.UpdateFitnessLevels(context.Background(), userID, domain.FitnessLevel(99), domain.FitnessLevel(-1), domain.FitnessIntermediate)
	require.NoError(t, err)
	assert.Equal(t, domain.FitnessElite, got.HyroxLevel)
	assert.Equal(t, domain.FitnessBeginner, got.RunningLevel)
	assert.Equal(t, domain.FitnessIntermediate, got.StrengthLevel)
}

func TestAddGoal(t *testing.T) {
	svc, _, userID := newProfileFixture(t)
	_, err := svc.CreateProfile(context.Background(), userID, validProfile())
	require.NoError(t, err)

	target := time.Now().UTC().AddDate(0, 3, 0)
	goal, err := svc.AddGoal(context.Background(), userID, domain.GoalHyroxRace, "first race", &target, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusActive, goal.Status)
	assert.Equal(t, 1, goal.Priority, "priority floor is 1")
	require.NotNil(t, goal.TargetDate)
}

func TestAddGoalPastTargetDate(t *testing.T) {
	svc, _, userID := newProfileFixture(t)
	_, err := svc.CreateProfile(context.Background(), userID, validProfile())
	require.NoError(t, err)

	past := time.Now().UTC().AddDate(0, 0, -10)
	_, err = svc.AddGoal(context.Background(), userID, domain.GoalWeightLoss, "", &past, 1)
	assert.ErrorIs(t, err, ErrTargetDateInPast)
}

func TestSetGoalStatusOwnership(t *testing.T) {
	svc, repo, userID := newProfileFixture(t)
	_, err := svc.CreateProfile(context.Background(), userID, validProfile())
	require.NoError(t, err)

	goal, err := svc.AddGoal(context.Background(), userID, domain.GoalStrengthGain, "", nil, 2)
	require.NoError(t, err)

	got, err := svc.SetGoalStatus(context.Background(), userID, goal.ID, domain.GoalStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusCompleted, got.Status)

	// A goal belonging to someone else's profile is off limits.
	otherUser := primitive.NewObjectID()
	_, err = svc.CreateProfile(context.Background(), otherUser, validProfile())
	require.NoError(t, err)
	_, err = svc.SetGoalStatus(context.Background(), otherUser, goal.ID, domain.GoalStatusAbandoned)
	assert.ErrorIs(t, err, ErrGoalAccessDenied)

	_, err = svc.SetGoalStatus(context.Background(), userID, primitive.NewObjectID(), domain.GoalStatusAbandoned)
	assert.ErrorIs(t, err, ErrGoalNotFound)
	_ = repo
}

func TestReportAndResolveInjury(t *testing.T) {
	svc, _, userID := newProfileFixture(t)
	_, err := svc.CreateProfile(context.Background(), userID, validProfile())
	require.NoError(t, err)

	injury, err := svc.ReportInjury(context.Background(), userID, domain.BodyPartKnee, domain.InjuryChronic, "no deep flexion")
	require.NoError(t, err)
	assert.Equal(t, domain.InjuryStatusActive, injury.Status)
	assert.Nil(t, injury.ResolvedAt)

	resolved, err := svc.ResolveInjury(context.Background(), userID, injury.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InjuryStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = svc.ResolveInjury(context.Background(), userID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrInjuryNotFound)
}
