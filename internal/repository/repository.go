package repository

import (
	"context"
	"time"

	"forgefit/training-engine/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("conflict") // Revision mismatch on a versioned update
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ProfileRepository defines the interface for fitness profiles. Get methods
// return the profile with goals and injuries eagerly loaded.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.UserProfile) (primitive.ObjectID, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error)
	Update(ctx context.Context, profile *domain.UserProfile) error

	AddGoal(ctx context.Context, goal *domain.TrainingGoal) (primitive.ObjectID, error)
	GetGoalByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingGoal, error)
	UpdateGoal(ctx context.Context, goal *domain.TrainingGoal) error

	AddInjury(ctx context.Context, injury *domain.InjuryLimitation) (primitive.ObjectID, error)
	GetInjuryByID(ctx context.Context, id primitive.ObjectID) (*domain.InjuryLimitation, error)
	UpdateInjury(ctx context.Context, injury *domain.InjuryLimitation) error
}

// ExerciseCriteria narrows exercise catalog queries. Nil fields match all.
type ExerciseCriteria struct {
	Discipline  *domain.Discipline
	Difficulty  *domain.FitnessLevel
	SessionType *domain.SessionType
}

// ExerciseRepository defines the interface for the exercise catalog,
// including contraindications and progression-graph edges (stored on the
// exercise documents themselves).
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	Find(ctx context.Context, criteria ExerciseCriteria) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PlanRepository defines the interface for training plans. Soft-deleted
// plans are excluded from every read.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error)
	GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error)
	ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingPlan, error)
	// Update persists the plan only if the stored revision still matches
	// plan.Revision, then increments it. Returns ErrConflict on mismatch.
	Update(ctx context.Context, plan *domain.TrainingPlan) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status domain.PlanStatus) error
	SoftDelete(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error
}

// WorkoutRepository defines the interface for scheduled workouts.
type WorkoutRepository interface {
	CreateMany(ctx context.Context, workouts []domain.Workout) ([]primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.Workout, error)
	GetByPlanAndWeek(ctx context.Context, planID primitive.ObjectID, weekNumber int) ([]domain.Workout, error)
	Update(ctx context.Context, workout *domain.Workout) error
	// DeleteFutureByPlanID removes not-completed workouts scheduled on or
	// after the given date; completed workouts are never deleted.
	DeleteFutureByPlanID(ctx context.Context, planID primitive.ObjectID, from time.Time) (int64, error)
}

// AdaptationRepository defines the interface for the append-only adaptation
// audit trail.
type AdaptationRepository interface {
	Add(ctx context.Context, adaptation *domain.PlanAdaptation) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanAdaptation, error)
	ListByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanAdaptation, error)
	MostRecentByPlanID(ctx context.Context, planID primitive.ObjectID) (*domain.PlanAdaptation, error)
	Delete(ctx context.Context, id primitive.ObjectID) error // Revert primitive only
}

// CompletionHistoryRepository defines the interface for workout completion
// events.
type CompletionHistoryRepository interface {
	Add(ctx context.Context, record *domain.CompletionHistory) (primitive.ObjectID, error)
	GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) (*domain.CompletionHistory, error)
	ListByUserID(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.CompletionHistory, error)
	// DistinctCompletionDates returns the distinct calendar days (UTC,
	// midnight-truncated) on which the user completed at least one workout,
	// sorted ascending.
	DistinctCompletionDates(ctx context.Context, userID primitive.ObjectID) ([]time.Time, error)
	DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) error
}

// StreakRepository defines the interface for per-user streak state.
type StreakRepository interface {
	GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*domain.UserStreak, error)
	Update(ctx context.Context, streak *domain.UserStreak) error
}
