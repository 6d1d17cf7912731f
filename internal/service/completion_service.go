package service

import (
	"context"
	"errors"
	"time"

	"forgefit/training-engine/internal/domain"
	"forgefit/training-engine/internal/engine"
	"forgefit/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound     = errors.New("workout not found")
	ErrWorkoutAccessDenied = errors.New("workout does not belong to this user")
	ErrAlreadyCompleted    = errors.New("workout is already completed")
	ErrNotCompleted        = errors.New("workout is not completed")
	ErrNegativeDuration    = errors.New("actual duration must not be negative")
)

// ProgressSummary is the dashboard view of an athlete's progress.
type ProgressSummary struct {
	TotalWorkouts     int                `json:"totalWorkouts"`
	CompletedWorkouts int                `json:"completedWorkouts"`
	SkippedWorkouts   int                `json:"skippedWorkouts"`
	CompletionRate    float64            `json:"completionRate"`
	Streak            *domain.UserStreak `json:"streak"`
	NextMilestone     int                `json:"nextMilestone"`
	DaysUntilNext     int                `json:"daysUntilNextMilestone"`
	MilestoneCrossed  *int               `json:"milestoneCrossed,omitempty"`
}

// --- Service Interface ---
type CompletionService interface {
	StartWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, actualMin int, notes string) (*ProgressSummary, error)
	SkipWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	// UndoCompletion reverts a completion: status back to NotStarted, the
	// history record removed, streak recomputed. History and workout state
	// stay consistent.
	UndoCompletion(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)

	GetProgress(ctx context.Context, userID primitive.ObjectID) (*ProgressSummary, error)
	RecomputeStreak(ctx context.Context, userID primitive.ObjectID) (*domain.UserStreak, error)
}

type completionService struct {
	workoutRepo repository.WorkoutRepository
	planRepo    repository.PlanRepository
	historyRepo repository.CompletionHistoryRepository
	streakRepo  repository.StreakRepository
	profileRepo repository.ProfileRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewCompletionService creates a new instance of completionService.
func NewCompletionService(
	workoutRepo repository.WorkoutRepository,
	planRepo repository.PlanRepository,
	historyRepo repository.CompletionHistoryRepository,
	streakRepo repository.StreakRepository,
	profileRepo repository.ProfileRepository,
	logger *zap.Logger,
) CompletionService {
	return &completionService{
		workoutRepo: workoutRepo,
		planRepo:    planRepo,
		historyRepo: historyRepo,
		streakRepo:  streakRepo,
		profileRepo: profileRepo,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *completionService) StartWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.IsCompleted() {
		return nil, ErrAlreadyCompleted
	}
	workout.Status = domain.StatusInProgress
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, err
	}
	return workout, nil
}

// CompleteWorkout marks the workout done, writes the history record and
// recomputes the streak in the same call path so a read immediately after
// never sees a stale streak.
func (s *completionService) CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, actualMin int, notes string) (*ProgressSummary, error) {
	if actualMin < 0 {
		return nil, ErrNegativeDuration
	}
	workout, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.IsCompleted() {
		return nil, ErrAlreadyCompleted
	}

	streakBefore := 0
	if st, err := s.streakRepo.GetOrCreate(ctx, userID); err == nil {
		streakBefore = st.CurrentDaily
	}

	now := s.now().UTC()
	workout.Status = domain.StatusCompleted
	workout.CompletedAt = &now
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, err
	}

	record := &domain.CompletionHistory{
		UserID:      userID,
		WorkoutID:   workoutID,
		CompletedAt: now,
		ActualMin:   actualMin,
		Notes:       notes,
	}
	if _, err := s.historyRepo.Add(ctx, record); err != nil {
		return nil, err
	}

	streak, err := s.recompute(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary, err := s.buildSummary(ctx, userID, streak)
	if err != nil {
		return nil, err
	}
	if m, crossed := engine.MilestoneCrossed(streakBefore, streak.CurrentDaily); crossed {
		summary.MilestoneCrossed = &m
	}

	s.logger.Info("workout completed",
		zap.String("userId", userID.Hex()),
		zap.String("workoutId", workoutID.Hex()),
		zap.Int("currentStreak", streak.CurrentDaily),
	)
	return summary, nil
}

func (s *completionService) SkipWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.IsCompleted() {
		return nil, ErrAlreadyCompleted
	}
	workout.Status = domain.StatusSkipped
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, err
	}
	return workout, nil
}

func (s *completionService) UndoCompletion(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if !workout.IsCompleted() {
		return nil, ErrNotCompleted
	}

	workout.Status = domain.StatusNotStarted
	workout.CompletedAt = nil
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, err
	}
	if err := s.historyRepo.DeleteByWorkoutID(ctx, workoutID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.recompute(ctx, userID); err != nil {
		return nil, err
	}
	return workout, nil
}

func (s *completionService) GetProgress(ctx context.Context, userID primitive.ObjectID) (*ProgressSummary, error) {
	streak, err := s.streakRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildSummary(ctx, userID, streak)
}

// RecomputeStreak reconciles the stored streak against the distinct
// completion dates. Missing history yields a zeroed streak, not an error.
func (s *completionService) RecomputeStreak(ctx context.Context, userID primitive.ObjectID) (*domain.UserStreak, error) {
	return s.recompute(ctx, userID)
}

func (s *completionService) recompute(ctx context.Context, userID primitive.ObjectID) (*domain.UserStreak, error) {
	dates, err := s.historyRepo.DistinctCompletionDates(ctx, userID)
	if err != nil {
		return nil, err
	}

	minSessions := 1
	if profile, err := s.profileRepo.GetByUserID(ctx, userID); err == nil {
		minSessions = profile.Availability.MinSessionsPerWeek
	}

	stats, err := engine.ComputeStreaks(dates, minSessions, s.now().UTC())
	if err != nil {
		return nil, err
	}

	streak, err := s.streakRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	engine.MergeStreak(streak, stats, s.now().UTC())
	if err := s.streakRepo.Update(ctx, streak); err != nil {
		return nil, err
	}
	return streak, nil
}

func (s *completionService) buildSummary(ctx context.Context, userID primitive.ObjectID, streak *domain.UserStreak) (*ProgressSummary, error) {
	summary := &ProgressSummary{Streak: streak}
	summary.NextMilestone, summary.DaysUntilNext = engine.NextMilestone(streak.CurrentDaily)

	plan, err := s.planRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return summary, nil // No active plan: streak-only summary
		}
		return nil, err
	}
	workouts, err := s.workoutRepo.GetByPlanID(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	summary.TotalWorkouts = len(workouts)
	for _, w := range workouts {
		switch w.Status {
		case domain.StatusCompleted:
			summary.CompletedWorkouts++
		case domain.StatusSkipped:
			summary.SkippedWorkouts++
		}
	}
	if summary.TotalWorkouts > 0 {
		summary.CompletionRate = float64(summary.CompletedWorkouts) / float64(summary.TotalWorkouts)
	}
	return summary, nil
}

func (s *completionService) ownedWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if workout.UserID != userID {
		return nil, ErrWorkoutAccessDenied
	}
	return workout, nil
}
