package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"forgefit/training-engine/internal/domain"
	"forgefit/training-engine/internal/engine"
	"forgefit/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound     = errors.New("training plan not found")
	ErrPlanAccessDenied = errors.New("training plan does not belong to this user")
	ErrActivePlanExists = errors.New("user already has an active training plan")
	ErrNoActivePlan     = errors.New("user has no active training plan")
	// ErrPlanConflict signals a concurrent modification; the caller may retry.
	ErrPlanConflict = errors.New("plan was modified concurrently, retry the operation")
)

// RegenerateOptions are the optional overrides for a plan regeneration.
type RegenerateOptions struct {
	Name       string
	TotalWeeks int
}

// PlanWithWorkouts bundles a plan and its scheduled workouts.
type PlanWithWorkouts struct {
	Plan     *domain.TrainingPlan `json:"plan"`
	Workouts []domain.Workout     `json:"workouts"`
}

// --- Service Interface ---
type PlanService interface {
	GeneratePlan(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error)
	RegeneratePlan(ctx context.Context, userID primitive.ObjectID, opts *RegenerateOptions) (*domain.TrainingPlan, error)
	ValidatePlanParameters(profile *domain.UserProfile) bool

	GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error)
	GetPlanWithWorkouts(ctx context.Context, userID, planID primitive.ObjectID) (*PlanWithWorkouts, error)
	ListPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingPlan, error)
	PausePlan(ctx context.Context, userID, planID primitive.ObjectID) error
	ResumePlan(ctx context.Context, userID, planID primitive.ObjectID) error
	SoftDeletePlan(ctx context.Context, userID, planID primitive.ObjectID) error

	// Adaptation entry points, one per trigger.
	AdaptForMissedWorkouts(ctx context.Context, userID primitive.ObjectID, workoutIDs []primitive.ObjectID) (*domain.PlanAdaptationResult, error)
	AdaptIntensity(ctx context.Context, userID primitive.ObjectID, direction engine.IntensityDirection) (*domain.PlanAdaptationResult, error)
	AdaptSchedule(ctx context.Context, userID primitive.ObjectID, availability domain.ScheduleAvailability, daysPerWeek int) (*domain.PlanAdaptationResult, error)
	AdaptForInjury(ctx context.Context, userID, injuryID primitive.ObjectID) (*domain.PlanAdaptationResult, error)
	AdaptGoalTimeline(ctx context.Context, userID, goalID primitive.ObjectID, newTargetDate time.Time) (*domain.PlanAdaptationResult, error)
	AdaptPerceivedDifficulty(ctx context.Context, userID primitive.ObjectID) (*domain.PlanAdaptationResult, error)

	ListAdaptations(ctx context.Context, userID, planID primitive.ObjectID) ([]domain.PlanAdaptation, error)
	RevertLastAdaptation(ctx context.Context, userID primitive.ObjectID) (*domain.PlanAdaptation, error)
}

type planService struct {
	profileRepo  repository.ProfileRepository
	planRepo     repository.PlanRepository
	workoutRepo  repository.WorkoutRepository
	exerciseRepo repository.ExerciseRepository
	adaptRepo    repository.AdaptationRepository

	planner    *engine.Planner
	adaptation *engine.AdaptationEngine

	defaultHorizonWeeks int
	logger              *zap.Logger
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	profileRepo repository.ProfileRepository,
	planRepo repository.PlanRepository,
	workoutRepo repository.WorkoutRepository,
	exerciseRepo repository.ExerciseRepository,
	adaptRepo repository.AdaptationRepository,
	adaptation *engine.AdaptationEngine,
	defaultHorizonWeeks int,
	logger *zap.Logger,
) PlanService {
	if defaultHorizonWeeks < 1 {
		defaultHorizonWeeks = 12
	}
	return &planService{
		profileRepo:         profileRepo,
		planRepo:            planRepo,
		workoutRepo:         workoutRepo,
		exerciseRepo:        exerciseRepo,
		adaptRepo:           adaptRepo,
		planner:             engine.NewPlanner(),
		adaptation:          adaptation,
		defaultHorizonWeeks: defaultHorizonWeeks,
		logger:              logger,
	}
}

// planParamsFor derives the normalized planner input from a profile. The
// sessions-per-week count honors the profile's min/max bounds and can never
// exceed the number of selected days.
func (s *planService) planParamsFor(profile *domain.UserProfile, startDate time.Time, weeksOverride int) (engine.PlanParams, error) {
	days := profile.Availability.SelectedDays()
	daysPerWeek := profile.Availability.MaxSessionsPerWeek
	if daysPerWeek > len(days) {
		daysPerWeek = len(days)
	}
	if daysPerWeek < profile.Availability.MinSessionsPerWeek || daysPerWeek < 1 {
		return engine.PlanParams{}, engine.ErrInsufficientAvailability
	}

	totalWeeks := s.defaultHorizonWeeks
	goal := profile.PrimaryGoal()
	var goalType *domain.GoalType
	if goal != nil {
		t := goal.Type
		goalType = &t
		if goal.TargetDate != nil {
			if w := weeksUntil(startDate, *goal.TargetDate); w >= 1 {
				totalWeeks = w
			}
		}
	}
	if weeksOverride > 0 {
		totalWeeks = weeksOverride
	}

	return engine.PlanParams{
		Level:       profile.OverallLevel(),
		Days:        days,
		DaysPerWeek: daysPerWeek,
		TotalWeeks:  totalWeeks,
		StartDate:   startDate,
		GoalType:    goalType,
	}, nil
}

// GeneratePlan builds a full plan for the user: skeleton from the planner,
// workouts from the assembler, one Active plan per user enforced here.
func (s *planService) GeneratePlan(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error) {
	return s.generate(ctx, userID, nil)
}

func (s *planService) generate(ctx context.Context, userID primitive.ObjectID, opts *RegenerateOptions) (*domain.TrainingPlan, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	// One Active plan per user: check-then-act, the storage layer has no
	// filtered uniqueness constraint to fall back on.
	if _, err := s.planRepo.GetActiveByUserID(ctx, userID); err == nil {
		return nil, ErrActivePlanExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	startDate := engine.NextWeekStart(time.Now().UTC())
	weeksOverride := 0
	if opts != nil {
		weeksOverride = opts.TotalWeeks
	}
	params, err := s.planParamsFor(profile, startDate, weeksOverride)
	if err != nil {
		return nil, err
	}

	weeks, err := s.planner.Skeleton(params)
	if err != nil {
		return nil, err
	}

	pool, err := s.exerciseRepo.Find(ctx, repository.ExerciseCriteria{})
	if err != nil {
		return nil, err
	}
	assembler := engine.NewAssembler(engine.NewCatalog(pool))

	assembleParams := engine.AssembleParams{
		UserID:      userID,
		GoalType:    params.GoalType,
		Level:       params.Level,
		InjuryParts: injuryParts(profile),
	}
	var workouts []domain.Workout
	var warnings []string
	for _, wk := range weeks {
		weekWorkouts, w := assembler.AssembleWeek(wk, assembleParams)
		workouts = append(workouts, weekWorkouts...)
		warnings = append(warnings, w...)
	}

	goal := profile.PrimaryGoal()
	plan := &domain.TrainingPlan{
		UserID:              userID,
		Name:                planName(opts, params.GoalType),
		StartDate:           weeks[0].StartDate,
		EndDate:             weeks[len(weeks)-1].EndDate,
		TotalWeeks:          params.TotalWeeks,
		TrainingDaysPerWeek: params.DaysPerWeek,
		Status:              domain.PlanStatusActive,
		CurrentWeek:         1,
		Weeks:               weeks,
		Metadata: &domain.PlanMetadata{
			GeneratedAt:         time.Now().UTC(),
			ProfileSnapshot:     *profile,
			GoalType:            params.GoalType,
			OverallFitnessLevel: params.Level,
			Warnings:            warnings,
		},
	}
	if goal != nil {
		plan.GoalID = &goal.ID
	}

	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID

	for i := range workouts {
		workouts[i].PlanID = planID
	}
	if _, err := s.workoutRepo.CreateMany(ctx, workouts); err != nil {
		return nil, err
	}

	s.logger.Info("training plan generated",
		zap.String("userId", userID.Hex()),
		zap.String("planId", planID.Hex()),
		zap.Int("totalWeeks", plan.TotalWeeks),
		zap.Int("workouts", len(workouts)),
		zap.Int("warnings", len(warnings)),
	)
	return plan, nil
}

// RegeneratePlan retires the current active plan (history preserved) and
// generates a fresh one from the current profile.
func (s *planService) RegeneratePlan(ctx context.Context, userID primitive.ObjectID, opts *RegenerateOptions) (*domain.TrainingPlan, error) {
	current, err := s.planRepo.GetActiveByUserID(ctx, userID)
	if err == nil {
		if err := s.planRepo.SetStatus(ctx, current.ID, domain.PlanStatusCompleted); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.generate(ctx, userID, opts)
}

// ValidatePlanParameters reports whether a plan can be generated from the
// profile. Pure; calling it twice yields the same answer.
func (s *planService) ValidatePlanParameters(profile *domain.UserProfile) bool {
	if profile == nil {
		return false
	}
	params, err := s.planParamsFor(profile, engine.NextWeekStart(time.Now().UTC()), 0)
	if err != nil {
		return false
	}
	return s.planner.Validate(params) == nil
}

func (s *planService) GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error) {
	plan, err := s.planRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActivePlan
		}
		return nil, err
	}
	return plan, nil
}

func (s *planService) GetPlanWithWorkouts(ctx context.Context, userID, planID primitive.ObjectID) (*PlanWithWorkouts, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	workouts, err := s.workoutRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	return &PlanWithWorkouts{Plan: plan, Workouts: workouts}, nil
}

func (s *planService) ListPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingPlan, error) {
	return s.planRepo.ListByUserID(ctx, userID)
}

func (s *planService) PausePlan(ctx context.Context, userID, planID primitive.ObjectID) error {
	if _, err := s.ownedPlan(ctx, userID, planID); err != nil {
		return err
	}
	return s.planRepo.SetStatus(ctx, planID, domain.PlanStatusPaused)
}

// ResumePlan reactivates a paused plan, re-checking the one-active invariant.
func (s *planService) ResumePlan(ctx context.Context, userID, planID primitive.ObjectID) error {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return err
	}
	if plan.Status == domain.PlanStatusActive {
		return nil
	}
	if active, err := s.planRepo.GetActiveByUserID(ctx, userID); err == nil && active.ID != planID {
		return ErrActivePlanExists
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return s.planRepo.SetStatus(ctx, planID, domain.PlanStatusActive)
}

func (s *planService) SoftDeletePlan(ctx context.Context, userID, planID primitive.ObjectID) error {
	if _, err := s.ownedPlan(ctx, userID, planID); err != nil {
		return err
	}
	return s.planRepo.SoftDelete(ctx, planID, userID)
}

// --- Adaptation entry points ---

func (s *planService) AdaptForMissedWorkouts(ctx context.Context, userID primitive.ObjectID, workoutIDs []primitive.ObjectID) (*domain.PlanAdaptationResult, error) {
	return s.apply(ctx, userID, engine.MissedWorkoutsTrigger{WorkoutIDs: workoutIDs})
}

func (s *planService) AdaptIntensity(ctx context.Context, userID primitive.ObjectID, direction engine.IntensityDirection) (*domain.PlanAdaptationResult, error) {
	return s.apply(ctx, userID, engine.IntensityChangeTrigger{Direction: direction})
}

// AdaptSchedule updates the profile's availability, then rebuilds the
// remaining weeks of the active plan on the new day set.
func (s *planService) AdaptSchedule(ctx context.Context, userID primitive.ObjectID, availability domain.ScheduleAvailability, daysPerWeek int) (*domain.PlanAdaptationResult, error) {
	if err := validateAvailability(availability); err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	profile.Availability = availability
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return s.apply(ctx, userID, engine.ScheduleChangeTrigger{Availability: availability, DaysPerWeek: daysPerWeek})
}

func (s *planService) AdaptForInjury(ctx context.Context, userID, injuryID primitive.ObjectID) (*domain.PlanAdaptationResult, error) {
	return s.apply(ctx, userID, engine.InjuryTrigger{InjuryID: injuryID})
}

func (s *planService) AdaptGoalTimeline(ctx context.Context, userID, goalID primitive.ObjectID, newTargetDate time.Time) (*domain.PlanAdaptationResult, error) {
	return s.apply(ctx, userID, engine.GoalTimelineTrigger{GoalID: goalID, NewTargetDate: newTargetDate})
}

func (s *planService) AdaptPerceivedDifficulty(ctx context.Context, userID primitive.ObjectID) (*domain.PlanAdaptationResult, error) {
	return s.apply(ctx, userID, engine.PerceivedDifficultyTrigger{})
}

func (s *planService) apply(ctx context.Context, userID primitive.ObjectID, trigger engine.Trigger) (*domain.PlanAdaptationResult, error) {
	result, err := s.adaptation.Apply(ctx, userID, trigger)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrPlanConflict
		}
		return nil, err
	}
	return result, nil
}

func (s *planService) ListAdaptations(ctx context.Context, userID, planID primitive.ObjectID) ([]domain.PlanAdaptation, error) {
	if _, err := s.ownedPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	return s.adaptRepo.ListByPlanID(ctx, planID)
}

func (s *planService) RevertLastAdaptation(ctx context.Context, userID primitive.ObjectID) (*domain.PlanAdaptation, error) {
	return s.adaptation.RevertLast(ctx, userID)
}

// --- helpers ---

func (s *planService) ownedPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.TrainingPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.UserID != userID {
		return nil, ErrPlanAccessDenied
	}
	return plan, nil
}

func injuryParts(profile *domain.UserProfile) []domain.BodyPart {
	seen := make(map[domain.BodyPart]bool)
	var parts []domain.BodyPart
	for _, inj := range profile.ActiveInjuries() {
		if !seen[inj.BodyPart] {
			seen[inj.BodyPart] = true
			parts = append(parts, inj.BodyPart)
		}
	}
	return parts
}

func planName(opts *RegenerateOptions, goalType *domain.GoalType) string {
	if opts != nil && opts.Name != "" {
		return opts.Name
	}
	if goalType != nil {
		switch *goalType {
		case domain.GoalHyroxRace:
			return "HYROX Race Prep"
		case domain.GoalRunningDistance:
			return "Distance Running Block"
		case domain.GoalStrengthGain:
			return "Strength Block"
		case domain.GoalWeightLoss:
			return "Conditioning Block"
		}
	}
	return fmt.Sprintf("Training Block %s", time.Now().UTC().Format("Jan 2006"))
}

// weeksUntil counts whole weeks from start to target, rounding up.
func weeksUntil(start, target time.Time) int {
	days := int(target.Sub(start).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return (days + 6) / 7
}
