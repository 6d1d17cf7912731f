package engine

import (
	"context"
	"errors"
	"time"

	"forgefit/training-engine/internal/domain"
	"forgefit/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrNoActivePlan     = errors.New("no active training plan for user")
	ErrProfileNotFound  = errors.New("fitness profile not found")
	ErrInjuryNotFound   = errors.New("injury not found or not owned by user")
	ErrInjuryNotActive  = errors.New("injury is not active")
	ErrGoalNotFound     = errors.New("goal not found or not owned by user")
	ErrPastTargetDate   = errors.New("goal target date must be in the future")
	ErrNothingToRevert  = errors.New("plan has no adaptations to revert")
	ErrUnknownTrigger   = errors.New("unknown adaptation trigger")
	ErrWorkoutNotInPlan = errors.New("workout does not belong to the active plan")
)

// IntensityDirection is the requested direction of an intensity change.
type IntensityDirection string

const (
	DirectionHarder IntensityDirection = "harder"
	DirectionEasier IntensityDirection = "easier"
)

// Trigger is the closed set of adaptation triggers. Exactly one variant per
// real-world event; dispatch happens in a single Apply entry point so the
// one-audit-record-per-call invariant is enforced centrally.
type Trigger interface {
	Kind() domain.AdaptationTrigger
}

// MissedWorkoutsTrigger reacts to past workouts the athlete did not do.
type MissedWorkoutsTrigger struct {
	WorkoutIDs []primitive.ObjectID
}

func (MissedWorkoutsTrigger) Kind() domain.AdaptationTrigger { return domain.TriggerMissedWorkouts }

// IntensityChangeTrigger is an explicit "make it harder/easier" request.
type IntensityChangeTrigger struct {
	Direction IntensityDirection
}

func (IntensityChangeTrigger) Kind() domain.AdaptationTrigger { return domain.TriggerIntensityChange }

// ScheduleChangeTrigger supplies a new availability set for the remaining
// weeks. DaysPerWeek of zero keeps the plan's current cadence.
type ScheduleChangeTrigger struct {
	Availability domain.ScheduleAvailability
	DaysPerWeek  int
}

func (ScheduleChangeTrigger) Kind() domain.AdaptationTrigger { return domain.TriggerScheduleChange }

// InjuryTrigger substitutes contraindicated exercises after a new injury.
type InjuryTrigger struct {
	InjuryID primitive.ObjectID
}

func (InjuryTrigger) Kind() domain.AdaptationTrigger { return domain.TriggerInjury }

// GoalTimelineTrigger re-plans the future weeks against a moved goal date.
type GoalTimelineTrigger struct {
	GoalID        primitive.ObjectID
	NewTargetDate time.Time
}

func (GoalTimelineTrigger) Kind() domain.AdaptationTrigger { return domain.TriggerGoalTimelineChange }

// PerceivedDifficultyTrigger scans recent completion notes for a repeated
// "too easy"/"too hard" pattern and applies a short-horizon correction.
type PerceivedDifficultyTrigger struct{}

func (PerceivedDifficultyTrigger) Kind() domain.AdaptationTrigger {
	return domain.TriggerPerceivedDifficulty
}

// AdaptationEngine recomputes the affected portion of an active plan in
// response to a trigger. Stateless between calls; all state lives in the
// plan aggregate and history. Single-writer semantics per plan are the
// caller's responsibility (the plan revision check catches violations).
type AdaptationEngine struct {
	profiles    repository.ProfileRepository
	plans       repository.PlanRepository
	workouts    repository.WorkoutRepository
	exercises   repository.ExerciseRepository
	adaptations repository.AdaptationRepository
	history     repository.CompletionHistoryRepository

	planner *Planner
	logger  *zap.Logger
	now     func() time.Time
}

func NewAdaptationEngine(
	profiles repository.ProfileRepository,
	plans repository.PlanRepository,
	workouts repository.WorkoutRepository,
	exercises repository.ExerciseRepository,
	adaptations repository.AdaptationRepository,
	history repository.CompletionHistoryRepository,
	logger *zap.Logger,
) *AdaptationEngine {
	return &AdaptationEngine{
		profiles:    profiles,
		plans:       plans,
		workouts:    workouts,
		exercises:   exercises,
		adaptations: adaptations,
		history:     history,
		planner:     NewPlanner(),
		logger:      logger,
		now:         time.Now,
	}
}

// adaptationState is the loaded world a handler operates on.
type adaptationState struct {
	profile   *domain.UserProfile
	plan      *domain.TrainingPlan
	workouts  []domain.Workout
	catalog   *Catalog
	assembler *Assembler
	today     time.Time
}

// outcome is what each handler reports back to Apply.
type outcome struct {
	adaptType   domain.AdaptationType
	description string
	affected    int
	success     bool
	warnings    []string
	changes     map[string]interface{}
	planChanged bool
}

func noopOutcome(description, warning string) outcome {
	return outcome{
		adaptType:   domain.AdaptationNoChange,
		description: description,
		success:     false,
		warnings:    []string{warning},
	}
}

// Apply dispatches the trigger to its handler, persists the plan when the
// handler changed it, and writes exactly one immutable audit record for the
// invocation, no-op outcomes included. Precondition failures (unknown ids,
// invalid input) surface as errors with nothing persisted.
func (e *AdaptationEngine) Apply(ctx context.Context, userID primitive.ObjectID, trigger Trigger) (*domain.PlanAdaptationResult, error) {
	profile, err := e.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	plan, err := e.plans.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActivePlan
		}
		return nil, err
	}
	planWorkouts, err := e.workouts.GetByPlanID(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	pool, err := e.exercises.Find(ctx, repository.ExerciseCriteria{})
	if err != nil {
		return nil, err
	}

	catalog := NewCatalog(pool)
	state := &adaptationState{
		profile:   profile,
		plan:      plan,
		workouts:  planWorkouts,
		catalog:   catalog,
		assembler: NewAssembler(catalog),
		today:     startOfDay(e.now()),
	}

	var out outcome
	switch t := trigger.(type) {
	case MissedWorkoutsTrigger:
		out, err = e.handleMissedWorkouts(ctx, state, t)
	case IntensityChangeTrigger:
		out, err = e.handleIntensityChange(ctx, state, t)
	case ScheduleChangeTrigger:
		out, err = e.handleScheduleChange(ctx, state, t)
	case InjuryTrigger:
		out, err = e.handleInjury(ctx, state, t)
	case GoalTimelineTrigger:
		out, err = e.handleGoalTimeline(ctx, state, t)
	case PerceivedDifficultyTrigger:
		out, err = e.handlePerceivedDifficulty(ctx, state, t)
	default:
		return nil, ErrUnknownTrigger
	}
	if err != nil {
		return nil, err
	}

	if out.planChanged {
		if err := e.plans.Update(ctx, state.plan); err != nil {
			return nil, err
		}
	}

	record := &domain.PlanAdaptation{
		PlanID:           plan.ID,
		Trigger:          trigger.Kind(),
		Type:             out.adaptType,
		Description:      out.description,
		Changes:          out.changes,
		WorkoutsAffected: out.affected,
		Success:          out.success,
		Warnings:         out.warnings,
		AppliedAt:        e.now(),
	}
	recordID, err := e.adaptations.Add(ctx, record)
	if err != nil {
		return nil, err
	}

	e.logger.Info("plan adaptation applied",
		zap.String("planId", plan.ID.Hex()),
		zap.String("trigger", string(trigger.Kind())),
		zap.String("type", string(out.adaptType)),
		zap.Int("workoutsAffected", out.affected),
		zap.Bool("success", out.success),
	)

	return &domain.PlanAdaptationResult{
		AdaptationID:     recordID,
		PlanID:           plan.ID,
		Trigger:          trigger.Kind(),
		Type:             out.adaptType,
		Description:      out.description,
		WorkoutsAffected: out.affected,
		AppliedAt:        record.AppliedAt,
		Success:          out.success,
		Warnings:         out.warnings,
	}, nil
}

// RevertLast deletes the most recent adaptation record of the user's active
// plan. Adaptation records are immutable otherwise.
func (e *AdaptationEngine) RevertLast(ctx context.Context, userID primitive.ObjectID) (*domain.PlanAdaptation, error) {
	plan, err := e.plans.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActivePlan
		}
		return nil, err
	}
	record, err := e.adaptations.MostRecentByPlanID(ctx, plan.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNothingToRevert
		}
		return nil, err
	}
	if err := e.adaptations.Delete(ctx, record.ID); err != nil {
		return nil, err
	}
	e.logger.Info("plan adaptation reverted",
		zap.String("planId", plan.ID.Hex()),
		zap.String("adaptationId", record.ID.Hex()),
	)
	return record, nil
}

// futureWorkouts returns the indexes of workouts scheduled on or after today
// that are not completed. Completed workouts are never part of a change set.
func (s *adaptationState) futureWorkouts() []int {
	var idxs []int
	for i := range s.workouts {
		w := &s.workouts[i]
		if w.IsCompleted() {
			continue
		}
		if w.ScheduledDate.Before(s.today) {
			continue
		}
		idxs = append(idxs, i)
	}
	return idxs
}

// activeInjuryParts collects the distinct body parts of the profile's active
// injuries, optionally forcing one extra part in.
func (s *adaptationState) activeInjuryParts(extra *domain.BodyPart) []domain.BodyPart {
	seen := make(map[domain.BodyPart]bool)
	var parts []domain.BodyPart
	for _, inj := range s.profile.ActiveInjuries() {
		if !seen[inj.BodyPart] {
			seen[inj.BodyPart] = true
			parts = append(parts, inj.BodyPart)
		}
	}
	if extra != nil && !seen[*extra] {
		parts = append(parts, *extra)
	}
	return parts
}
