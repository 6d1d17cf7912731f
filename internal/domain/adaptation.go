package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdaptationTrigger names the real-world event that caused a plan adaptation.
type AdaptationTrigger string

const (
	TriggerMissedWorkouts      AdaptationTrigger = "missed_workouts"
	TriggerIntensityChange     AdaptationTrigger = "intensity_change"
	TriggerScheduleChange      AdaptationTrigger = "schedule_change"
	TriggerInjury              AdaptationTrigger = "injury"
	TriggerGoalTimelineChange  AdaptationTrigger = "goal_timeline_change"
	TriggerPerceivedDifficulty AdaptationTrigger = "perceived_difficulty"
)

// AdaptationType names the kind of change the engine applied.
type AdaptationType string

const (
	AdaptationIntensityAdjusted    AdaptationType = "intensity_adjusted"
	AdaptationScheduleRebuilt      AdaptationType = "schedule_rebuilt"
	AdaptationExercisesSubstituted AdaptationType = "exercises_substituted"
	AdaptationPlanExtended         AdaptationType = "plan_extended"
	AdaptationTimelineRecomputed   AdaptationType = "timeline_recomputed"
	AdaptationNoChange             AdaptationType = "no_change"
)

// PlanAdaptation is the append-only audit record written on every adaptation
// engine run, including attempted no-ops. Immutable once created; deleting
// the most recent record is the revert primitive.
type PlanAdaptation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID      primitive.ObjectID `bson:"planId" json:"planId"`
	Trigger     AdaptationTrigger  `bson:"trigger" json:"trigger"`
	Type        AdaptationType     `bson:"type" json:"type"`
	Description string             `bson:"description" json:"description"`

	// Changes is a structured payload describing what was modified, keyed by
	// change kind (e.g., "intensityShift", "substitutions").
	Changes map[string]interface{} `bson:"changes,omitempty" json:"changes,omitempty"`

	WorkoutsAffected int       `bson:"workoutsAffected" json:"workoutsAffected"`
	Success          bool      `bson:"success" json:"success"`
	Warnings         []string  `bson:"warnings,omitempty" json:"warnings,omitempty"`
	AppliedAt        time.Time `bson:"appliedAt" json:"appliedAt"`
}

// PlanAdaptationResult is what each adaptation entry point returns to the
// caller.
type PlanAdaptationResult struct {
	AdaptationID     primitive.ObjectID `json:"adaptationId"`
	PlanID           primitive.ObjectID `json:"planId"`
	Trigger          AdaptationTrigger  `json:"trigger"`
	Type             AdaptationType     `json:"type"`
	Description      string             `json:"description"`
	WorkoutsAffected int                `json:"workoutsAffected"`
	AppliedAt        time.Time          `json:"appliedAt"`
	Success          bool               `json:"success"`
	Warnings         []string           `json:"warnings,omitempty"`
}
