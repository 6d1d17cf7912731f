package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingPhase is the periodization phase of a training week. Phases cycle
// Foundation -> Build -> Peak -> Recovery across the plan.
type TrainingPhase string

const (
	PhaseFoundation TrainingPhase = "foundation"
	PhaseBuild      TrainingPhase = "build"
	PhasePeak       TrainingPhase = "peak"
	PhaseRecovery   TrainingPhase = "recovery"
)

// IntensityLevel is the ordinal training intensity scale.
type IntensityLevel int

const (
	IntensityLow IntensityLevel = iota + 1
	IntensityModerate
	IntensityHigh
	IntensityMaximum
)

func (l IntensityLevel) String() string {
	switch l {
	case IntensityLow:
		return "low"
	case IntensityModerate:
		return "moderate"
	case IntensityHigh:
		return "high"
	case IntensityMaximum:
		return "maximum"
	}
	return "unknown"
}

// Harder returns the next level up, clamped at Maximum.
func (l IntensityLevel) Harder() IntensityLevel {
	if l >= IntensityMaximum {
		return IntensityMaximum
	}
	return l + 1
}

// Easier returns the next level down, clamped at Low.
func (l IntensityLevel) Easier() IntensityLevel {
	if l <= IntensityLow {
		return IntensityLow
	}
	return l - 1
}

// PlanStatus type for plan lifecycle
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusPaused    PlanStatus = "paused"
	PlanStatusCompleted PlanStatus = "completed"
)

// PlanMetadata snapshots the inputs a plan was generated from and accumulates
// a modification history. Written once at generation, appended to afterwards.
type PlanMetadata struct {
	GeneratedAt         time.Time    `bson:"generatedAt" json:"generatedAt"`
	ProfileSnapshot     UserProfile  `bson:"profileSnapshot" json:"profileSnapshot"`
	GoalType            *GoalType    `bson:"goalType,omitempty" json:"goalType,omitempty"`
	OverallFitnessLevel FitnessLevel `bson:"overallFitnessLevel" json:"overallFitnessLevel"`
	Warnings            []string     `bson:"warnings,omitempty" json:"warnings,omitempty"` // e.g., rest placeholders for empty pools
	Modifications       []string     `bson:"modifications,omitempty" json:"modifications,omitempty"`
}

// TrainingWeek is one calendar week of a plan. Weeks are embedded in the plan
// document; their workouts live in their own collection keyed by plan ID and
// week number.
type TrainingWeek struct {
	WeekNumber    int            `bson:"weekNumber" json:"weekNumber"` // 1..TotalWeeks, unique per plan
	Phase         TrainingPhase  `bson:"phase" json:"phase"`
	VolumeMinutes int            `bson:"volumeMinutes" json:"volumeMinutes"`
	Intensity     IntensityLevel `bson:"intensity" json:"intensity"`
	StartDate     time.Time      `bson:"startDate" json:"startDate"`
	EndDate       time.Time      `bson:"endDate" json:"endDate"`
	TrainingDates []time.Time    `bson:"trainingDates" json:"trainingDates"`
}

// Contains reports whether the given date falls inside the week's range.
func (w TrainingWeek) Contains(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(w.StartDate) && !d.After(w.EndDate)
}

// TrainingPlan is the root aggregate produced by plan generation and mutated
// (future portions only) by the adaptation engine.
type TrainingPlan struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"`

	Name                string              `bson:"name" json:"name"`
	StartDate           time.Time           `bson:"startDate" json:"startDate"`
	EndDate             time.Time           `bson:"endDate" json:"endDate"`
	TotalWeeks          int                 `bson:"totalWeeks" json:"totalWeeks"`
	TrainingDaysPerWeek int                 `bson:"trainingDaysPerWeek" json:"trainingDaysPerWeek"`
	GoalID              *primitive.ObjectID `bson:"goalId,omitempty" json:"goalId,omitempty"` // Primary goal driving the horizon

	Status      PlanStatus `bson:"status" json:"status"` // At most one Active plan per user
	CurrentWeek int        `bson:"currentWeek" json:"currentWeek"`
	Deleted     bool       `bson:"deleted" json:"-"` // Soft-delete flag

	// Revision implements the optimistic concurrency check: every engine
	// write filters on the revision it read and increments it.
	Revision int64 `bson:"revision" json:"revision"`

	Weeks    []TrainingWeek `bson:"weeks" json:"weeks"`
	Metadata *PlanMetadata  `bson:"metadata,omitempty" json:"metadata,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// WeekFor returns the week containing the given date, or nil.
func (p *TrainingPlan) WeekFor(date time.Time) *TrainingWeek {
	for i := range p.Weeks {
		if p.Weeks[i].Contains(date) {
			return &p.Weeks[i]
		}
	}
	return nil
}

// Week returns the week with the given number, or nil.
func (p *TrainingPlan) Week(number int) *TrainingWeek {
	for i := range p.Weeks {
		if p.Weeks[i].WeekNumber == number {
			return &p.Weeks[i]
		}
	}
	return nil
}
