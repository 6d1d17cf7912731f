package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalType categorizes what the athlete is training toward. The primary goal
// type biases the discipline rotation during workout assembly.
type GoalType string

const (
	GoalHyroxRace       GoalType = "hyrox_race"
	GoalRunningDistance GoalType = "running_distance"
	GoalStrengthGain    GoalType = "strength_gain"
	GoalGeneralFitness  GoalType = "general_fitness"
	GoalWeightLoss      GoalType = "weight_loss"
)

// GoalStatus type for goal lifecycle
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

// TrainingGoal is something the athlete is working toward. The target date of
// the primary goal drives the plan horizon.
type TrainingGoal struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProfileID   primitive.ObjectID `bson:"profileId" json:"profileId"`
	Type        GoalType           `bson:"type" json:"type"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	TargetDate  *time.Time         `bson:"targetDate,omitempty" json:"targetDate,omitempty"` // Optional; never in the past at creation
	Priority    int                `bson:"priority" json:"priority"`                         // >= 1, lower means more important
	Status      GoalStatus         `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
