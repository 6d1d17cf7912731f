package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompletionHistory is one record per workout completion event. Undoing a
// completion removes the corresponding record so workout status and history
// stay consistent.
type CompletionHistory struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	WorkoutID   primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	CompletedAt time.Time          `bson:"completedAt" json:"completedAt"`
	ActualMin   int                `bson:"actualMin,omitempty" json:"actualMin,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// UserStreak tracks per-user completion streaks. Mutated only by the streak
// calculator, synchronously with every completion-history write.
type UserStreak struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"` // Unique

	CurrentDaily  int `bson:"currentDaily" json:"currentDaily"`
	LongestDaily  int `bson:"longestDaily" json:"longestDaily"` // High-water mark, never decreases
	CurrentWeekly int `bson:"currentWeekly" json:"currentWeekly"`
	LongestWeekly int `bson:"longestWeekly" json:"longestWeekly"`

	LastWorkoutDate *time.Time `bson:"lastWorkoutDate,omitempty" json:"lastWorkoutDate,omitempty"`
	UpdatedAt       time.Time  `bson:"updatedAt" json:"updatedAt"`
}
