package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionType describes the flavor of a workout within its discipline.
type SessionType string

const (
	SessionIntervals      SessionType = "intervals"
	SessionTempo          SessionType = "tempo"
	SessionLongRun        SessionType = "long_run"
	SessionEasyRun        SessionType = "easy_run"
	SessionStrengthFull   SessionType = "strength_full"
	SessionStrengthUpper  SessionType = "strength_upper"
	SessionStrengthLower  SessionType = "strength_lower"
	SessionHyroxStations  SessionType = "hyrox_stations"
	SessionRaceSimulation SessionType = "race_simulation"
	SessionCircuit        SessionType = "circuit"
	SessionRecovery       SessionType = "recovery"
)

// CompletionStatus type for workout lifecycle
type CompletionStatus string

const (
	StatusNotStarted CompletionStatus = "not_started"
	StatusInProgress CompletionStatus = "in_progress"
	StatusCompleted  CompletionStatus = "completed"
	StatusSkipped    CompletionStatus = "skipped"
)

// WorkoutExercise is one prescribed exercise slot within a workout. Sets,
// reps, duration and rest are each optional depending on the exercise type.
type WorkoutExercise struct {
	ExerciseID      primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	ExerciseName    string             `bson:"exerciseName" json:"exerciseName"` // Denormalized for display
	Order           int                `bson:"order" json:"order"`               // Unique within the workout
	Sets            *int               `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps            *int               `bson:"reps,omitempty" json:"reps,omitempty"`
	DurationSeconds *int               `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty"`
	RestSeconds     *int               `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	IntensityNote   string             `bson:"intensityNote,omitempty" json:"intensityNote,omitempty"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Workout represents a single scheduled session within a TrainingPlan week.
type Workout struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID     primitive.ObjectID `bson:"planId" json:"planId"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"` // Denormalized for queries/auth
	WeekNumber int                `bson:"weekNumber" json:"weekNumber"`

	DayOfWeek     time.Weekday `bson:"dayOfWeek" json:"dayOfWeek"`
	ScheduledDate time.Time    `bson:"scheduledDate" json:"scheduledDate"` // Must fall within the parent week

	Discipline   Discipline     `bson:"discipline" json:"discipline"`
	SessionType  *SessionType   `bson:"sessionType,omitempty" json:"sessionType,omitempty"`
	Name         string         `bson:"name" json:"name"`
	Description  string         `bson:"description,omitempty" json:"description,omitempty"`
	EstimatedMin int            `bson:"estimatedMin" json:"estimatedMin"`
	Intensity    IntensityLevel `bson:"intensity" json:"intensity"`
	IsKeyWorkout bool           `bson:"isKeyWorkout" json:"isKeyWorkout"` // Exactly one per week

	Status      CompletionStatus `bson:"status" json:"status"`
	CompletedAt *time.Time       `bson:"completedAt,omitempty" json:"completedAt,omitempty"` // Set iff Status == Completed

	Exercises []WorkoutExercise `bson:"exercises" json:"exercises"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsCompleted reports whether the workout has been completed. Completed
// workouts are immutable to the adaptation engine.
func (w *Workout) IsCompleted() bool {
	return w.Status == StatusCompleted
}

// ContainsExercise reports whether any slot references the given exercise.
func (w *Workout) ContainsExercise(exerciseID primitive.ObjectID) bool {
	for _, we := range w.Exercises {
		if we.ExerciseID == exerciseID {
			return true
		}
	}
	return false
}
