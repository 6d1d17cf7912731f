package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MuscleGroup tags the primary musculature an exercise loads.
type MuscleGroup string

const (
	MuscleLegs      MuscleGroup = "legs"
	MuscleGlutes    MuscleGroup = "glutes"
	MuscleBack      MuscleGroup = "back"
	MuscleChest     MuscleGroup = "chest"
	MuscleShoulders MuscleGroup = "shoulders"
	MuscleArms      MuscleGroup = "arms"
	MuscleCore      MuscleGroup = "core"
	MuscleFullBody  MuscleGroup = "full_body"
)

// MovementPattern categorizes the dominant movement of an exercise. The
// assembler uses it to avoid programming two consecutive exercises with the
// same primary pattern.
type MovementPattern string

const (
	PatternSquat     MovementPattern = "squat"
	PatternHinge     MovementPattern = "hinge"
	PatternLunge     MovementPattern = "lunge"
	PatternPush      MovementPattern = "push"
	PatternPull      MovementPattern = "pull"
	PatternCarry     MovementPattern = "carry"
	PatternLocomotor MovementPattern = "locomotor" // Running, sled work, skierg
	PatternRotation  MovementPattern = "rotation"
)

// ContraindicationSeverity grades how strictly an exercise must be avoided.
type ContraindicationSeverity string

const (
	SeverityAbsolute ContraindicationSeverity = "absolute" // Never program while injury is active
	SeverityRelative ContraindicationSeverity = "relative" // Avoid unless no alternative exists
)

// Contraindication marks an exercise unsafe for a given injured body part.
type Contraindication struct {
	BodyPart      BodyPart                 `bson:"bodyPart" json:"bodyPart"`
	Severity      ContraindicationSeverity `bson:"severity" json:"severity"`
	SubstituteIDs []primitive.ObjectID     `bson:"substituteIds,omitempty" json:"substituteIds,omitempty"` // Recommended replacements
}

// Exercise represents a single exercise definition in the catalog.
//
// Regression/Progression/Alternative links form a directed graph across the
// catalog. They are stored as IDs and resolved through the id-keyed catalog
// arena, never as embedded documents, so no ownership cycle exists.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	Discipline  Discipline     `bson:"discipline" json:"discipline"`
	Difficulty  FitnessLevel   `bson:"difficulty" json:"difficulty"`
	Intensity   IntensityLevel `bson:"intensity" json:"intensity"`
	SessionType *SessionType   `bson:"sessionType,omitempty" json:"sessionType,omitempty"` // Optional: restrict to one session type

	MuscleGroups     []MuscleGroup     `bson:"muscleGroups,omitempty" json:"muscleGroups,omitempty"`
	Equipment        []string          `bson:"equipment,omitempty" json:"equipment,omitempty"`
	PrimaryPattern   MovementPattern   `bson:"primaryPattern" json:"primaryPattern"`
	SecondaryPattern []MovementPattern `bson:"secondaryPatterns,omitempty" json:"secondaryPatterns,omitempty"`

	Contraindications []Contraindication `bson:"contraindications,omitempty" json:"contraindications,omitempty"`

	// Progression graph edges. At most one regression and one progression,
	// any number of alternatives.
	RegressionID   *primitive.ObjectID  `bson:"regressionId,omitempty" json:"regressionId,omitempty"`
	ProgressionID  *primitive.ObjectID  `bson:"progressionId,omitempty" json:"progressionId,omitempty"`
	AlternativeIDs []primitive.ObjectID `bson:"alternativeIds,omitempty" json:"alternativeIds,omitempty"`

	// Demonstration media uploaded by an admin; the actual file lives in S3.
	DemoObjectKey string `bson:"demoObjectKey,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ContraindicatedFor reports whether this exercise is unsafe for any of the
// given injured body parts.
func (e *Exercise) ContraindicatedFor(parts []BodyPart) bool {
	for _, c := range e.Contraindications {
		for _, p := range parts {
			if c.BodyPart == p {
				return true
			}
		}
	}
	return false
}

// SharesMuscleGroup reports whether the exercise loads any of the given groups.
func (e *Exercise) SharesMuscleGroup(groups []MuscleGroup) bool {
	for _, g := range e.MuscleGroups {
		for _, other := range groups {
			if g == other {
				return true
			}
		}
	}
	return false
}
