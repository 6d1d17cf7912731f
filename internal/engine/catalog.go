package engine

import (
	"forgefit/training-engine/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Catalog is an id-keyed arena over a fetched exercise set. Progression
// edges are resolved by id lookup into the arena, so the self-referential
// exercise graph never forms object cycles. All methods are pure reads;
// callers persist any substitution decision themselves.
type Catalog struct {
	byID    map[primitive.ObjectID]*domain.Exercise
	ordered []domain.Exercise // Stable iteration order (as fetched)
}

// NewCatalog builds the arena from a slice of exercises.
func NewCatalog(exercises []domain.Exercise) *Catalog {
	c := &Catalog{
		byID:    make(map[primitive.ObjectID]*domain.Exercise, len(exercises)),
		ordered: exercises,
	}
	for i := range c.ordered {
		c.byID[c.ordered[i].ID] = &c.ordered[i]
	}
	return c
}

// Get returns the exercise with the given id, if present.
func (c *Catalog) Get(id primitive.ObjectID) (*domain.Exercise, bool) {
	ex, ok := c.byID[id]
	return ex, ok
}

// Len returns the number of exercises in the arena.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

// ExerciseFilter narrows Safe results. Nil fields match everything.
type ExerciseFilter struct {
	Discipline    *domain.Discipline
	MaxDifficulty *domain.FitnessLevel
	SessionType   *domain.SessionType
}

func (f ExerciseFilter) matches(ex *domain.Exercise) bool {
	if f.Discipline != nil && ex.Discipline != *f.Discipline {
		return false
	}
	if f.MaxDifficulty != nil && ex.Difficulty > *f.MaxDifficulty {
		return false
	}
	if f.SessionType != nil && ex.SessionType != nil && *ex.SessionType != *f.SessionType {
		return false
	}
	return true
}

// Safe returns the exercises that carry no contraindication for any of the
// given injured body parts, optionally narrowed by the filter. Order follows
// the arena's stable order.
func (c *Catalog) Safe(parts []domain.BodyPart, filter ExerciseFilter) []domain.Exercise {
	var out []domain.Exercise
	for i := range c.ordered {
		ex := &c.ordered[i]
		if ex.ContraindicatedFor(parts) {
			continue
		}
		if !filter.matches(ex) {
			continue
		}
		out = append(out, *ex)
	}
	return out
}

// SubstituteFor resolves a replacement for an exercise that became
// contraindicated: the regression edge is preferred (an easier variant keeps
// the athlete moving), then alternatives, then any substitutes recommended on
// the matching contraindication. Returns false when no edge yields a safe
// candidate.
func (c *Catalog) SubstituteFor(exerciseID primitive.ObjectID, parts []domain.BodyPart) (*domain.Exercise, bool) {
	ex, ok := c.byID[exerciseID]
	if !ok {
		return nil, false
	}

	if ex.RegressionID != nil {
		if sub := c.safeByID(*ex.RegressionID, parts); sub != nil {
			return sub, true
		}
	}
	for _, altID := range ex.AlternativeIDs {
		if sub := c.safeByID(altID, parts); sub != nil {
			return sub, true
		}
	}
	for _, contra := range ex.Contraindications {
		for _, subID := range contra.SubstituteIDs {
			if sub := c.safeByID(subID, parts); sub != nil {
				return sub, true
			}
		}
	}
	return nil, false
}

// safeByID returns the exercise if it exists and is not contraindicated.
func (c *Catalog) safeByID(id primitive.ObjectID, parts []domain.BodyPart) *domain.Exercise {
	ex, ok := c.byID[id]
	if !ok || ex.ContraindicatedFor(parts) {
		return nil
	}
	out := *ex
	return &out
}

// FillerFrom picks a safe exercise loading any of the given muscle groups,
// preferring the same discipline. Used when the progression graph offers no
// substitute for a contraindicated slot.
func (c *Catalog) FillerFrom(groups []domain.MuscleGroup, parts []domain.BodyPart, discipline domain.Discipline, exclude primitive.ObjectID) (*domain.Exercise, bool) {
	var fallback *domain.Exercise
	for i := range c.ordered {
		ex := &c.ordered[i]
		if ex.ID == exclude || ex.ContraindicatedFor(parts) || !ex.SharesMuscleGroup(groups) {
			continue
		}
		if ex.Discipline == discipline {
			out := *ex
			return &out, true
		}
		if fallback == nil {
			out := *ex
			fallback = &out
		}
	}
	if fallback != nil {
		return fallback, true
	}
	return nil, false
}
