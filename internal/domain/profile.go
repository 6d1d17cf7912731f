package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Discipline identifies the kind of training a workout or exercise targets.
type Discipline string

const (
	DisciplineHyrox    Discipline = "hyrox"
	DisciplineRunning  Discipline = "running"
	DisciplineStrength Discipline = "strength"
	DisciplineHybrid   Discipline = "hybrid"
	DisciplineRest     Discipline = "rest" // Placeholder discipline for rest days
)

// FitnessLevel is an ordinal per-discipline ability level. Higher is fitter.
type FitnessLevel int

const (
	FitnessBeginner FitnessLevel = iota + 1
	FitnessNovice
	FitnessIntermediate
	FitnessAdvanced
	FitnessElite
)

func (l FitnessLevel) String() string {
	switch l {
	case FitnessBeginner:
		return "beginner"
	case FitnessNovice:
		return "novice"
	case FitnessIntermediate:
		return "intermediate"
	case FitnessAdvanced:
		return "advanced"
	case FitnessElite:
		return "elite"
	}
	return "unknown"
}

// ScheduleAvailability captures which weekdays an athlete can train and how
// many sessions per week they want. Monday..Sunday flags.
type ScheduleAvailability struct {
	Monday    bool `bson:"monday" json:"monday"`
	Tuesday   bool `bson:"tuesday" json:"tuesday"`
	Wednesday bool `bson:"wednesday" json:"wednesday"`
	Thursday  bool `bson:"thursday" json:"thursday"`
	Friday    bool `bson:"friday" json:"friday"`
	Saturday  bool `bson:"saturday" json:"saturday"`
	Sunday    bool `bson:"sunday" json:"sunday"`

	MinSessionsPerWeek int `bson:"minSessionsPerWeek" json:"minSessionsPerWeek"`
	MaxSessionsPerWeek int `bson:"maxSessionsPerWeek" json:"maxSessionsPerWeek"`
}

// SelectedDays returns the flagged weekdays ordered Monday first. The order is
// deterministic so plan regeneration reproduces identical training dates.
func (a ScheduleAvailability) SelectedDays() []time.Weekday {
	var days []time.Weekday
	flags := []struct {
		day time.Weekday
		on  bool
	}{
		{time.Monday, a.Monday},
		{time.Tuesday, a.Tuesday},
		{time.Wednesday, a.Wednesday},
		{time.Thursday, a.Thursday},
		{time.Friday, a.Friday},
		{time.Saturday, a.Saturday},
		{time.Sunday, a.Sunday},
	}
	for _, f := range flags {
		if f.on {
			days = append(days, f.day)
		}
	}
	return days
}

// HasDay reports whether the given weekday is flagged as available.
func (a ScheduleAvailability) HasDay(d time.Weekday) bool {
	switch d {
	case time.Monday:
		return a.Monday
	case time.Tuesday:
		return a.Tuesday
	case time.Wednesday:
		return a.Wednesday
	case time.Thursday:
		return a.Thursday
	case time.Friday:
		return a.Friday
	case time.Saturday:
		return a.Saturday
	case time.Sunday:
		return a.Sunday
	}
	return false
}

// TrainingBackground holds free-form history the athlete supplies at onboarding.
type TrainingBackground struct {
	YearsTraining      int    `bson:"yearsTraining" json:"yearsTraining"`
	PreviousSports     string `bson:"previousSports,omitempty" json:"previousSports,omitempty"`
	RecentWeeklyVolume int    `bson:"recentWeeklyVolume,omitempty" json:"recentWeeklyVolume,omitempty"` // Minutes
	Notes              string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// UserProfile is the normalized fitness profile the planning engine consumes.
// One profile per user.
type UserProfile struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"` // Unique

	HyroxLevel    FitnessLevel `bson:"hyroxLevel" json:"hyroxLevel"`
	RunningLevel  FitnessLevel `bson:"runningLevel" json:"runningLevel"`
	StrengthLevel FitnessLevel `bson:"strengthLevel" json:"strengthLevel"`

	Availability ScheduleAvailability `bson:"availability" json:"availability"`
	Background   TrainingBackground   `bson:"background" json:"background"`

	// Goals and injuries are stored in their own collections, keyed by
	// profile ID; repositories load them eagerly alongside the profile.
	Goals    []TrainingGoal     `bson:"-" json:"goals,omitempty"`
	Injuries []InjuryLimitation `bson:"-" json:"injuries,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// OverallLevel averages the three discipline levels, rounding down, and is the
// baseline for weekly volume targets.
func (p *UserProfile) OverallLevel() FitnessLevel {
	avg := (int(p.HyroxLevel) + int(p.RunningLevel) + int(p.StrengthLevel)) / 3
	if avg < int(FitnessBeginner) {
		return FitnessBeginner
	}
	if avg > int(FitnessElite) {
		return FitnessElite
	}
	return FitnessLevel(avg)
}

// ActiveInjuries returns the injuries still flagged Active.
func (p *UserProfile) ActiveInjuries() []InjuryLimitation {
	var active []InjuryLimitation
	for _, inj := range p.Injuries {
		if inj.Status == InjuryStatusActive {
			active = append(active, inj)
		}
	}
	return active
}

// PrimaryGoal returns the active goal with the highest priority (lowest
// numeric value), or nil when the athlete has no active goals.
func (p *UserProfile) PrimaryGoal() *TrainingGoal {
	var primary *TrainingGoal
	for i := range p.Goals {
		g := &p.Goals[i]
		if g.Status != GoalStatusActive {
			continue
		}
		if primary == nil || g.Priority < primary.Priority {
			primary = g
		}
	}
	return primary
}
