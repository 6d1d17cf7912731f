package engine

import (
	"fmt"
	"time"

	"forgefit/training-engine/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssembleParams carries the per-user context needed to fill a skeleton week
// with concrete workouts.
type AssembleParams struct {
	PlanID      primitive.ObjectID
	UserID      primitive.ObjectID
	GoalType    *domain.GoalType
	Level       domain.FitnessLevel
	InjuryParts []domain.BodyPart
}

// Assembler fills skeleton weeks with workouts and prescribed exercises from
// the safe pool. Selection is deterministic: the same catalog, skeleton and
// params always produce the same plan.
type Assembler struct {
	catalog *Catalog
}

func NewAssembler(catalog *Catalog) *Assembler {
	return &Assembler{catalog: catalog}
}

// disciplineRotations bias the weekly mix toward the primary goal type.
var disciplineRotations = map[domain.GoalType][]domain.Discipline{
	domain.GoalHyroxRace:       {domain.DisciplineHyrox, domain.DisciplineRunning, domain.DisciplineHybrid, domain.DisciplineStrength, domain.DisciplineHyrox},
	domain.GoalRunningDistance: {domain.DisciplineRunning, domain.DisciplineStrength, domain.DisciplineRunning, domain.DisciplineHybrid, domain.DisciplineRunning},
	domain.GoalStrengthGain:    {domain.DisciplineStrength, domain.DisciplineHybrid, domain.DisciplineStrength, domain.DisciplineRunning, domain.DisciplineStrength},
	domain.GoalWeightLoss:      {domain.DisciplineHybrid, domain.DisciplineRunning, domain.DisciplineStrength, domain.DisciplineHybrid, domain.DisciplineRunning},
	domain.GoalGeneralFitness:  {domain.DisciplineHybrid, domain.DisciplineStrength, domain.DisciplineRunning, domain.DisciplineHyrox, domain.DisciplineHybrid},
}

// rotationFor returns the discipline rotation for the goal, defaulting to the
// general-fitness mix.
func rotationFor(goal *domain.GoalType) []domain.Discipline {
	if goal != nil {
		if rot, ok := disciplineRotations[*goal]; ok {
			return rot
		}
	}
	return disciplineRotations[domain.GoalGeneralFitness]
}

// sessionTypeFor picks a session type consistent with the week's phase.
func sessionTypeFor(phase domain.TrainingPhase, discipline domain.Discipline) domain.SessionType {
	switch discipline {
	case domain.DisciplineRunning:
		switch phase {
		case domain.PhaseFoundation:
			return domain.SessionEasyRun
		case domain.PhaseBuild:
			return domain.SessionTempo
		case domain.PhasePeak:
			return domain.SessionIntervals
		default:
			return domain.SessionEasyRun
		}
	case domain.DisciplineStrength:
		switch phase {
		case domain.PhaseFoundation:
			return domain.SessionStrengthFull
		case domain.PhaseBuild:
			return domain.SessionStrengthLower
		case domain.PhasePeak:
			return domain.SessionStrengthFull
		default:
			return domain.SessionStrengthUpper
		}
	case domain.DisciplineHyrox:
		switch phase {
		case domain.PhasePeak:
			return domain.SessionRaceSimulation
		case domain.PhaseRecovery:
			return domain.SessionRecovery
		default:
			return domain.SessionHyroxStations
		}
	case domain.DisciplineHybrid:
		if phase == domain.PhaseRecovery {
			return domain.SessionRecovery
		}
		return domain.SessionCircuit
	default:
		return domain.SessionRecovery
	}
}

// exerciseCountFor sizes a workout by phase: 3..6 slots.
func exerciseCountFor(phase domain.TrainingPhase, level domain.FitnessLevel) int {
	switch phase {
	case domain.PhaseFoundation:
		return 4
	case domain.PhaseBuild:
		return 5
	case domain.PhasePeak:
		if level >= domain.FitnessAdvanced {
			return 6
		}
		return 5
	default:
		return 3
	}
}

// AssembleWeek produces one workout per training date of the skeleton week.
// When the safe pool for a slot's discipline is empty, a rest placeholder is
// programmed instead and a warning returned for the plan metadata.
func (a *Assembler) AssembleWeek(week domain.TrainingWeek, params AssembleParams) ([]domain.Workout, []string) {
	rotation := rotationFor(params.GoalType)
	var workouts []domain.Workout
	var warnings []string

	for dayIdx, date := range week.TrainingDates {
		// Rotate across weeks as well as days so consecutive weeks do not
		// repeat the same sequence.
		discipline := rotation[(dayIdx+week.WeekNumber-1)%len(rotation)]
		sessionType := sessionTypeFor(week.Phase, discipline)

		pool := a.catalog.Safe(params.InjuryParts, ExerciseFilter{
			Discipline:    &discipline,
			MaxDifficulty: &params.Level,
		})
		if len(pool) == 0 {
			warnings = append(warnings, fmt.Sprintf(
				"no safe %s exercises for week %d (%s); scheduled rest instead",
				discipline, week.WeekNumber, date.Format("2006-01-02")))
			workouts = append(workouts, a.restPlaceholder(week, params, date))
			continue
		}

		count := exerciseCountFor(week.Phase, params.Level)
		if count > len(pool) {
			count = len(pool)
		}
		if count < 3 && len(pool) >= 3 {
			count = 3
		}

		selected := selectVaried(pool, count, dayIdx+week.WeekNumber-1)
		exercises := make([]domain.WorkoutExercise, 0, len(selected))
		for i, ex := range selected {
			we := a.Prescribe(&ex, week.Intensity)
			we.Order = i + 1
			exercises = append(exercises, we)
		}

		st := sessionType
		workouts = append(workouts, domain.Workout{
			PlanID:        params.PlanID,
			UserID:        params.UserID,
			WeekNumber:    week.WeekNumber,
			DayOfWeek:     date.Weekday(),
			ScheduledDate: date,
			Discipline:    discipline,
			SessionType:   &st,
			Name:          workoutName(discipline, sessionType, week.Phase),
			EstimatedMin:  estimatedDuration(week),
			Intensity:     week.Intensity,
			Status:        domain.StatusNotStarted,
			Exercises:     exercises,
		})
	}

	MarkKeyWorkout(workouts)
	return workouts, warnings
}

// selectVaried picks count exercises from the pool, rotating the starting
// offset for week-to-week variety and avoiding two consecutive picks with the
// same primary movement pattern where an alternative exists.
func selectVaried(pool []domain.Exercise, count, offset int) []domain.Exercise {
	if count >= len(pool) {
		return pool
	}
	used := make([]bool, len(pool))
	out := make([]domain.Exercise, 0, count)
	var lastPattern domain.MovementPattern

	cursor := offset % len(pool)
	for len(out) < count {
		picked := -1
		// First pass: next unused exercise with a different primary pattern.
		for i := 0; i < len(pool); i++ {
			idx := (cursor + i) % len(pool)
			if used[idx] {
				continue
			}
			if len(out) > 0 && pool[idx].PrimaryPattern == lastPattern {
				continue
			}
			picked = idx
			break
		}
		// Fallback: any unused exercise (pattern repeat unavoidable).
		if picked < 0 {
			for i := 0; i < len(pool); i++ {
				idx := (cursor + i) % len(pool)
				if !used[idx] {
					picked = idx
					break
				}
			}
		}
		if picked < 0 {
			break
		}
		used[picked] = true
		out = append(out, pool[picked])
		lastPattern = pool[picked].PrimaryPattern
		cursor = (picked + 1) % len(pool)
	}
	return out
}

// prescription tables keyed by intensity. Strength-type exercises get
// sets/reps, timed work gets duration; rest shrinks as intensity rises.
var intensityPrescriptions = map[domain.IntensityLevel]struct {
	sets, reps, durationSec, restSec int
	note                             string
}{
	domain.IntensityLow:      {3, 10, 300, 90, "Conversational effort, RPE 4-5"},
	domain.IntensityModerate: {4, 10, 360, 75, "Controlled effort, RPE 6"},
	domain.IntensityHigh:     {4, 12, 420, 60, "Hard effort, RPE 7-8"},
	domain.IntensityMaximum:  {5, 12, 480, 45, "Race effort, RPE 9"},
}

// Prescribe derives the set/rep/duration/rest scheme for an exercise at the
// given intensity. The adaptation engine reuses this when shifting intensity
// on existing workouts.
func (a *Assembler) Prescribe(ex *domain.Exercise, intensity domain.IntensityLevel) domain.WorkoutExercise {
	p := intensityPrescriptions[intensity]
	we := domain.WorkoutExercise{
		ExerciseID:    ex.ID,
		ExerciseName:  ex.Name,
		IntensityNote: p.note,
	}
	rest := p.restSec
	we.RestSeconds = &rest
	if ex.PrimaryPattern == domain.PatternLocomotor {
		// Timed work for runs, sleds, ergs.
		dur := p.durationSec
		we.DurationSeconds = &dur
	} else {
		sets, reps := p.sets, p.reps
		we.Sets = &sets
		we.Reps = &reps
	}
	return we
}

// MarkKeyWorkout flags exactly one workout in the slice: the highest
// intensity, ties broken by latest scheduled date. No-op on empty input.
func MarkKeyWorkout(workouts []domain.Workout) {
	if len(workouts) == 0 {
		return
	}
	key := 0
	for i := 1; i < len(workouts); i++ {
		if workouts[i].Intensity > workouts[key].Intensity ||
			(workouts[i].Intensity == workouts[key].Intensity &&
				workouts[i].ScheduledDate.After(workouts[key].ScheduledDate)) {
			key = i
		}
	}
	for i := range workouts {
		workouts[i].IsKeyWorkout = i == key
	}
}

// restPlaceholder is the fallback when every exercise for a slot is
// contraindicated: generation still succeeds, the day becomes active recovery.
func (a *Assembler) restPlaceholder(week domain.TrainingWeek, params AssembleParams, date time.Time) domain.Workout {
	st := domain.SessionRecovery
	return domain.Workout{
		PlanID:        params.PlanID,
		UserID:        params.UserID,
		WeekNumber:    week.WeekNumber,
		DayOfWeek:     date.Weekday(),
		ScheduledDate: date,
		Discipline:    domain.DisciplineRest,
		SessionType:   &st,
		Name:          "Active Recovery",
		Description:   "Easy movement of your choice: walk, stretch, mobility work.",
		EstimatedMin:  30,
		Intensity:     domain.IntensityLow,
		Status:        domain.StatusNotStarted,
	}
}

func workoutName(d domain.Discipline, st domain.SessionType, phase domain.TrainingPhase) string {
	names := map[domain.SessionType]string{
		domain.SessionIntervals:      "Interval Run",
		domain.SessionTempo:          "Tempo Run",
		domain.SessionLongRun:        "Long Run",
		domain.SessionEasyRun:        "Easy Run",
		domain.SessionStrengthFull:   "Full Body Strength",
		domain.SessionStrengthUpper:  "Upper Body Strength",
		domain.SessionStrengthLower:  "Lower Body Strength",
		domain.SessionHyroxStations:  "HYROX Stations",
		domain.SessionRaceSimulation: "Race Simulation",
		domain.SessionCircuit:        "Hybrid Circuit",
		domain.SessionRecovery:       "Active Recovery",
	}
	if n, ok := names[st]; ok {
		return n
	}
	return fmt.Sprintf("%s session (%s)", d, phase)
}

// estimatedDuration splits the week's volume target across its sessions.
func estimatedDuration(week domain.TrainingWeek) int {
	if len(week.TrainingDates) == 0 {
		return week.VolumeMinutes
	}
	return week.VolumeMinutes / len(week.TrainingDates)
}
