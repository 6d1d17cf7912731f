package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"forgefit/training-engine/internal/domain"
	"forgefit/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// missedExtensionThreshold is the missed count at which the plan is extended
// by a week instead of just ramping intensity down.
const missedExtensionThreshold = 3

// difficultyWindowSize is how many recent completion notes the perceived
// difficulty scan looks at, and difficultyPatternMin how many must repeat the
// same phrase.
const (
	difficultyWindowSize  = 10
	difficultyPatternMin  = 3
	difficultyHorizonDays = 7
)

// handleMissedWorkouts marks the referenced past workouts Skipped, lowers
// the next two weeks by one intensity step as a re-entry ramp, and extends
// the plan by an inserted recovery week when the miss count reaches the
// threshold. Only workouts newly marked Skipped count toward the ramp and the
// extension, so re-running the trigger with the same ids changes nothing.
func (e *AdaptationEngine) handleMissedWorkouts(ctx context.Context, s *adaptationState, t MissedWorkoutsTrigger) (outcome, error) {
	byID := make(map[primitive.ObjectID]*domain.Workout, len(s.workouts))
	for i := range s.workouts {
		byID[s.workouts[i].ID] = &s.workouts[i]
	}

	var missed []*domain.Workout
	alreadySkipped := 0
	for _, id := range t.WorkoutIDs {
		w, ok := byID[id]
		if !ok {
			return outcome{}, ErrWorkoutNotInPlan
		}
		if !w.ScheduledDate.Before(s.today) {
			continue
		}
		switch w.Status {
		case domain.StatusNotStarted:
			missed = append(missed, w)
		case domain.StatusSkipped:
			alreadySkipped++
		}
	}
	if len(missed) == 0 {
		if alreadySkipped > 0 {
			return outcome{
				adaptType: domain.AdaptationNoChange,
				description: fmt.Sprintf(
					"%d referenced workouts were already marked skipped and adapted for", alreadySkipped),
				success: true,
				changes: map[string]interface{}{"alreadySkipped": alreadySkipped},
			}, nil
		}
		return noopOutcome(
			"missed workouts adaptation attempted",
			"none of the referenced workouts are missed past sessions"), nil
	}

	affected := 0
	for _, w := range missed {
		w.Status = domain.StatusSkipped
		if err := e.workouts.Update(ctx, w); err != nil {
			return outcome{}, err
		}
		affected++
	}

	out := outcome{
		adaptType: domain.AdaptationIntensityAdjusted,
		success:   true,
		changes:   map[string]interface{}{"missedCount": len(missed)},
	}

	extended := false
	if len(missed) >= missedExtensionThreshold {
		if err := e.insertReentryWeek(ctx, s); err != nil {
			return outcome{}, err
		}
		extended = true
		out.adaptType = domain.AdaptationPlanExtended
		out.planChanged = true
		out.changes["extendedByDays"] = 7
	}

	ramped, err := e.reentryRamp(ctx, s)
	if err != nil {
		return outcome{}, err
	}
	if ramped > 0 {
		out.planChanged = true
	}
	affected += ramped

	out.affected = affected
	if extended {
		out.description = fmt.Sprintf(
			"%d missed workouts: plan extended by one week and the next weeks eased for re-entry", len(missed))
	} else {
		out.description = fmt.Sprintf(
			"%d missed workouts: next weeks eased by one intensity step for re-entry", len(missed))
	}
	return out, nil
}

// reentryRamp lowers the next two calendar weeks of future workouts by one
// intensity step. Returns the number of workouts changed.
func (e *AdaptationEngine) reentryRamp(ctx context.Context, s *adaptationState) (int, error) {
	cur := s.currentWeekNumber()
	rampWeeks := map[int]bool{cur + 1: true, cur + 2: true}

	changed := 0
	for _, i := range s.futureWorkouts() {
		w := &s.workouts[i]
		if !rampWeeks[w.WeekNumber] {
			continue
		}
		lowered := w.Intensity.Easier()
		if lowered == w.Intensity {
			continue
		}
		w.Intensity = lowered
		e.represcribe(s, w)
		if err := e.workouts.Update(ctx, w); err != nil {
			return changed, err
		}
		changed++
	}
	for n := range rampWeeks {
		if wk := s.plan.Week(n); wk != nil {
			wk.Intensity = wk.Intensity.Easier()
		}
	}
	return changed, nil
}

// insertReentryWeek inserts a recovery week right after the current week,
// shifting every later week (and its workouts) forward by seven days and
// renumbering them.
func (e *AdaptationEngine) insertReentryWeek(ctx context.Context, s *adaptationState) error {
	cur := s.currentWeekNumber()
	insertAt := cur + 1

	// Shift weeks after the insertion point.
	var nextStart time.Time
	for i := range s.plan.Weeks {
		wk := &s.plan.Weeks[i]
		if wk.WeekNumber < insertAt {
			continue
		}
		if wk.WeekNumber == insertAt {
			nextStart = wk.StartDate
		}
		wk.WeekNumber++
		wk.StartDate = wk.StartDate.AddDate(0, 0, 7)
		wk.EndDate = wk.EndDate.AddDate(0, 0, 7)
		for j := range wk.TrainingDates {
			wk.TrainingDates[j] = wk.TrainingDates[j].AddDate(0, 0, 7)
		}
	}
	if nextStart.IsZero() {
		// Inserting after the final week: the new week follows the plan end.
		nextStart = s.plan.EndDate.AddDate(0, 0, 1)
	}

	// Shift the workouts of the moved weeks.
	for i := range s.workouts {
		w := &s.workouts[i]
		if w.WeekNumber < insertAt || w.IsCompleted() {
			continue
		}
		w.WeekNumber++
		w.ScheduledDate = w.ScheduledDate.AddDate(0, 0, 7)
		if err := e.workouts.Update(ctx, w); err != nil {
			return err
		}
	}

	days := selectTrainingDays(s.profile.Availability.SelectedDays(), s.plan.TrainingDaysPerWeek)
	week := domain.TrainingWeek{
		WeekNumber:    insertAt,
		Phase:         domain.PhaseRecovery,
		Intensity:     domain.IntensityLow,
		VolumeMinutes: volumeForPhase(domain.PhaseRecovery, s.profile.OverallLevel()),
		StartDate:     nextStart,
		EndDate:       nextStart.AddDate(0, 0, 6),
		TrainingDates: trainingDates(nextStart, days),
	}
	newWorkouts, _ := s.assembler.AssembleWeek(week, AssembleParams{
		PlanID:      s.plan.ID,
		UserID:      s.plan.UserID,
		GoalType:    goalTypeOf(s.profile),
		Level:       s.profile.OverallLevel(),
		InjuryParts: s.activeInjuryParts(nil),
	})
	if _, err := e.workouts.CreateMany(ctx, newWorkouts); err != nil {
		return err
	}

	s.plan.Weeks = append(s.plan.Weeks, week)
	sortWeeks(s.plan.Weeks)
	s.plan.TotalWeeks++
	s.plan.EndDate = s.plan.EndDate.AddDate(0, 0, 7)
	return nil
}

// handleIntensityChange shifts every future, non-completed workout by one
// intensity step in the requested direction and re-derives the exercise
// prescriptions. Saturation at the scale ends is a successful no-op.
func (e *AdaptationEngine) handleIntensityChange(ctx context.Context, s *adaptationState, t IntensityChangeTrigger) (outcome, error) {
	changed := 0
	for _, i := range s.futureWorkouts() {
		w := &s.workouts[i]
		shifted := shiftIntensity(w.Intensity, t.Direction)
		if shifted == w.Intensity {
			continue
		}
		w.Intensity = shifted
		e.represcribe(s, w)
		if err := e.workouts.Update(ctx, w); err != nil {
			return outcome{}, err
		}
		changed++
	}

	if changed == 0 {
		bound := "minimum"
		if t.Direction == DirectionHarder {
			bound = "maximum"
		}
		return noopOutcome(
			fmt.Sprintf("intensity change (%s) attempted", t.Direction),
			fmt.Sprintf("all future workouts are already at %s intensity", bound)), nil
	}

	return outcome{
		adaptType:   domain.AdaptationIntensityAdjusted,
		description: fmt.Sprintf("shifted %d future workouts one step %s", changed, t.Direction),
		affected:    changed,
		success:     true,
		changes:     map[string]interface{}{"direction": string(t.Direction)},
	}, nil
}

// handleScheduleChange rebuilds the remaining weeks' workouts on the new day
// set. Future key workouts keep their weekday when it is still selected,
// otherwise they move to the nearest selected weekday.
func (e *AdaptationEngine) handleScheduleChange(ctx context.Context, s *adaptationState, t ScheduleChangeTrigger) (outcome, error) {
	daysPerWeek := t.DaysPerWeek
	if daysPerWeek == 0 {
		daysPerWeek = s.plan.TrainingDaysPerWeek
	}
	available := t.Availability.SelectedDays()
	if len(available) == 0 || daysPerWeek > len(available) {
		return outcome{}, ErrInsufficientAvailability
	}
	selected := selectTrainingDays(available, daysPerWeek)

	// Remember where future key workouts live before the rebuild. Weeks whose
	// key session already happened keep it; the rebuilt portion must not add
	// a second one.
	pinnedKeyDay := make(map[int]time.Weekday)
	futureIdx := make(map[int]bool)
	for _, i := range s.futureWorkouts() {
		futureIdx[i] = true
		w := &s.workouts[i]
		if w.IsKeyWorkout {
			pinnedKeyDay[w.WeekNumber] = w.DayOfWeek
		}
	}
	pastKeyWeeks := make(map[int]bool)
	for i := range s.workouts {
		if s.workouts[i].IsKeyWorkout && !futureIdx[i] {
			pastKeyWeeks[s.workouts[i].WeekNumber] = true
		}
	}

	deleted, err := e.workouts.DeleteFutureByPlanID(ctx, s.plan.ID, s.today)
	if err != nil {
		return outcome{}, err
	}

	created := 0
	params := AssembleParams{
		PlanID:      s.plan.ID,
		UserID:      s.plan.UserID,
		GoalType:    goalTypeOf(s.profile),
		Level:       s.profile.OverallLevel(),
		InjuryParts: s.activeInjuryParts(nil),
	}
	var warnings []string
	for i := range s.plan.Weeks {
		wk := &s.plan.Weeks[i]
		if wk.EndDate.Before(s.today) {
			continue
		}
		wk.TrainingDates = trainingDates(wk.StartDate, selected)

		// Assemble the whole week so per-session durations split the full
		// weekly volume, then keep only the portion from today onward.
		weekWorkouts, w := s.assembler.AssembleWeek(*wk, params)
		warnings = append(warnings, w...)
		kept := weekWorkouts[:0]
		for _, ww := range weekWorkouts {
			if !ww.ScheduledDate.Before(s.today) {
				kept = append(kept, ww)
			}
		}
		if len(kept) == 0 {
			continue
		}

		if pastKeyWeeks[wk.WeekNumber] {
			for j := range kept {
				kept[j].IsKeyWorkout = false
			}
		} else {
			hasKey := false
			for j := range kept {
				hasKey = hasKey || kept[j].IsKeyWorkout
			}
			if !hasKey {
				MarkKeyWorkout(kept)
			}
			if day, ok := pinnedKeyDay[wk.WeekNumber]; ok {
				pinKeyWorkout(kept, day, selected)
			}
		}
		if _, err := e.workouts.CreateMany(ctx, kept); err != nil {
			return outcome{}, err
		}
		created += len(kept)
	}

	s.plan.TrainingDaysPerWeek = daysPerWeek
	return outcome{
		adaptType:   domain.AdaptationScheduleRebuilt,
		description: fmt.Sprintf("rebuilt %d future workouts on the new availability", created),
		affected:    created,
		success:     true,
		warnings:    warnings,
		planChanged: true,
		changes: map[string]interface{}{
			"replaced":    deleted,
			"daysPerWeek": daysPerWeek,
		},
	}, nil
}

// pinKeyWorkout moves the rebuilt week's key workout onto the pinned weekday
// (or its nearest selected neighbour), swapping dates with whatever workout
// already holds that slot.
func pinKeyWorkout(workouts []domain.Workout, pinned time.Weekday, selected []time.Weekday) {
	target := pinned
	found := false
	for _, d := range selected {
		if d == pinned {
			found = true
			break
		}
	}
	if !found {
		target = NearestSelectedWeekday(pinned, selected)
	}

	keyIdx, targetIdx := -1, -1
	for i := range workouts {
		if workouts[i].IsKeyWorkout {
			keyIdx = i
		}
		if workouts[i].DayOfWeek == target {
			targetIdx = i
		}
	}
	if keyIdx < 0 || targetIdx < 0 || keyIdx == targetIdx {
		return
	}
	workouts[keyIdx].ScheduledDate, workouts[targetIdx].ScheduledDate =
		workouts[targetIdx].ScheduledDate, workouts[keyIdx].ScheduledDate
	workouts[keyIdx].DayOfWeek, workouts[targetIdx].DayOfWeek =
		workouts[targetIdx].DayOfWeek, workouts[keyIdx].DayOfWeek
}

// handleInjury substitutes every now-contraindicated exercise in future
// workouts: regression/alternative edges first, then a safe filler from the
// same muscle-group pool, dropping the slot as a last resort.
func (e *AdaptationEngine) handleInjury(ctx context.Context, s *adaptationState, t InjuryTrigger) (outcome, error) {
	injury, err := e.profiles.GetInjuryByID(ctx, t.InjuryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return outcome{}, ErrInjuryNotFound
		}
		return outcome{}, err
	}
	if injury.ProfileID != s.profile.ID {
		return outcome{}, ErrInjuryNotFound
	}
	if injury.Status != domain.InjuryStatusActive {
		return outcome{}, ErrInjuryNotActive
	}

	parts := s.activeInjuryParts(&injury.BodyPart)
	var substitutions []string
	var warnings []string
	affected := 0

	for _, i := range s.futureWorkouts() {
		w := &s.workouts[i]
		changed := false
		kept := w.Exercises[:0]
		for _, slot := range w.Exercises {
			ex, ok := s.catalog.Get(slot.ExerciseID)
			if !ok || !ex.ContraindicatedFor(parts) {
				kept = append(kept, slot)
				continue
			}

			replacement, found := s.catalog.SubstituteFor(slot.ExerciseID, parts)
			if !found {
				replacement, found = s.catalog.FillerFrom(ex.MuscleGroups, parts, w.Discipline, ex.ID)
			}
			if !found {
				warnings = append(warnings, fmt.Sprintf(
					"no safe substitute for %q in %q on %s; slot removed",
					ex.Name, w.Name, w.ScheduledDate.Format("2006-01-02")))
				changed = true
				continue
			}

			newSlot := s.assembler.Prescribe(replacement, w.Intensity)
			newSlot.Order = slot.Order
			newSlot.Notes = slot.Notes
			kept = append(kept, newSlot)
			substitutions = append(substitutions, fmt.Sprintf("%s -> %s", ex.Name, replacement.Name))
			changed = true
		}
		if !changed {
			continue
		}
		w.Exercises = kept
		for j := range w.Exercises {
			w.Exercises[j].Order = j + 1
		}
		if err := e.workouts.Update(ctx, w); err != nil {
			return outcome{}, err
		}
		affected++
	}

	if affected == 0 {
		return noopOutcome(
			fmt.Sprintf("injury adaptation attempted for %s", injury.BodyPart),
			"no future workouts contain contraindicated exercises"), nil
	}

	return outcome{
		adaptType: domain.AdaptationExercisesSubstituted,
		description: fmt.Sprintf("substituted contraindicated exercises in %d future workouts for %s injury",
			affected, injury.BodyPart),
		affected: affected,
		success:  true,
		warnings: warnings,
		changes:  map[string]interface{}{"substitutions": substitutions},
	}, nil
}

// handleGoalTimeline recomputes the plan horizon against the moved target
// date and rebuilds all future weeks; elapsed weeks are preserved verbatim.
func (e *AdaptationEngine) handleGoalTimeline(ctx context.Context, s *adaptationState, t GoalTimelineTrigger) (outcome, error) {
	goal, err := e.profiles.GetGoalByID(ctx, t.GoalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return outcome{}, ErrGoalNotFound
		}
		return outcome{}, err
	}
	if goal.ProfileID != s.profile.ID {
		return outcome{}, ErrGoalNotFound
	}
	newDate := startOfDay(t.NewTargetDate)
	if !newDate.After(s.today) {
		return outcome{}, ErrPastTargetDate
	}

	goal.TargetDate = &newDate
	if err := e.profiles.UpdateGoal(ctx, goal); err != nil {
		return outcome{}, err
	}

	// Split the plan: weeks already started stay untouched.
	var elapsed []domain.TrainingWeek
	firstFuture := 0
	var futureStart time.Time
	for _, wk := range s.plan.Weeks {
		if !wk.StartDate.After(s.today) {
			elapsed = append(elapsed, wk)
			continue
		}
		if firstFuture == 0 {
			firstFuture = wk.WeekNumber
			futureStart = wk.StartDate
		}
	}
	if firstFuture == 0 {
		// Nothing left to re-plan; only the goal date moved.
		return outcome{
			adaptType:   domain.AdaptationTimelineRecomputed,
			description: "goal date moved; no future weeks remained to re-plan",
			success:     true,
			warnings:    []string{"plan has no future weeks; goal target date updated only"},
		}, nil
	}

	remaining := weeksBetween(futureStart, newDate)
	if remaining < 1 {
		remaining = 1
	}
	newTotal := (firstFuture - 1) + remaining

	params := PlanParams{
		Level:       s.profile.OverallLevel(),
		Days:        s.profile.Availability.SelectedDays(),
		DaysPerWeek: s.plan.TrainingDaysPerWeek,
		TotalWeeks:  newTotal,
		StartDate:   s.plan.StartDate,
		GoalType:    goalTypeOf(s.profile),
	}
	futureWeeks, err := e.planner.SkeletonFrom(params, firstFuture, futureStart)
	if err != nil {
		return outcome{}, err
	}

	if _, err := e.workouts.DeleteFutureByPlanID(ctx, s.plan.ID, futureStart); err != nil {
		return outcome{}, err
	}

	assembleParams := AssembleParams{
		PlanID:      s.plan.ID,
		UserID:      s.plan.UserID,
		GoalType:    goalTypeOf(s.profile),
		Level:       s.profile.OverallLevel(),
		InjuryParts: s.activeInjuryParts(nil),
	}
	created := 0
	var warnings []string
	for _, wk := range futureWeeks {
		weekWorkouts, w := s.assembler.AssembleWeek(wk, assembleParams)
		warnings = append(warnings, w...)
		if _, err := e.workouts.CreateMany(ctx, weekWorkouts); err != nil {
			return outcome{}, err
		}
		created += len(weekWorkouts)
	}

	s.plan.Weeks = append(elapsed, futureWeeks...)
	s.plan.TotalWeeks = newTotal
	s.plan.EndDate = s.plan.Weeks[len(s.plan.Weeks)-1].EndDate

	return outcome{
		adaptType: domain.AdaptationTimelineRecomputed,
		description: fmt.Sprintf("re-planned %d future weeks toward %s",
			len(futureWeeks), newDate.Format("2006-01-02")),
		affected:    created,
		success:     true,
		warnings:    warnings,
		planChanged: true,
		changes: map[string]interface{}{
			"newTotalWeeks": newTotal,
			"newTargetDate": newDate.Format("2006-01-02"),
		},
	}, nil
}

// handlePerceivedDifficulty scans the recent completion notes for a repeated
// "too easy"/"too hard" pattern and applies a short-horizon intensity
// correction to the next seven days only.
func (e *AdaptationEngine) handlePerceivedDifficulty(ctx context.Context, s *adaptationState, _ PerceivedDifficultyTrigger) (outcome, error) {
	recent, err := e.history.ListByUserID(ctx, s.plan.UserID, difficultyWindowSize)
	if err != nil {
		return outcome{}, err
	}

	tooEasy, tooHard := 0, 0
	for _, rec := range recent {
		note := strings.ToLower(rec.Notes)
		if strings.Contains(note, "too easy") {
			tooEasy++
		}
		if strings.Contains(note, "too hard") {
			tooHard++
		}
	}

	var direction IntensityDirection
	switch {
	case tooEasy >= difficultyPatternMin && tooEasy > tooHard:
		direction = DirectionHarder
	case tooHard >= difficultyPatternMin && tooHard > tooEasy:
		direction = DirectionEasier
	default:
		return noopOutcome(
			"perceived difficulty scan attempted",
			fmt.Sprintf("no qualifying pattern in the last %d completion notes", difficultyWindowSize)), nil
	}

	horizon := s.today.AddDate(0, 0, difficultyHorizonDays)
	changed := 0
	for _, i := range s.futureWorkouts() {
		w := &s.workouts[i]
		if w.ScheduledDate.After(horizon) {
			continue
		}
		shifted := shiftIntensity(w.Intensity, direction)
		if shifted == w.Intensity {
			continue
		}
		w.Intensity = shifted
		e.represcribe(s, w)
		if err := e.workouts.Update(ctx, w); err != nil {
			return outcome{}, err
		}
		changed++
	}

	if changed == 0 {
		return noopOutcome(
			fmt.Sprintf("perceived difficulty correction (%s) attempted", direction),
			"no adjustable workouts in the next seven days"), nil
	}

	return outcome{
		adaptType: domain.AdaptationIntensityAdjusted,
		description: fmt.Sprintf("perceived difficulty pattern: shifted %d workouts in the next %d days one step %s",
			changed, difficultyHorizonDays, direction),
		affected: changed,
		success:  true,
		changes: map[string]interface{}{
			"direction": string(direction),
			"tooEasy":   tooEasy,
			"tooHard":   tooHard,
		},
	}, nil
}

// --- shared helpers ---

// represcribe re-derives every exercise slot's scheme at the workout's
// current intensity, keeping order and athlete notes.
func (e *AdaptationEngine) represcribe(s *adaptationState, w *domain.Workout) {
	for i := range w.Exercises {
		slot := &w.Exercises[i]
		ex, ok := s.catalog.Get(slot.ExerciseID)
		if !ok {
			continue
		}
		fresh := s.assembler.Prescribe(ex, w.Intensity)
		fresh.Order = slot.Order
		fresh.Notes = slot.Notes
		*slot = fresh
	}
}

func shiftIntensity(level domain.IntensityLevel, dir IntensityDirection) domain.IntensityLevel {
	if dir == DirectionHarder {
		return level.Harder()
	}
	return level.Easier()
}

// currentWeekNumber is the week containing today, falling back to the plan's
// stored counter when today is outside every week (e.g. before the start).
func (s *adaptationState) currentWeekNumber() int {
	if wk := s.plan.WeekFor(s.today); wk != nil {
		return wk.WeekNumber
	}
	if s.plan.CurrentWeek > 0 {
		return s.plan.CurrentWeek
	}
	return 1
}

func goalTypeOf(profile *domain.UserProfile) *domain.GoalType {
	if g := profile.PrimaryGoal(); g != nil {
		t := g.Type
		return &t
	}
	return nil
}

func sortWeeks(weeks []domain.TrainingWeek) {
	for i := 1; i < len(weeks); i++ {
		for j := i; j > 0 && weeks[j].WeekNumber < weeks[j-1].WeekNumber; j-- {
			weeks[j], weeks[j-1] = weeks[j-1], weeks[j]
		}
	}
}

// weeksBetween counts whole weeks from start to end, rounding up.
func weeksBetween(start, end time.Time) int {
	days := int(end.Sub(start).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return (days + 6) / 7
}
