package engine

import (
	"errors"
	"fmt"
	"time"

	"forgefit/training-engine/internal/domain"
)

// --- Error Definitions ---
var (
	ErrInsufficientAvailability = errors.New("insufficient availability: no training days selected or more sessions requested than selected days")
	ErrInvalidHorizon           = errors.New("plan horizon must be at least one week")
)

// PlanParams is the normalized planner input. TrainingDays must already be in
// deterministic Monday-first order (domain.ScheduleAvailability.SelectedDays
// produces that order) so regeneration reproduces identical dates.
type PlanParams struct {
	Level       domain.FitnessLevel
	Days        []time.Weekday
	DaysPerWeek int
	TotalWeeks  int
	StartDate   time.Time // Anchor of week 1; weeks run StartDate + 7*(n-1)
	GoalType    *domain.GoalType
}

// Planner produces week-by-week skeletons: phase, intensity, volume target
// and concrete training dates. Pure date arithmetic, no I/O.
type Planner struct{}

func NewPlanner() *Planner {
	return &Planner{}
}

// Skeleton builds the full plan skeleton, weeks 1..TotalWeeks.
func (p *Planner) Skeleton(params PlanParams) ([]domain.TrainingWeek, error) {
	return p.SkeletonFrom(params, 1, params.StartDate)
}

// SkeletonFrom builds weeks fromWeek..TotalWeeks with the given anchor date
// for the first built week. Used by adaptations that rebuild only the future
// portion of a plan: phase and intensity depend on the absolute week number,
// so a rebuilt week 6 of 12 looks the same as a generated one.
func (p *Planner) SkeletonFrom(params PlanParams, fromWeek int, weekStart time.Time) ([]domain.TrainingWeek, error) {
	if err := p.Validate(params); err != nil {
		return nil, err
	}
	if fromWeek < 1 || fromWeek > params.TotalWeeks {
		return nil, fmt.Errorf("from week %d outside plan of %d weeks", fromWeek, params.TotalWeeks)
	}

	days := selectTrainingDays(params.Days, params.DaysPerWeek)
	anchor := startOfDay(weekStart)

	weeks := make([]domain.TrainingWeek, 0, params.TotalWeeks-fromWeek+1)
	for n := fromWeek; n <= params.TotalWeeks; n++ {
		start := anchor.AddDate(0, 0, 7*(n-fromWeek))
		end := start.AddDate(0, 0, 6)
		phase := phaseForWeek(n, params.TotalWeeks)

		week := domain.TrainingWeek{
			WeekNumber:    n,
			Phase:         phase,
			Intensity:     intensityForPhase(phase, n, params.Level),
			VolumeMinutes: volumeForPhase(phase, params.Level),
			StartDate:     start,
			EndDate:       end,
			TrainingDates: trainingDates(start, days),
		}
		weeks = append(weeks, week)
	}
	return weeks, nil
}

// Validate checks the availability constraints before anything is persisted.
func (p *Planner) Validate(params PlanParams) error {
	if len(params.Days) == 0 || params.DaysPerWeek < 1 || params.DaysPerWeek > len(params.Days) {
		return ErrInsufficientAvailability
	}
	if params.TotalWeeks < 1 {
		return ErrInvalidHorizon
	}
	return nil
}

// phaseForWeek maps an absolute week number to its macro-cycle phase.
// Cycles of 4: Foundation, Build, Peak, Recovery. The final week is always
// Recovery so the plan tapers into the goal.
func phaseForWeek(weekNumber, totalWeeks int) domain.TrainingPhase {
	if weekNumber == totalWeeks {
		return domain.PhaseRecovery
	}
	switch (weekNumber - 1) % 4 {
	case 0:
		return domain.PhaseFoundation
	case 1:
		return domain.PhaseBuild
	case 2:
		return domain.PhasePeak
	default:
		return domain.PhaseRecovery
	}
}

// intensityForPhase is non-decreasing Foundation -> Peak and drops sharply at
// Recovery. From the second macro-cycle onward, advanced athletes peak at
// Maximum instead of High.
func intensityForPhase(phase domain.TrainingPhase, weekNumber int, level domain.FitnessLevel) domain.IntensityLevel {
	switch phase {
	case domain.PhaseFoundation:
		return domain.IntensityLow
	case domain.PhaseBuild:
		return domain.IntensityModerate
	case domain.PhasePeak:
		if weekNumber > 4 && level >= domain.FitnessAdvanced {
			return domain.IntensityMaximum
		}
		return domain.IntensityHigh
	default:
		return domain.IntensityLow
	}
}

// baseVolumeMinutes is the weekly volume baseline per overall fitness level.
var baseVolumeMinutes = map[domain.FitnessLevel]int{
	domain.FitnessBeginner:     150,
	domain.FitnessNovice:       180,
	domain.FitnessIntermediate: 220,
	domain.FitnessAdvanced:     270,
	domain.FitnessElite:        330,
}

// phaseVolumeFactor scales the baseline: Peak > Build > Foundation > Recovery.
var phaseVolumeFactor = map[domain.TrainingPhase]float64{
	domain.PhaseFoundation: 1.0,
	domain.PhaseBuild:      1.15,
	domain.PhasePeak:       1.3,
	domain.PhaseRecovery:   0.6,
}

func volumeForPhase(phase domain.TrainingPhase, level domain.FitnessLevel) int {
	base, ok := baseVolumeMinutes[level]
	if !ok {
		base = baseVolumeMinutes[domain.FitnessBeginner]
	}
	v := float64(base) * phaseVolumeFactor[phase]
	// Round to the nearest 5 minutes.
	return int(v/5+0.5) * 5
}

// selectTrainingDays picks count days from the availability set, spread as
// evenly as possible. The input order is Monday-first and the selection is
// index-based, so the result is deterministic for identical input.
func selectTrainingDays(available []time.Weekday, count int) []time.Weekday {
	if count >= len(available) {
		return available
	}
	if count == 1 {
		return available[:1]
	}
	picked := make([]time.Weekday, 0, count)
	n := len(available)
	for i := 0; i < count; i++ {
		// Evenly spaced indices across the available set, endpoints included.
		idx := (i*(n-1) + (count-1)/2) / (count - 1)
		picked = append(picked, available[idx])
	}
	return dedupeWeekdays(picked, available, count)
}

// dedupeWeekdays guards against index collisions from the spacing formula by
// filling any gaps with the earliest unused available days.
func dedupeWeekdays(picked, available []time.Weekday, count int) []time.Weekday {
	seen := make(map[time.Weekday]bool, len(picked))
	out := make([]time.Weekday, 0, count)
	for _, d := range picked {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	for _, d := range available {
		if len(out) >= count {
			break
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sortWeekdaysMondayFirst(out)
	return out
}

// sortWeekdaysMondayFirst orders weekdays Monday..Sunday in place.
func sortWeekdaysMondayFirst(days []time.Weekday) {
	mondayIndex := func(d time.Weekday) int {
		// time.Sunday == 0; shift so Monday sorts first.
		return (int(d) + 6) % 7
	}
	for i := 1; i < len(days); i++ {
		for j := i; j > 0 && mondayIndex(days[j]) < mondayIndex(days[j-1]); j-- {
			days[j], days[j-1] = days[j-1], days[j]
		}
	}
}

// trainingDates resolves the selected weekdays to concrete dates within the
// week starting at weekStart, ordered earliest first.
func trainingDates(weekStart time.Time, days []time.Weekday) []time.Time {
	dates := make([]time.Time, 0, len(days))
	for offset := 0; offset < 7; offset++ {
		d := weekStart.AddDate(0, 0, offset)
		for _, wd := range days {
			if d.Weekday() == wd {
				dates = append(dates, d)
				break
			}
		}
	}
	return dates
}

// NearestSelectedWeekday returns the selected weekday closest to the given
// one; ties resolve to the earlier day in the week. Used when a pinned key
// workout's weekday is dropped from the availability set.
func NearestSelectedWeekday(target time.Weekday, selected []time.Weekday) time.Weekday {
	mondayIndex := func(d time.Weekday) int { return (int(d) + 6) % 7 }
	best := selected[0]
	bestDist := 8
	for _, d := range selected {
		dist := mondayIndex(d) - mondayIndex(target)
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist || (dist == bestDist && mondayIndex(d) < mondayIndex(best)) {
			best = d
			bestDist = dist
		}
	}
	return best
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextWeekStart returns the Monday on or after the given date, the anchor
// used for newly generated plans.
func NextWeekStart(from time.Time) time.Time {
	d := startOfDay(from)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
