package service

import (
	"context"
	"time"

	"forgefit/training-engine/internal/domain"
	"forgefit/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes shared by the service tests.

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	u.ID = primitive.NewObjectID()
	cp := *u
	f.users[u.ID] = &cp
	return u.ID, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeProfileRepo struct {
	profiles map[primitive.ObjectID]*domain.UserProfile // keyed by user ID
	goals    map[primitive.ObjectID]*domain.TrainingGoal
	injuries map[primitive.ObjectID]*domain.InjuryLimitation
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		profiles: make(map[primitive.ObjectID]*domain.UserProfile),
		goals:    make(map[primitive.ObjectID]*domain.TrainingGoal),
		injuries: make(map[primitive.ObjectID]*domain.InjuryLimitation),
	}
}

func (f *fakeProfileRepo) Create(_ context.Context, p *domain.UserProfile) (primitive.ObjectID, error) {
	p.ID = primitive.NewObjectID()
	f.profiles[p.UserID] = p
	return p.ID, nil
}

func (f *fakeProfileRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfileRepo) Update(_ context.Context, p *domain.UserProfile) error {
	if _, ok := f.profiles[p.UserID]; !ok {
		return repository.ErrNotFound
	}
	f.profiles[p.UserID] = p
	return nil
}

func (f *fakeProfileRepo) AddGoal(_ context.Context, g *domain.TrainingGoal) (primitive.ObjectID, error) {
	g.ID = primitive.NewObjectID()
	f.goals[g.ID] = g
	return g.ID, nil
}

func (f *fakeProfileRepo) GetGoalByID(_ context.Context, id primitive.ObjectID) (*domain.TrainingGoal, error) {
	g, ok := f.goals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeProfileRepo) UpdateGoal(_ context.Context, g *domain.TrainingGoal) error {
	if _, ok := f.goals[g.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *g
	f.goals[g.ID] = &cp
	return nil
}

func (f *fakeProfileRepo) AddInjury(_ context.Context, inj *domain.InjuryLimitation) (primitive.ObjectID, error) {
	inj.ID = primitive.NewObjectID()
	f.injuries[inj.ID] = inj
	return inj.ID, nil
}

func (f *fakeProfileRepo) GetInjuryByID(_ context.Context, id primitive.ObjectID) (*domain.InjuryLimitation, error) {
	inj, ok := f.injuries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *inj
	return &cp, nil
}

func (f *fakeProfileRepo) UpdateInjury(_ context.Context, inj *domain.InjuryLimitation) error {
	if _, ok := f.injuries[inj.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *inj
	f.injuries[inj.ID] = &cp
	return nil
}

type fakePlanRepo struct {
	plans map[primitive.ObjectID]*domain.TrainingPlan
	order []primitive.ObjectID
	// conflictOnUpdate forces the next revisioned update to report a
	// concurrent modification.
	conflictOnUpdate bool
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[primitive.ObjectID]*domain.TrainingPlan)}
}

func (f *fakePlanRepo) Create(_ context.Context, p *domain.TrainingPlan) (primitive.ObjectID, error) {
	p.ID = primitive.NewObjectID()
	p.Revision = 1
	cp := *p
	f.plans[p.ID] = &cp
	f.order = append(f.order, p.ID)
	return p.ID, nil
}

func (f *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	p, ok := f.plans[id]
	if !ok || p.Deleted {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlanRepo) GetActiveByUserID(_ context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error) {
	for _, id := range f.order {
		p := f.plans[id]
		if p.UserID == userID && p.Status == domain.PlanStatusActive && !p.Deleted {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePlanRepo) ListByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.TrainingPlan, error) {
	var out []domain.TrainingPlan
	for _, id := range f.order {
		p := f.plans[id]
		if p.UserID == userID && !p.Deleted {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePlanRepo) Update(_ context.Context, p *domain.TrainingPlan) error {
	stored, ok := f.plans[p.ID]
	if !ok || stored.Deleted {
		return repository.ErrNotFound
	}
	if f.conflictOnUpdate || stored.Revision != p.Revision {
		return repository.ErrConflict
	}
	p.Revision++
	cp := *p
	f.plans[p.ID] = &cp
	return nil
}

func (f *fakePlanRepo) SetStatus(_ context.Context, id primitive.ObjectID, status domain.PlanStatus) error {
	p, ok := f.plans[id]
	if !ok || p.Deleted {
		return repository.ErrNotFound
	}
	p.Status = status
	return nil
}

func (f *fakePlanRepo) SoftDelete(_ context.Context, id, userID primitive.ObjectID) error {
	p, ok := f.plans[id]
	if !ok || p.UserID != userID || p.Deleted {
		return repository.ErrNotFound
	}
	p.Deleted = true
	return nil
}

type fakeWorkoutRepo struct {
	byID  map[primitive.ObjectID]*domain.Workout
	order []primitive.ObjectID
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{byID: make(map[primitive.ObjectID]*domain.Workout)}
}

func (f *fakeWorkoutRepo) CreateMany(_ context.Context, workouts []domain.Workout) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(workouts))
	for i := range workouts {
		w := workouts[i]
		w.ID = primitive.NewObjectID()
		if w.Status == "" {
			w.Status = domain.StatusNotStarted
		}
		f.byID[w.ID] = &w
		f.order = append(f.order, w.ID)
		ids = append(ids, w.ID)
	}
	return ids, nil
}

func (f *fakeWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	w, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWorkoutRepo) GetByPlanID(_ context.Context, planID primitive.ObjectID) ([]domain.Workout, error) {
	var out []domain.Workout
	for _, id := range f.order {
		if w, ok := f.byID[id]; ok && w.PlanID == planID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWorkoutRepo) GetByPlanAndWeek(ctx context.Context, planID primitive.ObjectID, weekNumber int) ([]domain.Workout, error) {
	all, _ := f.GetByPlanID(ctx, planID)
	var out []domain.Workout
	for _, w := range all {
		if w.WeekNumber == weekNumber {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWorkoutRepo) Update(_ context.Context, w *domain.Workout) error {
	if _, ok := f.byID[w.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *w
	f.byID[w.ID] = &cp
	return nil
}

func (f *fakeWorkoutRepo) DeleteFutureByPlanID(_ context.Context, planID primitive.ObjectID, from time.Time) (int64, error) {
	var deleted int64
	var kept []primitive.ObjectID
	for _, id := range f.order {
		w := f.byID[id]
		if w.PlanID == planID && !w.IsCompleted() && !w.ScheduledDate.Before(from) {
			delete(f.byID, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	f.order = kept
	return deleted, nil
}

type fakeExerciseRepo struct {
	exercises []domain.Exercise
}

func (f *fakeExerciseRepo) Create(_ context.Context, ex *domain.Exercise) (primitive.ObjectID, error) {
	ex.ID = primitive.NewObjectID()
	f.exercises = append(f.exercises, *ex)
	return ex.ID, nil
}

func (f *fakeExerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	for i := range f.exercises {
		if f.exercises[i].ID == id {
			cp := f.exercises[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeExerciseRepo) Find(_ context.Context, criteria repository.ExerciseCriteria) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, ex := range f.exercises {
		if criteria.Discipline != nil && ex.Discipline != *criteria.Discipline {
			continue
		}
		if criteria.Difficulty != nil && ex.Difficulty > *criteria.Difficulty {
			continue
		}
		out = append(out, ex)
	}
	return out, nil
}

func (f *fakeExerciseRepo) Update(_ context.Context, ex *domain.Exercise) error {
	for i := range f.exercises {
		if f.exercises[i].ID == ex.ID {
			f.exercises[i] = *ex
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeExerciseRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i := range f.exercises {
		if f.exercises[i].ID == id {
			f.exercises = append(f.exercises[:i], f.exercises[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeAdaptationRepo struct {
	records []domain.PlanAdaptation
}

func (f *fakeAdaptationRepo) Add(_ context.Context, a *domain.PlanAdaptation) (primitive.ObjectID, error) {
	a.ID = primitive.NewObjectID()
	f.records = append(f.records, *a)
	return a.ID, nil
}

func (f *fakeAdaptationRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.PlanAdaptation, error) {
	for i := range f.records {
		if f.records[i].ID == id {
			cp := f.records[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAdaptationRepo) ListByPlanID(_ context.Context, planID primitive.ObjectID) ([]domain.PlanAdaptation, error) {
	var out []domain.PlanAdaptation
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].PlanID == planID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeAdaptationRepo) MostRecentByPlanID(ctx context.Context, planID primitive.ObjectID) (*domain.PlanAdaptation, error) {
	list, _ := f.ListByPlanID(ctx, planID)
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	cp := list[0]
	return &cp, nil
}

func (f *fakeAdaptationRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i := range f.records {
		if f.records[i].ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeHistoryRepo struct {
	records []domain.CompletionHistory
}

func (f *fakeHistoryRepo) Add(_ context.Context, r *domain.CompletionHistory) (primitive.ObjectID, error) {
	r.ID = primitive.NewObjectID()
	f.records = append(f.records, *r)
	return r.ID, nil
}

func (f *fakeHistoryRepo) GetByWorkoutID(_ context.Context, workoutID primitive.ObjectID) (*domain.CompletionHistory, error) {
	for i := range f.records {
		if f.records[i].WorkoutID == workoutID {
			cp := f.records[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeHistoryRepo) ListByUserID(_ context.Context, userID primitive.ObjectID, limit int) ([]domain.CompletionHistory, error) {
	var out []domain.CompletionHistory
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].UserID != userID {
			continue
		}
		out = append(out, f.records[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) DistinctCompletionDates(_ context.Context, userID primitive.ObjectID) ([]time.Time, error) {
	seen := make(map[time.Time]bool)
	var out []time.Time
	for _, r := range f.records {
		if r.UserID != userID {
			continue
		}
		t := r.CompletedAt.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if !seen[day] {
			seen[day] = true
			out = append(out, day)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Before(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) DeleteByWorkoutID(_ context.Context, workoutID primitive.ObjectID) error {
	kept := f.records[:0]
	removed := false
	for _, r := range f.records {
		if r.WorkoutID == workoutID {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	f.records = kept
	if !removed {
		return repository.ErrNotFound
	}
	return nil
}

type fakeStreakRepo struct {
	streaks map[primitive.ObjectID]*domain.UserStreak
}

func newFakeStreakRepo() *fakeStreakRepo {
	return &fakeStreakRepo{streaks: make(map[primitive.ObjectID]*domain.UserStreak)}
}

func (f *fakeStreakRepo) GetOrCreate(_ context.Context, userID primitive.ObjectID) (*domain.UserStreak, error) {
	if st, ok := f.streaks[userID]; ok {
		cp := *st
		return &cp, nil
	}
	st := &domain.UserStreak{ID: primitive.NewObjectID(), UserID: userID}
	f.streaks[userID] = st
	cp := *st
	return &cp, nil
}

func (f *fakeStreakRepo) Update(_ context.Context, st *domain.UserStreak) error {
	if _, ok := f.streaks[st.UserID]; !ok {
		return repository.ErrNotFound
	}
	cp := *st
	f.streaks[st.UserID] = &cp
	return nil
}
