package service

import (
	"context"
	"errors"
	"time"

	"forgefit/training-engine/internal/domain"
	"forgefit/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrProfileNotFound      = errors.New("fitness profile not found")
	ErrProfileExists        = errors.New("user already has a fitness profile")
	ErrGoalNotFound         = errors.New("goal not found")
	ErrGoalAccessDenied     = errors.New("goal does not belong to this user")
	ErrInjuryNotFound       = errors.New("injury not found")
	ErrInjuryAccessDenied   = errors.New("injury does not belong to this user")
	ErrTargetDateInPast     = errors.New("goal target date must not be in the past")
	ErrInvalidAvailability  = errors.New("availability must select at least one day")
	ErrInvalidSessionBounds = errors.New("min sessions per week must be positive and not exceed max")
)

// --- Service Interface ---
type ProfileService interface {
	CreateProfile(ctx context.Context, userID primitive.ObjectID, profile *domain.UserProfile) (*domain.UserProfile, error)
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error)
	UpdateAvailability(ctx context.Context, userID primitive.ObjectID, availability domain.ScheduleAvailability) (*domain.UserProfile, error)
	UpdateFitnessLevels(ctx context.Context, userID primitive.ObjectID, hyrox, running, strength domain.FitnessLevel) (*domain.UserProfile, error)

	AddGoal(ctx context.Context, userID primitive.ObjectID, goalType domain.GoalType, description string, targetDate *time.Time, priority int) (*domain.TrainingGoal, error)
	SetGoalStatus(ctx context.Context, userID, goalID primitive.ObjectID, status domain.GoalStatus) (*domain.TrainingGoal, error)

	ReportInjury(ctx context.Context, userID primitive.ObjectID, bodyPart domain.BodyPart, injuryType domain.InjuryType, restrictions string) (*domain.InjuryLimitation, error)
	ResolveInjury(ctx context.Context, userID, injuryID primitive.ObjectID) (*domain.InjuryLimitation, error)
}

type profileService struct {
	profileRepo repository.ProfileRepository
}

// NewProfileService creates a new instance of profileService.
func NewProfileService(profileRepo repository.ProfileRepository) ProfileService {
	return &profileService{profileRepo: profileRepo}
}

// CreateProfile sets up the one-per-user fitness profile.
func (s *profileService) CreateProfile(ctx context.Context, userID primitive.ObjectID, profile *domain.UserProfile) (*domain.UserProfile, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}
	if err := validateAvailability(profile.Availability); err != nil {
		return nil, err
	}

	if _, err := s.profileRepo.GetByUserID(ctx, userID); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	profile.UserID = userID
	clampLevels(profile)
	id, err := s.profileRepo.Create(ctx, profile)
	if err != nil {
		return nil, err
	}
	profile.ID = id
	return profile, nil
}

// GetProfile returns the profile with goals and injuries loaded.
func (s *profileService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (s *profileService) UpdateAvailability(ctx context.Context, userID primitive.ObjectID, availability domain.ScheduleAvailability) (*domain.UserProfile, error) {
	if err := validateAvailability(availability); err != nil {
		return nil, err
	}
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Availability = availability
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *profileService) UpdateFitnessLevels(ctx context.Context, userID primitive.ObjectID, hyrox, running, strength domain.FitnessLevel) (*domain.UserProfile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.HyroxLevel = hyrox
	profile.RunningLevel = running
	profile.StrengthLevel = strength
	clampLevels(profile)
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// AddGoal creates a training goal. A target date in the past is rejected.
func (s *profileService) AddGoal(ctx context.Context, userID primitive.ObjectID, goalType domain.GoalType, description string, targetDate *time.Time, priority int) (*domain.TrainingGoal, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if targetDate != nil && targetDate.Before(time.Now().Truncate(24*time.Hour)) {
		return nil, ErrTargetDateInPast
	}
	if priority < 1 {
		priority = 1
	}

	goal := &domain.TrainingGoal{
		ProfileID:   profile.ID,
		Type:        goalType,
		Description: description,
		TargetDate:  targetDate,
		Priority:    priority,
		Status:      domain.GoalStatusActive,
	}
	id, err := s.profileRepo.AddGoal(ctx, goal)
	if err != nil {
		return nil, err
	}
	goal.ID = id
	return goal, nil
}

func (s *profileService) SetGoalStatus(ctx context.Context, userID, goalID primitive.ObjectID, status domain.GoalStatus) (*domain.TrainingGoal, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	goal, err := s.profileRepo.GetGoalByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	if goal.ProfileID != profile.ID {
		return nil, ErrGoalAccessDenied
	}
	goal.Status = status
	if err := s.profileRepo.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// ReportInjury records a new active injury on the profile. The caller then
// decides whether to run the injury adaptation against the active plan.
func (s *profileService) ReportInjury(ctx context.Context, userID primitive.ObjectID, bodyPart domain.BodyPart, injuryType domain.InjuryType, restrictions string) (*domain.InjuryLimitation, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	injury := &domain.InjuryLimitation{
		ProfileID:    profile.ID,
		BodyPart:     bodyPart,
		Type:         injuryType,
		ReportedAt:   time.Now().UTC(),
		Status:       domain.InjuryStatusActive,
		Restrictions: restrictions,
	}
	id, err := s.profileRepo.AddInjury(ctx, injury)
	if err != nil {
		return nil, err
	}
	injury.ID = id
	return injury, nil
}

func (s *profileService) ResolveInjury(ctx context.Context, userID, injuryID primitive.ObjectID) (*domain.InjuryLimitation, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	injury, err := s.profileRepo.GetInjuryByID(ctx, injuryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInjuryNotFound
		}
		return nil, err
	}
	if injury.ProfileID != profile.ID {
		return nil, ErrInjuryAccessDenied
	}
	now := time.Now().UTC()
	injury.Status = domain.InjuryStatusResolved
	injury.ResolvedAt = &now
	if err := s.profileRepo.UpdateInjury(ctx, injury); err != nil {
		return nil, err
	}
	return injury, nil
}

func validateAvailability(a domain.ScheduleAvailability) error {
	if len(a.SelectedDays()) == 0 {
		return ErrInvalidAvailability
	}
	if a.MinSessionsPerWeek < 1 || a.MinSessionsPerWeek > a.MaxSessionsPerWeek {
		return ErrInvalidSessionBounds
	}
	return nil
}

func clampLevels(p *domain.UserProfile) {
	clamp := func(l domain.FitnessLevel) domain.FitnessLevel {
		if l < domain.FitnessBeginner {
			return domain.FitnessBeginner
		}
		if l > domain.FitnessElite {
			return domain.FitnessElite
		}
		return l
	}
	p.HyroxLevel = clamp(p.HyroxLevel)
	p.RunningLevel = clamp(p.RunningLevel)
	p.StrengthLevel = clamp(p.StrengthLevel)
}
