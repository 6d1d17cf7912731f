package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"forgefit/training-engine/internal/domain"
	"forgefit/training-engine/internal/repository"
	"forgefit/training-engine/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound   = errors.New("exercise not found")
	ErrValidationFailed   = errors.New("exercise validation failed")
	ErrBadProgressionLink = errors.New("progression link references an unknown exercise")
	ErrUploadURLError     = errors.New("failed to generate upload URL")
	ErrNoDemoMedia        = errors.New("exercise has no demonstration media")
)

// UploadURLResponse carries a presigned PUT URL and the object key the admin
// must confirm after uploading.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// --- Service Interface ---
type ExerciseService interface {
	CreateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	FindExercises(ctx context.Context, criteria repository.ExerciseCriteria) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, exerciseID primitive.ObjectID) error

	// Progression graph maintenance. Regression/progression are single
	// edges; alternatives accumulate.
	LinkProgression(ctx context.Context, baseID primitive.ObjectID, regressionID, progressionID *primitive.ObjectID, alternativeIDs []primitive.ObjectID) (*domain.Exercise, error)

	// Demonstration media (file lives in S3; we store the object key).
	RequestDemoUploadURL(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmDemoUpload(ctx context.Context, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error)
	GetDemoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error)
}

type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	fileStorage  storage.FileStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository, fileStorage storage.FileStorage) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		fileStorage:  fileStorage,
	}
}

// CreateExercise adds a catalog entry.
func (s *exerciseService) CreateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error) {
	if exercise.Name == "" || exercise.Discipline == "" || exercise.PrimaryPattern == "" {
		return nil, ErrValidationFailed
	}
	if exercise.Difficulty < domain.FitnessBeginner || exercise.Difficulty > domain.FitnessElite {
		return nil, ErrValidationFailed
	}
	id, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	return s.exerciseRepo.GetByID(ctx, id)
}

func (s *exerciseService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

func (s *exerciseService) FindExercises(ctx context.Context, criteria repository.ExerciseCriteria) ([]domain.Exercise, error) {
	return s.exerciseRepo.Find(ctx, criteria)
}

func (s *exerciseService) UpdateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error) {
	if exercise.ID == primitive.NilObjectID || exercise.Name == "" {
		return nil, ErrValidationFailed
	}
	if _, err := s.GetExerciseByID(ctx, exercise.ID); err != nil {
		return nil, err
	}
	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

func (s *exerciseService) DeleteExercise(ctx context.Context, exerciseID primitive.ObjectID) error {
	err := s.exerciseRepo.Delete(ctx, exerciseID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrExerciseNotFound
	}
	return err
}

// LinkProgression sets the graph edges on the base exercise after verifying
// every referenced id exists. Passing nil leaves an edge unchanged; the
// alternatives list, when non-nil, replaces the stored one.
func (s *exerciseService) LinkProgression(ctx context.Context, baseID primitive.ObjectID, regressionID, progressionID *primitive.ObjectID, alternativeIDs []primitive.ObjectID) (*domain.Exercise, error) {
	base, err := s.GetExerciseByID(ctx, baseID)
	if err != nil {
		return nil, err
	}

	verify := func(id primitive.ObjectID) error {
		if id == baseID {
			return ErrBadProgressionLink
		}
		if _, err := s.exerciseRepo.GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBadProgressionLink
			}
			return err
		}
		return nil
	}

	if regressionID != nil {
		if err := verify(*regressionID); err != nil {
			return nil, err
		}
		base.RegressionID = regressionID
	}
	if progressionID != nil {
		if err := verify(*progressionID); err != nil {
			return nil, err
		}
		base.ProgressionID = progressionID
	}
	if alternativeIDs != nil {
		for _, id := range alternativeIDs {
			if err := verify(id); err != nil {
				return nil, err
			}
		}
		base.AlternativeIDs = alternativeIDs
	}

	if err := s.exerciseRepo.Update(ctx, base); err != nil {
		return nil, err
	}
	return base, nil
}

// RequestDemoUploadURL generates a presigned PUT URL for demonstration media.
func (s *exerciseService) RequestDemoUploadURL(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if _, err := s.GetExerciseByID(ctx, exerciseID); err != nil {
		return nil, err
	}

	uniqueID := uuid.NewString()
	fileExtension := "bin"
	if parts := strings.Split(contentType, "/"); len(parts) == 2 {
		fileExtension = parts[1]
	}
	objectKey := path.Join("exercise-demos", exerciseID.Hex(), fmt.Sprintf("%s.%s", uniqueID, fileExtension))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmDemoUpload records the object key after the admin uploaded the file.
// A previous demo object, if any, is deleted from storage.
func (s *exerciseService) ConfirmDemoUpload(ctx context.Context, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error) {
	if objectKey == "" {
		return nil, ErrValidationFailed
	}
	exercise, err := s.GetExerciseByID(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if exercise.DemoObjectKey != "" && exercise.DemoObjectKey != objectKey {
		// Best effort; a dangling object is not worth failing the confirm.
		_ = s.fileStorage.DeleteObject(ctx, exercise.DemoObjectKey)
	}
	exercise.DemoObjectKey = objectKey
	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

// GetDemoDownloadURL returns a presigned GET URL for the exercise's media.
func (s *exerciseService) GetDemoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error) {
	exercise, err := s.GetExerciseByID(ctx, exerciseID)
	if err != nil {
		return "", err
	}
	if exercise.DemoObjectKey == "" {
		return "", ErrNoDemoMedia
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, exercise.DemoObjectKey, storage.DefaultPresignedURLExpiry)
}
