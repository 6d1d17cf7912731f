package api

import (
	"errors"
	"fmt"
	"net/http"

	"forgefit/training-engine/internal/domain"
	"forgefit/training-engine/internal/repository"
	"forgefit/training-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// --- Request Structs ---

type LinkProgressionRequest struct {
	RegressionID   *string  `json:"regressionId"`
	ProgressionID  *string  `json:"progressionId"`
	AlternativeIDs []string `json:"alternativeIds"`
}

type RequestUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmUploadRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// --- Handler Methods ---

// CreateExercise adds a catalog entry. Admin only.
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var exercise domain.Exercise
	if err := c.ShouldBindJSON(&exercise); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	created, err := h.exerciseService.CreateExercise(c.Request.Context(), &exercise)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create exercise")
		}
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetExercise returns a single catalog entry.
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "exerciseId")
	if !ok {
		return
	}

	exercise, err := h.exerciseService.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve exercise")
		}
		return
	}
	c.JSON(http.StatusOK, exercise)
}

// FindExercises searches the catalog. Query params: discipline, maxDifficulty,
// sessionType; all optional.
func (h *ExerciseHandler) FindExercises(c *gin.Context) {
	var criteria repository.ExerciseCriteria

	if v := c.Query("discipline"); v != "" {
		d := domain.Discipline(v)
		criteria.Discipline = &d
	}
	if v := c.Query("maxDifficulty"); v != "" {
		var level int
		if _, err := fmt.Sscanf(v, "%d", &level); err != nil || level < 1 || level > 5 {
			abortWithError(c, http.StatusBadRequest, "maxDifficulty must be an integer between 1 and 5")
			return
		}
		fl := domain.FitnessLevel(level)
		criteria.Difficulty = &fl
	}
	if v := c.Query("sessionType"); v != "" {
		st := domain.SessionType(v)
		criteria.SessionType = &st
	}

	exercises, err := h.exerciseService.FindExercises(c.Request.Context(), criteria)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to search exercises")
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// UpdateExercise replaces a catalog entry. Admin only.
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "exerciseId")
	if !ok {
		return
	}

	var exercise domain.Exercise
	if err := c.ShouldBindJSON(&exercise); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exercise.ID = exerciseID

	updated, err := h.exerciseService.UpdateExercise(c.Request.Context(), &exercise)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update exercise")
		}
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteExercise removes a catalog entry. Admin only.
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "exerciseId")
	if !ok {
		return
	}

	if err := h.exerciseService.DeleteExercise(c.Request.Context(), exerciseID); err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete exercise")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// LinkProgression sets progression graph edges on an exercise. Admin only.
func (h *ExerciseHandler) LinkProgression(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "exerciseId")
	if !ok {
		return
	}

	var req LinkProgressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	parseOptional := func(s *string) (*primitive.ObjectID, error) {
		if s == nil {
			return nil, nil
		}
		id, err := primitive.ObjectIDFromHex(*s)
		if err != nil {
			return nil, err
		}
		return &id, nil
	}

	regressionID, err := parseOptional(req.RegressionID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid regressionId format")
		return
	}
	progressionID, err := parseOptional(req.ProgressionID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid progressionId format")
		return
	}

	var alternativeIDs []primitive.ObjectID
	if req.AlternativeIDs != nil {
		alternativeIDs = make([]primitive.ObjectID, 0, len(req.AlternativeIDs))
		for _, s := range req.AlternativeIDs {
			id, err := primitive.ObjectIDFromHex(s)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, "Invalid alternativeIds format")
				return
			}
			alternativeIDs = append(alternativeIDs, id)
		}
	}

	exercise, err := h.exerciseService.LinkProgression(c.Request.Context(), exerciseID, regressionID, progressionID, alternativeIDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrBadProgressionLink):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to link progression")
		}
		return
	}
	c.JSON(http.StatusOK, exercise)
}

// RequestDemoUploadURL returns a presigned PUT URL for demo media. Admin only.
func (h *ExerciseHandler) RequestDemoUploadURL(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "exerciseId")
	if !ok {
		return
	}

	var req RequestUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resp, err := h.exerciseService.RequestDemoUploadURL(c.Request.Context(), exerciseID, req.ContentType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrUploadURLError):
			abortWithError(c, http.StatusInternalServerError, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmDemoUpload records the uploaded object key. Admin only.
func (h *ExerciseHandler) ConfirmDemoUpload(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "exerciseId")
	if !ok {
		return
	}

	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.exerciseService.ConfirmDemoUpload(c.Request.Context(), exerciseID, req.ObjectKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to confirm upload")
		}
		return
	}
	c.JSON(http.StatusOK, exercise)
}

// GetDemoDownloadURL returns a presigned GET URL for the exercise demo media.
func (h *ExerciseHandler) GetDemoDownloadURL(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "exerciseId")
	if !ok {
		return
	}

	url, err := h.exerciseService.GetDemoDownloadURL(c.Request.Context(), exerciseID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound), errors.Is(err, service.ErrNoDemoMedia):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}
