package api

import (
	"errors"
	"fmt"
	"net/http"

	"forgefit/training-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// WorkoutHandler holds the completion service dependency.
type WorkoutHandler struct {
	completionService service.CompletionService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(completionService service.CompletionService) *WorkoutHandler {
	return &WorkoutHandler{completionService: completionService}
}

// --- Request Structs ---

type CompleteWorkoutRequest struct {
	ActualMin int    `json:"actualMin" binding:"omitempty,min=0"`
	Notes     string `json:"notes"`
}

// --- Handler Methods ---

// StartWorkout marks a workout in progress.
func (h *WorkoutHandler) StartWorkout(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	workoutID, ok := parseIDParam(c, "workoutId")
	if !ok {
		return
	}

	workout, err := h.completionService.StartWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		h.abortWorkoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, workout)
}

// CompleteWorkout marks a workout completed and returns the refreshed
// progress summary, including any streak milestone crossed.
func (h *WorkoutHandler) CompleteWorkout(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	workoutID, ok := parseIDParam(c, "workoutId")
	if !ok {
		return
	}

	var req CompleteWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	summary, err := h.completionService.CompleteWorkout(c.Request.Context(), userID, workoutID, req.ActualMin, req.Notes)
	if err != nil {
		h.abortWorkoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SkipWorkout marks a workout skipped.
func (h *WorkoutHandler) SkipWorkout(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	workoutID, ok := parseIDParam(c, "workoutId")
	if !ok {
		return
	}

	workout, err := h.completionService.SkipWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		h.abortWorkoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, workout)
}

// UndoCompletion reverts a completed workout to not started.
func (h *WorkoutHandler) UndoCompletion(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	workoutID, ok := parseIDParam(c, "workoutId")
	if !ok {
		return
	}

	workout, err := h.completionService.UndoCompletion(c.Request.Context(), userID, workoutID)
	if err != nil {
		h.abortWorkoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, workout)
}

// GetProgress returns the dashboard progress summary.
func (h *WorkoutHandler) GetProgress(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	summary, err := h.completionService.GetProgress(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve progress")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RecomputeStreak reconciles the stored streak with the completion history.
func (h *WorkoutHandler) RecomputeStreak(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	streak, err := h.completionService.RecomputeStreak(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to recompute streak")
		return
	}
	c.JSON(http.StatusOK, streak)
}

func (h *WorkoutHandler) abortWorkoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorkoutNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrWorkoutAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAlreadyCompleted),
		errors.Is(err, service.ErrNotCompleted),
		errors.Is(err, service.ErrNegativeDuration):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to update workout")
	}
}
