package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"forgefit/training-engine/internal/domain"
	"forgefit/training-engine/internal/engine"
	"forgefit/training-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler holds the plan service dependency.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- Request Structs ---

type RegeneratePlanRequest struct {
	Name       string `json:"name"`
	TotalWeeks int    `json:"totalWeeks" binding:"omitempty,min=1,max=52"`
}

type MissedWorkoutsRequest struct {
	WorkoutIDs []string `json:"workoutIds" binding:"required,min=1"`
}

type AdaptIntensityRequest struct {
	Direction engine.IntensityDirection `json:"direction" binding:"required,oneof=harder easier"`
}

type AdaptScheduleRequest struct {
	Availability domain.ScheduleAvailability `json:"availability" binding:"required"`
	DaysPerWeek  int                         `json:"daysPerWeek" binding:"omitempty,min=1,max=7"`
}

type AdaptInjuryRequest struct {
	InjuryID string `json:"injuryId" binding:"required"`
}

type AdaptGoalTimelineRequest struct {
	GoalID        string    `json:"goalId" binding:"required"`
	NewTargetDate time.Time `json:"newTargetDate" binding:"required"`
}

// --- Handler Methods ---

// GeneratePlan creates a new training plan from the user's profile.
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	plan, err := h.planService.GeneratePlan(c.Request.Context(), userID)
	if err != nil {
		h.abortPlanError(c, err, "Failed to generate plan")
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// RegeneratePlan retires the active plan and generates a fresh one.
func (h *PlanHandler) RegeneratePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req RegeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.RegeneratePlan(c.Request.Context(), userID, &service.RegenerateOptions{
		Name:       req.Name,
		TotalWeeks: req.TotalWeeks,
	})
	if err != nil {
		h.abortPlanError(c, err, "Failed to regenerate plan")
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// GetActivePlan returns the user's active plan.
func (h *PlanHandler) GetActivePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	plan, err := h.planService.GetActivePlan(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoActivePlan) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plan")
		}
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetPlan returns a plan with its workouts.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}

	result, err := h.planService.GetPlanWithWorkouts(c.Request.Context(), userID, planID)
	if err != nil {
		h.abortPlanError(c, err, "Failed to retrieve plan")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListPlans returns all of the user's plans, newest first.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	plans, err := h.planService.ListPlans(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list plans")
		return
	}
	c.JSON(http.StatusOK, plans)
}

// PausePlan pauses a plan.
func (h *PlanHandler) PausePlan(c *gin.Context) {
	h.setStatus(c, h.planService.PausePlan)
}

// ResumePlan reactivates a paused plan.
func (h *PlanHandler) ResumePlan(c *gin.Context) {
	h.setStatus(c, h.planService.ResumePlan)
}

func (h *PlanHandler) setStatus(c *gin.Context, op func(ctx context.Context, userID, planID primitive.ObjectID) error) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}

	if err := op(c.Request.Context(), userID, planID); err != nil {
		h.abortPlanError(c, err, "Failed to update plan status")
		return
	}
	c.Status(http.StatusNoContent)
}

// DeletePlan soft-deletes a plan; adaptation history is preserved.
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}

	if err := h.planService.SoftDeletePlan(c.Request.Context(), userID, planID); err != nil {
		h.abortPlanError(c, err, "Failed to delete plan")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Adaptation endpoints ---

// AdaptMissedWorkouts applies the missed-workouts adaptation.
func (h *PlanHandler) AdaptMissedWorkouts(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req MissedWorkoutsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	workoutIDs := make([]primitive.ObjectID, 0, len(req.WorkoutIDs))
	for _, s := range req.WorkoutIDs {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid workoutIds format")
			return
		}
		workoutIDs = append(workoutIDs, id)
	}

	result, err := h.planService.AdaptForMissedWorkouts(c.Request.Context(), userID, workoutIDs)
	if err != nil {
		h.abortAdaptationError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AdaptIntensity shifts future workout intensity harder or easier.
func (h *PlanHandler) AdaptIntensity(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req AdaptIntensityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	result, err := h.planService.AdaptIntensity(c.Request.Context(), userID, req.Direction)
	if err != nil {
		h.abortAdaptationError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AdaptSchedule rebuilds the remaining weeks on a new availability.
func (h *PlanHandler) AdaptSchedule(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req AdaptScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	result, err := h.planService.AdaptSchedule(c.Request.Context(), userID, req.Availability, req.DaysPerWeek)
	if err != nil {
		h.abortAdaptationError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AdaptInjury substitutes contraindicated exercises in future workouts.
func (h *PlanHandler) AdaptInjury(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req AdaptInjuryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	injuryID, err := primitive.ObjectIDFromHex(req.InjuryID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid injuryId format")
		return
	}

	result, err := h.planService.AdaptForInjury(c.Request.Context(), userID, injuryID)
	if err != nil {
		h.abortAdaptationError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AdaptGoalTimeline recomputes the remaining plan against a new target date.
func (h *PlanHandler) AdaptGoalTimeline(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req AdaptGoalTimelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	goalID, err := primitive.ObjectIDFromHex(req.GoalID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid goalId format")
		return
	}

	result, err := h.planService.AdaptGoalTimeline(c.Request.Context(), userID, goalID, req.NewTargetDate)
	if err != nil {
		h.abortAdaptationError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AdaptPerceivedDifficulty adjusts intensity from recent completion notes.
func (h *PlanHandler) AdaptPerceivedDifficulty(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	result, err := h.planService.AdaptPerceivedDifficulty(c.Request.Context(), userID)
	if err != nil {
		h.abortAdaptationError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListAdaptations returns the adaptation history of a plan, newest first.
func (h *PlanHandler) ListAdaptations(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	planID, ok := parseIDParam(c, "planId")
	if !ok {
		return
	}

	adaptations, err := h.planService.ListAdaptations(c.Request.Context(), userID, planID)
	if err != nil {
		h.abortPlanError(c, err, "Failed to list adaptations")
		return
	}
	c.JSON(http.StatusOK, adaptations)
}

// RevertLastAdaptation removes the most recent adaptation record.
func (h *PlanHandler) RevertLastAdaptation(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	reverted, err := h.planService.RevertLastAdaptation(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, engine.ErrNothingToRevert) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			h.abortAdaptationError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, reverted)
}

// --- Error mapping ---

func (h *PlanHandler) abortPlanError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrNoActivePlan):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrProfileNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrActivePlanExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPlanConflict):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrInsufficientAvailability), errors.Is(err, engine.ErrInvalidHorizon):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}

func (h *PlanHandler) abortAdaptationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrNoActivePlan), errors.Is(err, service.ErrNoActivePlan):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrProfileNotFound), errors.Is(err, service.ErrProfileNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrInjuryNotFound), errors.Is(err, engine.ErrGoalNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrWorkoutNotInPlan),
		errors.Is(err, engine.ErrInjuryNotActive),
		errors.Is(err, engine.ErrPastTargetDate),
		errors.Is(err, engine.ErrInsufficientAvailability),
		errors.Is(err, service.ErrInvalidAvailability),
		errors.Is(err, service.ErrInvalidSessionBounds):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPlanConflict):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to apply adaptation")
	}
}
