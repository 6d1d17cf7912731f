package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"forgefit/training-engine/internal/domain"
	"forgefit/training-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// ProfileHandler holds the profile service dependency.
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// --- Request Structs ---

type CreateProfileRequest struct {
	HyroxLevel    domain.FitnessLevel         `json:"hyroxLevel" binding:"required,min=1,max=5"`
	RunningLevel  domain.FitnessLevel         `json:"runningLevel" binding:"required,min=1,max=5"`
	StrengthLevel domain.FitnessLevel         `json:"strengthLevel" binding:"required,min=1,max=5"`
	Availability  domain.ScheduleAvailability `json:"availability" binding:"required"`
	Background    domain.TrainingBackground   `json:"background"`
}

type UpdateLevelsRequest struct {
	HyroxLevel    domain.FitnessLevel `json:"hyroxLevel" binding:"required,min=1,max=5"`
	RunningLevel  domain.FitnessLevel `json:"runningLevel" binding:"required,min=1,max=5"`
	StrengthLevel domain.FitnessLevel `json:"strengthLevel" binding:"required,min=1,max=5"`
}

type AddGoalRequest struct {
	Type        domain.GoalType `json:"type" binding:"required,oneof=hyrox_race running_distance strength_gain general_fitness weight_loss"`
	Description string          `json:"description"`
	TargetDate  *time.Time      `json:"targetDate"`
	Priority    int             `json:"priority"`
}

type SetGoalStatusRequest struct {
	Status domain.GoalStatus `json:"status" binding:"required,oneof=active completed abandoned"`
}

type ReportInjuryRequest struct {
	BodyPart     domain.BodyPart   `json:"bodyPart" binding:"required"`
	Type         domain.InjuryType `json:"type" binding:"required,oneof=acute chronic"`
	Restrictions string            `json:"restrictions"`
}

// --- Handler Methods ---

// CreateProfile sets up the authenticated user's fitness profile.
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	profile := &domain.UserProfile{
		HyroxLevel:    req.HyroxLevel,
		RunningLevel:  req.RunningLevel,
		StrengthLevel: req.StrengthLevel,
		Availability:  req.Availability,
		Background:    req.Background,
	}

	created, err := h.profileService.CreateProfile(c.Request.Context(), userID, profile)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProfileExists):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidAvailability), errors.Is(err, service.ErrInvalidSessionBounds):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create profile")
		}
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetProfile returns the authenticated user's profile with goals and injuries.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve profile")
		}
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateAvailability replaces the training schedule availability. Note this
// does not touch an existing plan; the schedule-change adaptation does that.
func (h *ProfileHandler) UpdateAvailability(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req domain.ScheduleAvailability
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	profile, err := h.profileService.UpdateAvailability(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProfileNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidAvailability), errors.Is(err, service.ErrInvalidSessionBounds):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update availability")
		}
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateFitnessLevels replaces the per-discipline fitness levels.
func (h *ProfileHandler) UpdateFitnessLevels(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req UpdateLevelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	profile, err := h.profileService.UpdateFitnessLevels(c.Request.Context(), userID, req.HyroxLevel, req.RunningLevel, req.StrengthLevel)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update fitness levels")
		}
		return
	}
	c.JSON(http.StatusOK, profile)
}

// AddGoal creates a training goal on the profile.
func (h *ProfileHandler) AddGoal(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req AddGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	goal, err := h.profileService.AddGoal(c.Request.Context(), userID, req.Type, req.Description, req.TargetDate, req.Priority)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProfileNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrTargetDateInPast):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to add goal")
		}
		return
	}
	c.JSON(http.StatusCreated, goal)
}

// SetGoalStatus transitions a goal's lifecycle status.
func (h *ProfileHandler) SetGoalStatus(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	goalID, ok := parseIDParam(c, "goalId")
	if !ok {
		return
	}

	var req SetGoalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	goal, err := h.profileService.SetGoalStatus(c.Request.Context(), userID, goalID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProfileNotFound), errors.Is(err, service.ErrGoalNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrGoalAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update goal")
		}
		return
	}
	c.JSON(http.StatusOK, goal)
}

// ReportInjury records a new active injury. The client is expected to follow
// up with the injury adaptation on the active plan if one exists.
func (h *ProfileHandler) ReportInjury(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ReportInjuryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	injury, err := h.profileService.ReportInjury(c.Request.Context(), userID, req.BodyPart, req.Type, req.Restrictions)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to report injury")
		}
		return
	}
	c.JSON(http.StatusCreated, injury)
}

// ResolveInjury marks an injury resolved.
func (h *ProfileHandler) ResolveInjury(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	injuryID, ok := parseIDParam(c, "injuryId")
	if !ok {
		return
	}

	injury, err := h.profileService.ResolveInjury(c.Request.Context(), userID, injuryID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProfileNotFound), errors.Is(err, service.ErrInjuryNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInjuryAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to resolve injury")
		}
		return
	}
	c.JSON(http.StatusOK, injury)
}
