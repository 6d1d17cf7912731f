package api

import (
	"net/http"

	"forgefit/training-engine/internal/domain"
	"forgefit/training-engine/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	profileService service.ProfileService,
	exerciseService service.ExerciseService,
	planService service.PlanService,
	completionService service.CompletionService,
) {
	authHandler := NewAuthHandler(authService)
	profileHandler := NewProfileHandler(profileService)
	exerciseHandler := NewExerciseHandler(exerciseService)
	planHandler := NewPlanHandler(planService)
	workoutHandler := NewWorkoutHandler(completionService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := c.Get(ContextUserRoleKey)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "role": role})
		})

		// --- Profile Routes ---
		profileGroup := protected.Group("/profile")
		{
			profileGroup.POST("", profileHandler.CreateProfile)
			profileGroup.GET("", profileHandler.GetProfile)
			profileGroup.PUT("/availability", profileHandler.UpdateAvailability)
			profileGroup.PUT("/levels", profileHandler.UpdateFitnessLevels)

			profileGroup.POST("/goals", profileHandler.AddGoal)
			profileGroup.PUT("/goals/:goalId/status", profileHandler.SetGoalStatus)

			profileGroup.POST("/injuries", profileHandler.ReportInjury)
			profileGroup.PUT("/injuries/:injuryId/resolve", profileHandler.ResolveInjury)
		}

		// --- Exercise Catalog Routes ---
		// Reads are open to every authenticated user; catalog maintenance is
		// admin only.
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.FindExercises)
			exerciseGroup.GET("/:exerciseId", exerciseHandler.GetExercise)
			exerciseGroup.GET("/:exerciseId/demo", exerciseHandler.GetDemoDownloadURL)

			adminOnly := RoleMiddleware(domain.RoleAdmin)
			exerciseGroup.POST("", adminOnly, exerciseHandler.CreateExercise)
			exerciseGroup.PUT("/:exerciseId", adminOnly, exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:exerciseId", adminOnly, exerciseHandler.DeleteExercise)
			exerciseGroup.PUT("/:exerciseId/progression", adminOnly, exerciseHandler.LinkProgression)
			exerciseGroup.POST("/:exerciseId/demo/upload-url", adminOnly, exerciseHandler.RequestDemoUploadURL)
			exerciseGroup.POST("/:exerciseId/demo/confirm", adminOnly, exerciseHandler.ConfirmDemoUpload)
		}

		// --- Plan Routes ---
		planGroup := protected.Group("/plans")
		{
			planGroup.POST("/generate", planHandler.GeneratePlan)
			planGroup.POST("/regenerate", planHandler.RegeneratePlan)
			planGroup.GET("/active", planHandler.GetActivePlan)
			planGroup.GET("", planHandler.ListPlans)
			planGroup.GET("/:planId", planHandler.GetPlan)
			planGroup.PUT("/:planId/pause", planHandler.PausePlan)
			planGroup.PUT("/:planId/resume", planHandler.ResumePlan)
			planGroup.DELETE("/:planId", planHandler.DeletePlan)
			planGroup.GET("/:planId/adaptations", planHandler.ListAdaptations)
		}

		// --- Adaptation Routes (always target the active plan) ---
		adaptGroup := protected.Group("/adaptations")
		{
			adaptGroup.POST("/missed-workouts", planHandler.AdaptMissedWorkouts)
			adaptGroup.POST("/intensity", planHandler.AdaptIntensity)
			adaptGroup.POST("/schedule", planHandler.AdaptSchedule)
			adaptGroup.POST("/injury", planHandler.AdaptInjury)
			adaptGroup.POST("/goal-timeline", planHandler.AdaptGoalTimeline)
			adaptGroup.POST("/perceived-difficulty", planHandler.AdaptPerceivedDifficulty)
			adaptGroup.POST("/revert", planHandler.RevertLastAdaptation)
		}

		// --- Workout & Progress Routes ---
		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.PUT("/:workoutId/start", workoutHandler.StartWorkout)
			workoutGroup.PUT("/:workoutId/complete", workoutHandler.CompleteWorkout)
			workoutGroup.PUT("/:workoutId/skip", workoutHandler.SkipWorkout)
			workoutGroup.PUT("/:workoutId/undo", workoutHandler.UndoCompletion)
		}

		progressGroup := protected.Group("/progress")
		{
			progressGroup.GET("", workoutHandler.GetProgress)
			progressGroup.POST("/streak/recompute", workoutHandler.RecomputeStreak)
		}
	}
}
