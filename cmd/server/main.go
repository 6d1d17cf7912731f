package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forgefit/training-engine/internal/api"
	"forgefit/training-engine/internal/config"
	"forgefit/training-engine/internal/engine"
	"forgefit/training-engine/internal/repository/mongo"
	"forgefit/training-engine/internal/service"
	"forgefit/training-engine/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("FATAL: Could not initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting training engine server", zap.String("address", cfg.Server.Address))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		ensures := []struct {
			name string
			fn   func() error
		}{
			{"users", func() error { return mongo.EnsureUserIndexes(ctx, appDB) }},
			{"profiles", func() error { return mongo.EnsureProfileIndexes(ctx, appDB) }},
			{"exercises", func() error { return mongo.EnsureExerciseIndexes(ctx, appDB) }},
			{"plans", func() error { return mongo.EnsurePlanIndexes(ctx, appDB) }},
			{"workouts", func() error { return mongo.EnsureWorkoutIndexes(ctx, appDB) }},
			{"adaptations", func() error { return mongo.EnsureAdaptationIndexes(ctx, appDB) }},
			{"history", func() error { return mongo.EnsureHistoryIndexes(ctx, appDB) }},
			{"streaks", func() error { return mongo.EnsureStreakIndexes(ctx, appDB) }},
		}
		for _, e := range ensures {
			if err := e.fn(); err != nil {
				logger.Warn("index creation failed", zap.String("collection", e.name), zap.Error(err))
			}
		}
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3, logger)
	if err != nil {
		logger.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	profileRepo := mongo.NewMongoProfileRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	adaptationRepo := mongo.NewMongoAdaptationRepository(appDB)
	historyRepo := mongo.NewMongoHistoryRepository(appDB)
	streakRepo := mongo.NewMongoStreakRepository(appDB)

	// --- Initialize Engine & Services ---
	adaptationEngine := engine.NewAdaptationEngine(
		profileRepo, planRepo, workoutRepo, exerciseRepo, adaptationRepo, historyRepo, logger,
	)

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	profileService := service.NewProfileService(profileRepo)
	exerciseService := service.NewExerciseService(exerciseRepo, fileStorage)
	planService := service.NewPlanService(
		profileRepo, planRepo, workoutRepo, exerciseRepo, adaptationRepo,
		adaptationEngine, cfg.Plan.DefaultHorizonWeeks, logger,
	)
	completionService := service.NewCompletionService(
		workoutRepo, planRepo, historyRepo, streakRepo, profileRepo, logger,
	)

	// --- Initialize Gin Engine ---
	router := gin.Default()

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, authService, profileService, exerciseService, planService, completionService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen and serve error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exiting")
}
