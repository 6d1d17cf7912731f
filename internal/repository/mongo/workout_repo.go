package mongo

import (
	"context"
	"errors"
	"time"

	"forgefit/training-engine/internal/domain"
	"forgefit/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository backed by MongoDB.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// CreateMany inserts a batch of workouts, as produced by plan generation or a
// schedule rebuild.
func (r *mongoWorkoutRepository) CreateMany(ctx context.Context, workouts []domain.Workout) ([]primitive.ObjectID, error) {
	if len(workouts) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(workouts))
	ids := make([]primitive.ObjectID, len(workouts))
	for i := range workouts {
		if workouts[i].PlanID == primitive.NilObjectID {
			return nil, errors.New("workout requires a plan ID")
		}
		if workouts[i].ID == primitive.NilObjectID {
			workouts[i].ID = primitive.NewObjectID()
		}
		workouts[i].CreatedAt = now
		workouts[i].UpdatedAt = now
		if workouts[i].Status == "" {
			workouts[i].Status = domain.StatusNotStarted
		}
		docs[i] = workouts[i]
		ids[i] = workouts[i].ID
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetByID retrieves a workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// GetByPlanID retrieves every workout of a plan in schedule order.
func (r *mongoWorkoutRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.Workout, error) {
	return r.find(ctx, bson.M{"planId": planID})
}

// GetByPlanAndWeek retrieves the workouts of a single plan week.
func (r *mongoWorkoutRepository) GetByPlanAndWeek(ctx context.Context, planID primitive.ObjectID, weekNumber int) ([]domain.Workout, error) {
	return r.find(ctx, bson.M{"planId": planID, "weekNumber": weekNumber})
}

func (r *mongoWorkoutRepository) find(ctx context.Context, filter bson.M) ([]domain.Workout, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var workouts []domain.Workout
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// Update replaces the mutable fields of a workout.
func (r *mongoWorkoutRepository) Update(ctx context.Context, workout *domain.Workout) error {
	if workout.ID == primitive.NilObjectID {
		return errors.New("workout ID is required for update")
	}

	update := bson.M{
		"$set": bson.M{
			"weekNumber":    workout.WeekNumber,
			"dayOfWeek":     workout.DayOfWeek,
			"scheduledDate": workout.ScheduledDate,
			"discipline":    workout.Discipline,
			"sessionType":   workout.SessionType,
			"name":          workout.Name,
			"description":   workout.Description,
			"estimatedMin":  workout.EstimatedMin,
			"intensity":     workout.Intensity,
			"isKeyWorkout":  workout.IsKeyWorkout,
			"status":        workout.Status,
			"completedAt":   workout.CompletedAt,
			"exercises":     workout.Exercises,
			"updatedAt":     time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": workout.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteFutureByPlanID removes not-completed workouts scheduled on or after
// the given date. Completed workouts are part of history and never deleted.
func (r *mongoWorkoutRepository) DeleteFutureByPlanID(ctx context.Context, planID primitive.ObjectID, from time.Time) (int64, error) {
	filter := bson.M{
		"planId":        planID,
		"scheduledDate": bson.M{"$gte": from},
		"status":        bson.M{"$ne": domain.StatusCompleted},
	}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureWorkoutIndexes creates necessary indexes for the workouts collection.
func EnsureWorkoutIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(workoutCollectionName)
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "scheduledDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "weekNumber", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
