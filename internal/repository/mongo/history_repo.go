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

const historyCollectionName = "completion_history"

// mongoHistoryRepository implements repository.CompletionHistoryRepository
type mongoHistoryRepository struct {
	collection *mongo.Collection
}

// NewMongoHistoryRepository creates a new CompletionHistory repository backed by MongoDB.
func NewMongoHistoryRepository(db *mongo.Database) repository.CompletionHistoryRepository {
	return &mongoHistoryRepository{
		collection: db.Collection(historyCollectionName),
	}
}

// Add appends a completion record.
func (r *mongoHistoryRepository) Add(ctx context.Context, record *domain.CompletionHistory) (primitive.ObjectID, error) {
	if record.UserID == primitive.NilObjectID || record.WorkoutID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("completion record requires userId and workoutId")
	}

	record.ID = primitive.NewObjectID()
	if record.CompletedAt.IsZero() {
		record.CompletedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted record ID")
	}
	return insertedID, nil
}

// GetByWorkoutID retrieves the completion record for a workout.
func (r *mongoHistoryRepository) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) (*domain.CompletionHistory, error) {
	var record domain.CompletionHistory
	err := r.collection.FindOne(ctx, bson.M{"workoutId": workoutID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListByUserID retrieves the user's most recent completion records, newest
// first, capped at limit.
func (r *mongoHistoryRepository) ListByUserID(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.CompletionHistory, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []domain.CompletionHistory
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DistinctCompletionDates returns the distinct UTC calendar days with at
// least one completion, ascending. Two completions on the same day collapse
// to one date, which is what the streak calculator needs.
func (r *mongoHistoryRepository) DistinctCompletionDates(ctx context.Context, userID primitive.ObjectID) ([]time.Time, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateTrunc": bson.M{
				"date":     "$completedAt",
				"unit":     "day",
				"timezone": "UTC",
			}},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Day time.Time `bson:"_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	dates := make([]time.Time, len(rows))
	for i, row := range rows {
		dates[i] = row.Day.UTC()
	}
	return dates, nil
}

// DeleteByWorkoutID removes the completion record of a workout, as part of
// undoing a completion.
func (r *mongoHistoryRepository) DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) error {
	result, err := r.collection.DeleteMany(ctx, bson.M{"workoutId": workoutID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureHistoryIndexes creates necessary indexes for the completion history collection.
func EnsureHistoryIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(historyCollectionName)
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "completedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "workoutId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
