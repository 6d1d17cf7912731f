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

const streakCollectionName = "user_streaks"

// mongoStreakRepository implements repository.StreakRepository
type mongoStreakRepository struct {
	collection *mongo.Collection
}

// NewMongoStreakRepository creates a new UserStreak repository backed by MongoDB.
func NewMongoStreakRepository(db *mongo.Database) repository.StreakRepository {
	return &mongoStreakRepository{
		collection: db.Collection(streakCollectionName),
	}
}

// GetOrCreate returns the user's streak document, creating a zeroed one on
// first access. The upsert makes concurrent first accesses converge on a
// single document.
func (r *mongoStreakRepository) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*domain.UserStreak, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}

	filter := bson.M{"userId": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"userId":        userID,
			"currentDaily":  0,
			"longestDaily":  0,
			"currentWeekly": 0,
			"longestWeekly": 0,
			"updatedAt":     time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var streak domain.UserStreak
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&streak)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &streak, nil
}

// Update persists a recomputed streak.
func (r *mongoStreakRepository) Update(ctx context.Context, streak *domain.UserStreak) error {
	if streak.UserID == primitive.NilObjectID {
		return errors.New("user ID is required for streak update")
	}

	update := bson.M{
		"$set": bson.M{
			"currentDaily":    streak.CurrentDaily,
			"longestDaily":    streak.LongestDaily,
			"currentWeekly":   streak.CurrentWeekly,
			"longestWeekly":   streak.LongestWeekly,
			"lastWorkoutDate": streak.LastWorkoutDate,
			"updatedAt":       time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": streak.UserID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureStreakIndexes creates necessary indexes for the streaks collection.
func EnsureStreakIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(streakCollectionName)
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
