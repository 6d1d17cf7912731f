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

const exerciseCollectionName = "exercises"

// mongoExerciseRepository implements repository.ExerciseRepository
type mongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository backed by MongoDB.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection: db.Collection(exerciseCollectionName),
	}
}

// Create inserts a new exercise into the catalog.
func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" {
		return primitive.NilObjectID, errors.New("exercise name is required")
	}

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, exercise)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves an exercise by its ID.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// Find retrieves exercises matching the criteria. Nil criteria fields match
// every document.
func (r *mongoExerciseRepository) Find(ctx context.Context, criteria repository.ExerciseCriteria) ([]domain.Exercise, error) {
	filter := bson.M{}
	if criteria.Discipline != nil {
		filter["discipline"] = *criteria.Discipline
	}
	if criteria.Difficulty != nil {
		// Difficulty is an upper bound; easier exercises are always usable.
		filter["difficulty"] = bson.M{"$lte": *criteria.Difficulty}
	}
	if criteria.SessionType != nil {
		filter["$or"] = bson.A{
			bson.M{"sessionType": *criteria.SessionType},
			bson.M{"sessionType": bson.M{"$exists": false}},
		}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []domain.Exercise
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// Update modifies an existing exercise, including its progression-graph edges.
func (r *mongoExerciseRepository) Update(ctx context.Context, exercise *domain.Exercise) error {
	if exercise.ID == primitive.NilObjectID {
		return errors.New("exercise ID is required for update")
	}
	if exercise.Name == "" {
		return errors.New("exercise name cannot be empty")
	}

	update := bson.M{
		"$set": bson.M{
			"name":              exercise.Name,
			"description":       exercise.Description,
			"discipline":        exercise.Discipline,
			"difficulty":        exercise.Difficulty,
			"intensity":         exercise.Intensity,
			"sessionType":       exercise.SessionType,
			"muscleGroups":      exercise.MuscleGroups,
			"equipment":         exercise.Equipment,
			"primaryPattern":    exercise.PrimaryPattern,
			"secondaryPatterns": exercise.SecondaryPattern,
			"contraindications": exercise.Contraindications,
			"regressionId":      exercise.RegressionID,
			"progressionId":     exercise.ProgressionID,
			"alternativeIds":    exercise.AlternativeIDs,
			"demoObjectKey":     exercise.DemoObjectKey,
			"updatedAt":         time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": exercise.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an exercise from the catalog.
func (r *mongoExerciseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureExerciseIndexes creates necessary indexes for the exercises collection.
func EnsureExerciseIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(exerciseCollectionName)
	indexes := []mongo.IndexModel{
		{
			// Main catalog query: discipline + difficulty ceiling
			Keys:    bson.D{{Key: "discipline", Value: 1}, {Key: "difficulty", Value: 1}},
			Options: options.Index(),
		},
		{
			// Injury adaptation looks exercises up by contraindicated body part
			Keys:    bson.D{{Key: "contraindications.bodyPart", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
