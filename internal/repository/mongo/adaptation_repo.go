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

const adaptationCollectionName = "plan_adaptations"

// mongoAdaptationRepository implements repository.AdaptationRepository. The
// collection is append-only; Delete exists solely for the revert primitive.
type mongoAdaptationRepository struct {
	collection *mongo.Collection
}

// NewMongoAdaptationRepository creates a new PlanAdaptation repository backed by MongoDB.
func NewMongoAdaptationRepository(db *mongo.Database) repository.AdaptationRepository {
	return &mongoAdaptationRepository{
		collection: db.Collection(adaptationCollectionName),
	}
}

// Add appends an adaptation audit record.
func (r *mongoAdaptationRepository) Add(ctx context.Context, adaptation *domain.PlanAdaptation) (primitive.ObjectID, error) {
	if adaptation.PlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("adaptation requires a plan ID")
	}

	adaptation.ID = primitive.NewObjectID()
	if adaptation.AppliedAt.IsZero() {
		adaptation.AppliedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, adaptation)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted adaptation ID")
	}
	return insertedID, nil
}

// GetByID retrieves an adaptation record by its ID.
func (r *mongoAdaptationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanAdaptation, error) {
	var adaptation domain.PlanAdaptation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&adaptation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &adaptation, nil
}

// ListByPlanID retrieves the adaptation history of a plan, newest first.
func (r *mongoAdaptationRepository) ListByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanAdaptation, error) {
	filter := bson.M{"planId": planID}
	findOptions := options.Find().SetSort(bson.D{{Key: "appliedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var adaptations []domain.PlanAdaptation
	if err = cursor.All(ctx, &adaptations); err != nil {
		return nil, err
	}
	return adaptations, nil
}

// MostRecentByPlanID retrieves the latest adaptation record for a plan.
func (r *mongoAdaptationRepository) MostRecentByPlanID(ctx context.Context, planID primitive.ObjectID) (*domain.PlanAdaptation, error) {
	var adaptation domain.PlanAdaptation
	findOptions := options.FindOne().SetSort(bson.D{{Key: "appliedAt", Value: -1}})

	err := r.collection.FindOne(ctx, bson.M{"planId": planID}, findOptions).Decode(&adaptation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &adaptation, nil
}

// Delete removes an adaptation record. Only the revert flow calls this.
func (r *mongoAdaptationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureAdaptationIndexes creates necessary indexes for the adaptations collection.
func EnsureAdaptationIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(adaptationCollectionName)
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "appliedAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
