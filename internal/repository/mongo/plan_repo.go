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

const planCollectionName = "training_plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new TrainingPlan repository backed by MongoDB.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new training plan at revision 1.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.Name == "" {
		return primitive.NilObjectID, errors.New("plan requires userId and name")
	}

	plan.ID = primitive.NewObjectID()
	plan.Revision = 1
	plan.Deleted = false
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a plan by its ID. Soft-deleted plans are not returned.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	var plan domain.TrainingPlan
	filter := bson.M{"_id": id, "deleted": false}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetActiveByUserID retrieves the user's single active plan.
func (r *mongoPlanRepository) GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error) {
	var plan domain.TrainingPlan
	filter := bson.M{
		"userId":  userID,
		"status":  domain.PlanStatusActive,
		"deleted": false,
	}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ListByUserID retrieves all non-deleted plans for a user, newest first.
func (r *mongoPlanRepository) ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingPlan, error) {
	filter := bson.M{"userId": userID, "deleted": false}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []domain.TrainingPlan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Update persists the plan with an optimistic concurrency check: the filter
// matches the revision the caller read, and the write increments it. A
// concurrent writer that got there first makes the filter miss, which
// surfaces as ErrConflict rather than a silent lost update.
func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.TrainingPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("plan ID is required for update")
	}

	filter := bson.M{
		"_id":      plan.ID,
		"revision": plan.Revision,
		"deleted":  false,
	}
	update := bson.M{
		"$set": bson.M{
			"name":                plan.Name,
			"startDate":           plan.StartDate,
			"endDate":             plan.EndDate,
			"totalWeeks":          plan.TotalWeeks,
			"trainingDaysPerWeek": plan.TrainingDaysPerWeek,
			"goalId":              plan.GoalID,
			"status":              plan.Status,
			"currentWeek":         plan.CurrentWeek,
			"weeks":               plan.Weeks,
			"metadata":            plan.Metadata,
			"updatedAt":           time.Now().UTC(),
		},
		"$inc": bson.M{"revision": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Either the plan is gone or another writer bumped the revision.
		if _, err := r.GetByID(ctx, plan.ID); err != nil {
			return err
		}
		return repository.ErrConflict
	}
	plan.Revision++
	return nil
}

// SetStatus transitions the plan lifecycle without touching plan content, so
// no revision check is needed.
func (r *mongoPlanRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status domain.PlanStatus) error {
	filter := bson.M{"_id": id, "deleted": false}
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SoftDelete flags the plan deleted. The document stays for the audit trail
// but every read excludes it.
func (r *mongoPlanRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "userId": userID, "deleted": false}
	update := bson.M{"$set": bson.M{"deleted": true, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePlanIndexes creates necessary indexes for the training plans collection.
func EnsurePlanIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(planCollectionName)
	indexes := []mongo.IndexModel{
		{
			// Active-plan lookup; partial unique index enforces at most one
			// active plan per user at the storage layer.
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status":  domain.PlanStatusActive,
					"deleted": false,
				}),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
