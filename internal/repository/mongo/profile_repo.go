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

const (
	profileCollectionName = "fitness_profiles"
	goalCollectionName    = "training_goals"
	injuryCollectionName  = "injury_limitations"
)

// mongoProfileRepository implements repository.ProfileRepository. Goals and
// injuries live in their own collections keyed by profile ID and are loaded
// eagerly with the profile.
type mongoProfileRepository struct {
	profiles *mongo.Collection
	goals    *mongo.Collection
	injuries *mongo.Collection
}

// NewMongoProfileRepository creates a new Profile repository backed by MongoDB.
func NewMongoProfileRepository(db *mongo.Database) repository.ProfileRepository {
	return &mongoProfileRepository{
		profiles: db.Collection(profileCollectionName),
		goals:    db.Collection(goalCollectionName),
		injuries: db.Collection(injuryCollectionName),
	}
}

// Create inserts a new fitness profile.
func (r *mongoProfileRepository) Create(ctx context.Context, profile *domain.UserProfile) (primitive.ObjectID, error) {
	if profile.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("profile requires a user ID")
	}

	profile.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	result, err := r.profiles.InsertOne(ctx, profile)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted profile ID")
	}
	return insertedID, nil
}

// GetByUserID retrieves the profile with goals and injuries loaded.
func (r *mongoProfileRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := r.profiles.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadRelations(ctx, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update replaces the mutable fields of a profile.
func (r *mongoProfileRepository) Update(ctx context.Context, profile *domain.UserProfile) error {
	if profile.ID == primitive.NilObjectID {
		return errors.New("profile ID is required for update")
	}

	update := bson.M{
		"$set": bson.M{
			"hyroxLevel":    profile.HyroxLevel,
			"runningLevel":  profile.RunningLevel,
			"strengthLevel": profile.StrengthLevel,
			"availability":  profile.Availability,
			"background":    profile.Background,
			"updatedAt":     time.Now().UTC(),
		},
	}

	result, err := r.profiles.UpdateOne(ctx, bson.M{"_id": profile.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// loadRelations populates Goals and Injuries from their collections.
func (r *mongoProfileRepository) loadRelations(ctx context.Context, profile *domain.UserProfile) error {
	filter := bson.M{"profileId": profile.ID}

	goalOpts := options.Find().SetSort(bson.D{{Key: "priority", Value: 1}, {Key: "createdAt", Value: 1}})
	cursor, err := r.goals.Find(ctx, filter, goalOpts)
	if err != nil {
		return err
	}
	if err = cursor.All(ctx, &profile.Goals); err != nil {
		return err
	}

	injuryOpts := options.Find().SetSort(bson.D{{Key: "reportedAt", Value: -1}})
	cursor, err = r.injuries.Find(ctx, filter, injuryOpts)
	if err != nil {
		return err
	}
	return cursor.All(ctx, &profile.Injuries)
}

// --- Goals ---

func (r *mongoProfileRepository) AddGoal(ctx context.Context, goal *domain.TrainingGoal) (primitive.ObjectID, error) {
	if goal.ProfileID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("goal requires a profile ID")
	}

	goal.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	result, err := r.goals.InsertOne(ctx, goal)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted goal ID")
	}
	return insertedID, nil
}

func (r *mongoProfileRepository) GetGoalByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingGoal, error) {
	var goal domain.TrainingGoal
	err := r.goals.FindOne(ctx, bson.M{"_id": id}).Decode(&goal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &goal, nil
}

func (r *mongoProfileRepository) UpdateGoal(ctx context.Context, goal *domain.TrainingGoal) error {
	if goal.ID == primitive.NilObjectID {
		return errors.New("goal ID is required for update")
	}
	update := bson.M{
		"$set": bson.M{
			"type":        goal.Type,
			"description": goal.Description,
			"targetDate":  goal.TargetDate,
			"priority":    goal.Priority,
			"status":      goal.Status,
			"updatedAt":   time.Now().UTC(),
		},
	}
	result, err := r.goals.UpdateOne(ctx, bson.M{"_id": goal.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// --- Injuries ---

func (r *mongoProfileRepository) AddInjury(ctx context.Context, injury *domain.InjuryLimitation) (primitive.ObjectID, error) {
	if injury.ProfileID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("injury requires a profile ID")
	}

	injury.ID = primitive.NewObjectID()
	result, err := r.injuries.InsertOne(ctx, injury)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted injury ID")
	}
	return insertedID, nil
}

func (r *mongoProfileRepository) GetInjuryByID(ctx context.Context, id primitive.ObjectID) (*domain.InjuryLimitation, error) {
	var injury domain.InjuryLimitation
	err := r.injuries.FindOne(ctx, bson.M{"_id": id}).Decode(&injury)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &injury, nil
}

func (r *mongoProfileRepository) UpdateInjury(ctx context.Context, injury *domain.InjuryLimitation) error {
	if injury.ID == primitive.NilObjectID {
		return errors.New("injury ID is required for update")
	}
	update := bson.M{
		"$set": bson.M{
			"status":       injury.Status,
			"restrictions": injury.Restrictions,
			"resolvedAt":   injury.ResolvedAt,
		},
	}
	result, err := r.injuries.UpdateOne(ctx, bson.M{"_id": injury.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureProfileIndexes creates necessary indexes for the profile, goal and
// injury collections.
func EnsureProfileIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(profileCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(goalCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "profileId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(injuryCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "profileId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	})
	return err
}
