package user

import (
	"context"
	"time"

	"go-lms/internal/common/models"
	"go-lms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	ClaimGroup(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error)
	ClearGroup(ctx context.Context, userID primitive.ObjectID) error
	RecordLogin(ctx context.Context, userID primitive.ObjectID, at time.Time) error
	UpdateLearningPath(ctx context.Context, userID primitive.ObjectID, path string) error
	FindStudentsInactiveSince(ctx context.Context, before time.Time) ([]models.User, error)
	EnsureIndexes(ctx context.Context) error
}

type UserRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewUserRepository(mongodb *database.MongodbDB) UserRepository {
	return &UserRepositoryImpl{
		Collection: mongodb.DB.Collection("users"),
	}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	result, err := r.Collection.InsertOne(ctx, user)
	if err != nil {
		return err
	}

	user.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.Collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ClaimGroup sets group_id only when the field is currently unset, so two
// racing assigns cannot both claim the same student. Returns false when the
// compare-and-swap lost.
func (r *UserRepositoryImpl) ClaimGroup(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id":      userID,
		"group_id": bson.M{"$exists": false},
	}
	update := bson.M{
		"$set": bson.M{"group_id": groupID, "updated_at": time.Now()},
	}

	result, err := r.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}

func (r *UserRepositoryImpl) ClearGroup(ctx context.Context, userID primitive.ObjectID) error {
	update := bson.M{
		"$unset": bson.M{"group_id": ""},
		"$set":   bson.M{"updated_at": time.Now()},
	}
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	return err
}

func (r *UserRepositoryImpl) RecordLogin(ctx context.Context, userID primitive.ObjectID, at time.Time) error {
	update := bson.M{
		"$push": bson.M{"login_history": at},
		"$set":  bson.M{"last_login": at, "updated_at": at},
	}
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	return err
}

func (r *UserRepositoryImpl) UpdateLearningPath(ctx context.Context, userID primitive.ObjectID, path string) error {
	update := bson.M{
		"$set": bson.M{"learning_path": path, "updated_at": time.Now()},
	}
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	return err
}

func (r *UserRepositoryImpl) FindStudentsInactiveSince(ctx context.Context, before time.Time) ([]models.User, error) {
	filter := bson.M{
		"role":       models.RoleStudent,
		"last_login": bson.M{"$lt": before},
	}
	cursor, err := r.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
