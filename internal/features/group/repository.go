package group

import (
	"context"
	"time"

	"go-lms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	FindAll(ctx context.Context) ([]Group, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*Group, error)
	UpdateDetails(ctx context.Context, id primitive.ObjectID, name, level string) error
	AddMember(ctx context.Context, groupID, userID primitive.ObjectID) error
	RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) error
	FindByMember(ctx context.Context, userID primitive.ObjectID) ([]Group, error)
	CountByMember(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type GroupRepositoryImpl struct {
	collection *mongo.Collection
}

func NewGroupRepository(db *database.MongodbDB) GroupRepository {
	return &GroupRepositoryImpl{
		collection: db.DB.Collection("groups"),
	}
}

func (r *GroupRepositoryImpl) Create(ctx context.Context, group *Group) error {
	group.CreatedAt = time.Now()
	group.UpdatedAt = time.Now()

	// Groups are always created empty; members arrive through Assign only.
	group.Members = []primitive.ObjectID{}

	result, err := r.collection.InsertOne(ctx, group)
	if err != nil {
		return err
	}

	group.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *GroupRepositoryImpl) FindAll(ctx context.Context) ([]Group, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []Group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	return groups, nil
}

func (r *GroupRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Group, error) {
	var group Group
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepositoryImpl) UpdateDetails(ctx context.Context, id primitive.ObjectID, name, level string) error {
	update := bson.M{
		"$set": bson.M{
			"name":       name,
			"level":      level,
			"updated_at": time.Now(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *GroupRepositoryImpl) AddMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	update := bson.M{
		"$addToSet": bson.M{"members": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": groupID}, update)
	return err
}

func (r *GroupRepositoryImpl) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"members": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": groupID}, update)
	return err
}

func (r *GroupRepositoryImpl) FindByMember(ctx context.Context, userID primitive.ObjectID) ([]Group, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"members": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []Group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	return groups, nil
}

func (r *GroupRepositoryImpl) CountByMember(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"members": userID})
}
