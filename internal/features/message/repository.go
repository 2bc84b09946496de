package message

import (
	"context"
	"time"

	"go-lms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit int64) ([]Message, error)
}

type MessageRepositoryImpl struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *database.MongodbDB) MessageRepository {
	return &MessageRepositoryImpl{
		collection: db.DB.Collection("messages"),
	}
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *Message) error {
	message.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, message)
	if err != nil {
		return err
	}

	message.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *MessageRepositoryImpl) ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit int64) ([]Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
