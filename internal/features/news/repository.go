package news

import (
	"context"
	"time"

	"go-lms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NewsRepository interface {
	Create(ctx context.Context, item *News) error
	List(ctx context.Context, limit int64) ([]News, error)
}

type NewsRepositoryImpl struct {
	collection *mongo.Collection
}

func NewNewsRepository(db *database.MongodbDB) NewsRepository {
	return &NewsRepositoryImpl{
		collection: db.DB.Collection("news"),
	}
}

func (r *NewsRepositoryImpl) Create(ctx context.Context, item *News) error {
	item.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return err
	}

	item.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *NewsRepositoryImpl) List(ctx context.Context, limit int64) ([]News, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []News
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
