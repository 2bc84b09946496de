package progress

import (
	"context"
	"time"

	"go-lms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProgressRepository interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*Snapshot, error)
	Upsert(ctx context.Context, snapshot *Snapshot) error
	EnsureIndexes(ctx context.Context) error
}

type ProgressRepositoryImpl struct {
	collection *mongo.Collection
}

func NewProgressRepository(db *database.MongodbDB) ProgressRepository {
	return &ProgressRepositoryImpl{
		collection: db.DB.Collection("progress"),
	}
}

func (r *ProgressRepositoryImpl) FindByUser(ctx context.Context, userID primitive.ObjectID) (*Snapshot, error) {
	var snapshot Snapshot
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&snapshot)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *ProgressRepositoryImpl) Upsert(ctx context.Context, snapshot *Snapshot) error {
	snapshot.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"unlocked_modules":  snapshot.UnlockedModules,
			"module_scores":     snapshot.ModuleScores,
			"final_quiz_passed": snapshot.FinalQuizPassed,
			"updated_at":        snapshot.UpdatedAt,
		},
		"$setOnInsert": bson.M{"user_id": snapshot.UserID},
	}

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"user_id": snapshot.UserID},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *ProgressRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
