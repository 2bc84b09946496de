package message

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is one chat message posted into a group's room.
type Message struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	GroupID   primitive.ObjectID `json:"group_id" bson:"group_id"`
	AuthorID  primitive.ObjectID `json:"author_id" bson:"author_id"`
	Body      string             `json:"body" bson:"body"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
