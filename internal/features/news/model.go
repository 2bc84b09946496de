package news

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	KindNews = "news"
	KindExam = "exam"
)

// News is a platform-wide announcement; exam announcements use the same
// shape with a different kind.
type News struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title     string             `json:"title" bson:"title"`
	Body      string             `json:"body" bson:"body"`
	Kind      string             `json:"kind" bson:"kind"` // news, exam
	CreatedBy primitive.ObjectID `json:"created_by" bson:"created_by"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
