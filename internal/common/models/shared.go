package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

// Role values stored on a user document.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Learning path levels a student can pick for themselves.
const (
	PathBeginner     = "beginner"
	PathIntermediate = "intermediate"
	PathAdvanced     = "advanced"
)

type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Email        string              `bson:"email" json:"email"`
	Password     string              `bson:"password" json:"-"`
	Role         string              `bson:"role" json:"role"` // admin, student, teacher
	GroupID      *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`
	LearningPath string              `bson:"learning_path,omitempty" json:"learning_path,omitempty"`
	LoginHistory []time.Time         `bson:"login_history,omitempty" json:"login_history,omitempty"`
	LastLogin    *time.Time          `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`
}

// Log is the document shape the async zap sink writes to the logs collection.
type Log struct {
	Message      string    `bson:"message" json:"message"`
	UserID       string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	AppId        string    `bson:"app_id" json:"app_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
