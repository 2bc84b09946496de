package group

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// TypeSingle caps the group at one member once non-empty, used for
	// individual-student tracking.
	TypeSingle = "single"
	// TypeMulti has no upper member-count bound.
	TypeMulti = "multi"
)

var (
	ErrNotFound        = errors.New("user or group not found")
	ErrAlreadyAssigned = errors.New("student already belongs to a group")
	ErrGroupFull       = errors.New("single group already has a member")
)

// Group is a set of members plus the metadata an admin created it with.
// Membership for students is mirrored on the user document (group_id);
// admins live only in the members array.
type Group struct {
	ID        primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name      string               `json:"name" bson:"name"`
	Type      string               `json:"type" bson:"type"` // single, multi
	Level     string               `json:"level,omitempty" bson:"level,omitempty"`
	CreatedBy primitive.ObjectID   `json:"created_by" bson:"created_by"`
	Members   []primitive.ObjectID `json:"members" bson:"members"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
}

// HasMember reports whether userID appears in the member set.
func (g *Group) HasMember(userID primitive.ObjectID) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
