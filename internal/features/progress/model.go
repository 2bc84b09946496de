package progress

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ModuleScore records one graded quiz attempt that counts for progression.
// Percentage is already rounded when stored.
type ModuleScore struct {
	Score       float64   `json:"score" bson:"score"`
	MaxScore    float64   `json:"max_score" bson:"max_score"`
	Percentage  int       `json:"percentage" bson:"percentage"`
	ExamID      string    `json:"exam_id,omitempty" bson:"exam_id,omitempty"`
	CompletedAt time.Time `json:"completed_at" bson:"completed_at"`
}

// Snapshot is a user's progression state. Module scores are keyed by the
// stringified module id because document keys must be strings.
type Snapshot struct {
	ID              primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	UserID          primitive.ObjectID     `json:"user_id" bson:"user_id"`
	UnlockedModules []int                  `json:"unlocked_modules" bson:"unlocked_modules"`
	ModuleScores    map[string]ModuleScore `json:"module_scores" bson:"module_scores"`
	FinalQuizPassed bool                   `json:"final_quiz_passed" bson:"final_quiz_passed"`
	UpdatedAt       time.Time              `json:"updated_at" bson:"updated_at"`
}

// ScoreFor looks up the score entry for a module id.
func (s *Snapshot) ScoreFor(moduleID int) (ModuleScore, bool) {
	sc, ok := s.ModuleScores[strconv.Itoa(moduleID)]
	return sc, ok
}

// IsUnlocked reports whether the module is in the unlocked set.
func (s *Snapshot) IsUnlocked(moduleID int) bool {
	for _, m := range s.UnlockedModules {
		if m == moduleID {
			return true
		}
	}
	return false
}

// ScoreInput is one incoming score entry. Pointers so that missing numeric
// fields are detectable and rejected instead of defaulting to zero.
type ScoreInput struct {
	Score    *float64 `json:"score"`
	MaxScore *float64 `json:"max_score"`
	ExamID   string   `json:"exam_id"`
}

// Update is a client-proposed change to a snapshot. A nil UnlockedModules
// means "leave the unlocked set alone".
type Update struct {
	UnlockedModules *[]int                `json:"unlocked_modules"`
	ModuleScores    map[string]ScoreInput `json:"module_scores"`
}
