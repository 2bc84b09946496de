package progress

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Broadcaster is the slice of the realtime gateway the progress facade needs.
type Broadcaster interface {
	BroadcastToUser(userID, event string, payload any)
}

type ProgressService interface {
	GetSnapshot(ctx context.Context, userID primitive.ObjectID) (*Snapshot, error)
	ApplyUpdate(ctx context.Context, userID primitive.ObjectID, upd *Update) (*Snapshot, error)
	RecordQuizScore(ctx context.Context, userID primitive.ObjectID, moduleID int, score, maxScore float64, examID string) (*Snapshot, error)
	RecordFinalQuiz(ctx context.Context, userID primitive.ObjectID, score, maxScore float64) (*Snapshot, error)
}

type ProgressServiceImpl struct {
	repo        ProgressRepository
	broadcaster Broadcaster
	log         *zap.Logger
}

func NewProgressService(repo ProgressRepository, broadcaster Broadcaster, log *zap.Logger) ProgressService {
	return &ProgressServiceImpl{
		repo:        repo,
		broadcaster: broadcaster,
		log:         log,
	}
}

// GetSnapshot returns the stored snapshot, or a fresh one with module 1
// unlocked for a user who has no progress document yet.
func (s *ProgressServiceImpl) GetSnapshot(ctx context.Context, userID primitive.ObjectID) (*Snapshot, error) {
	snapshot, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &Snapshot{
				UserID:          userID,
				UnlockedModules: []int{1},
				ModuleScores:    map[string]ModuleScore{},
			}, nil
		}
		return nil, err
	}
	if snapshot.ModuleScores == nil {
		snapshot.ModuleScores = map[string]ModuleScore{}
	}
	return snapshot, nil
}

// ApplyUpdate validates a client-proposed update against the current
// snapshot, persists it, and pushes the new state to the user's room.
// Validation failures come back as a *ValidationError carrying every
// violated rule.
func (s *ProgressServiceImpl) ApplyUpdate(ctx context.Context, userID primitive.ObjectID, upd *Update) (*Snapshot, error) {
	snapshot, err := s.GetSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	if res := ValidateUpdate(snapshot, upd); !res.Valid {
		return nil, &ValidationError{Reasons: res.Reasons}
	}

	if upd.UnlockedModules != nil {
		snapshot.UnlockedModules = NormalizeSequence(*upd.UnlockedModules)
	}
	for key, in := range upd.ModuleScores {
		snapshot.ModuleScores[key] = ModuleScore{
			Score:       *in.Score,
			MaxScore:    *in.MaxScore,
			Percentage:  percentage(*in.Score, *in.MaxScore),
			ExamID:      in.ExamID,
			CompletedAt: time.Now(),
		}
	}

	if err := s.repo.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastToUser(userID.Hex(), "progress-updated", snapshot)
	return snapshot, nil
}

// RecordQuizScore stores a module quiz result. The module must be unlocked
// and the score structurally valid; both checks are reported together when
// both fail.
func (s *ProgressServiceImpl) RecordQuizScore(ctx context.Context, userID primitive.ObjectID, moduleID int, score, maxScore float64, examID string) (*Snapshot, error) {
	snapshot, err := s.GetSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	var reasons []Reason
	reasons = append(reasons, CanCompleteQuiz(score, maxScore).Reasons...)
	reasons = append(reasons, CanCompleteLesson(snapshot, moduleID, 0).Reasons...)
	if len(reasons) > 0 {
		return nil, &ValidationError{Reasons: reasons}
	}

	snapshot.ModuleScores[strconv.Itoa(moduleID)] = ModuleScore{
		Score:       score,
		MaxScore:    maxScore,
		Percentage:  percentage(score, maxScore),
		ExamID:      examID,
		CompletedAt: time.Now(),
	}

	if err := s.repo.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastToUser(userID.Hex(), "progress-updated", snapshot)
	return snapshot, nil
}

func (s *ProgressServiceImpl) RecordFinalQuiz(ctx context.Context, userID primitive.ObjectID, score, maxScore float64) (*Snapshot, error) {
	snapshot, err := s.GetSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	if res := CanCompleteFinalQuiz(score, maxScore); !res.Valid {
		return nil, &ValidationError{Reasons: res.Reasons}
	}

	snapshot.FinalQuizPassed = true

	if err := s.repo.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastToUser(userID.Hex(), "progress-updated", snapshot)
	return snapshot, nil
}

func percentage(score, maxScore float64) int {
	return int(math.Round(score / maxScore * 100))
}
