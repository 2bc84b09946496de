package progress

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeProgressRepo struct {
	snapshots map[primitive.ObjectID]*Snapshot
	upsertErr error
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{snapshots: map[primitive.ObjectID]*Snapshot{}}
}

func (r *fakeProgressRepo) FindByUser(ctx context.Context, userID primitive.ObjectID) (*Snapshot, error) {
	s, ok := r.snapshots[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *s
	return &copied, nil
}

func (r *fakeProgressRepo) Upsert(ctx context.Context, snapshot *Snapshot) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	copied := *snapshot
	r.snapshots[snapshot.UserID] = &copied
	return nil
}

func (r *fakeProgressRepo) EnsureIndexes(ctx context.Context) error { return nil }

type recordingBroadcaster struct {
	events []string
	users  []string
}

func (b *recordingBroadcaster) BroadcastToUser(userID, event string, payload any) {
	b.users = append(b.users, userID)
	b.events = append(b.events, event)
}

func newProgressTestService() (ProgressService, *fakeProgressRepo, *recordingBroadcaster) {
	repo := newFakeProgressRepo()
	bc := &recordingBroadcaster{}
	return NewProgressService(repo, bc, zap.NewNop()), repo, bc
}

func TestGetSnapshotBootstrapsNewUser(t *testing.T) {
	svc, _, _ := newProgressTestService()
	userID := primitive.NewObjectID()

	s, err := svc.GetSnapshot(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if len(s.UnlockedModules) != 1 || s.UnlockedModules[0] != 1 {
		t.Errorf("new user unlocked = %v, want [1]", s.UnlockedModules)
	}
	if s.ModuleScores == nil {
		t.Error("module scores map must be initialized")
	}
	if s.FinalQuizPassed {
		t.Error("final quiz must start unpassed")
	}
}

func TestApplyUpdatePersistsAndBroadcasts(t *testing.T) {
	svc, repo, bc := newProgressTestService()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	repo.snapshots[userID] = &Snapshot{
		UserID:          userID,
		UnlockedModules: []int{1},
		ModuleScores: map[string]ModuleScore{
			"1": {Score: 8, MaxScore: 10, Percentage: 80},
		},
	}

	seq := []int{1, 2}
	got, err := svc.ApplyUpdate(ctx, userID, &Update{UnlockedModules: &seq})
	if err != nil {
		t.Fatalf("ApplyUpdate failed: %v", err)
	}
	if len(got.UnlockedModules) != 2 {
		t.Errorf("unlocked = %v, want [1 2]", got.UnlockedModules)
	}

	stored := repo.snapshots[userID]
	if len(stored.UnlockedModules) != 2 {
		t.Errorf("persisted unlocked = %v, want [1 2]", stored.UnlockedModules)
	}
	if len(bc.events) != 1 || bc.events[0] != "progress-updated" {
		t.Errorf("broadcast events = %v, want [progress-updated]", bc.events)
	}
	if bc.users[0] != userID.Hex() {
		t.Errorf("broadcast targeted %s, want %s", bc.users[0], userID.Hex())
	}
}

func TestApplyUpdateRejectsLockedModule(t *testing.T) {
	svc, repo, bc := newProgressTestService()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	// Module 1 exists but was failed, so module 2 must not unlock.
	repo.snapshots[userID] = &Snapshot{
		UserID:          userID,
		UnlockedModules: []int{1},
		ModuleScores: map[string]ModuleScore{
			"1": {Score: 5, MaxScore: 10, Percentage: 50},
		},
	}

	seq := []int{1, 2}
	_, err := svc.ApplyUpdate(ctx, userID, &Update{UnlockedModules: &seq})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(verr.Reasons) == 0 || verr.Reasons[0].Code != CodeFailingScore {
		t.Errorf("reasons = %+v, want failing_score", verr.Reasons)
	}
	if len(bc.events) != 0 {
		t.Error("rejected update must not broadcast")
	}
	if stored := repo.snapshots[userID]; len(stored.UnlockedModules) != 1 {
		t.Error("rejected update must not persist")
	}
}

func TestApplyUpdateComputesPercentage(t *testing.T) {
	svc, repo, _ := newProgressTestService()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	score, max := 2.0, 3.0
	got, err := svc.ApplyUpdate(ctx, userID, &Update{
		ModuleScores: map[string]ScoreInput{
			"1": {Score: &score, MaxScore: &max, ExamID: "exam-1"},
		},
	})
	if err != nil {
		t.Fatalf("ApplyUpdate failed: %v", err)
	}

	sc, ok := got.ModuleScores["1"]
	if !ok {
		t.Fatal("score entry missing")
	}
	if sc.Percentage != 67 {
		t.Errorf("percentage = %d, want 67 (rounded)", sc.Percentage)
	}
	if sc.ExamID != "exam-1" {
		t.Errorf("exam id = %q", sc.ExamID)
	}
	if sc.CompletedAt.IsZero() {
		t.Error("completion time must be stamped")
	}
	if repo.snapshots[userID] == nil {
		t.Error("snapshot must be upserted for a first-time user")
	}
}

func TestRecordQuizScoreOnLockedModule(t *testing.T) {
	svc, _, bc := newProgressTestService()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	// Fresh user has only module 1 unlocked. An invalid max score on top
	// of the locked module yields both reasons in one response.
	_, err := svc.RecordQuizScore(ctx, userID, 3, 5, 0, "exam-3")

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	codes := map[string]bool{}
	for _, r := range verr.Reasons {
		codes[r.Code] = true
	}
	if !codes[CodeInvalidScore] || !codes[CodeModuleLocked] {
		t.Errorf("reasons = %+v, want invalid_score and module_locked together", verr.Reasons)
	}
	if len(bc.events) != 0 {
		t.Error("rejected quiz must not broadcast")
	}
}

func TestRecordQuizScoreOnUnlockedModule(t *testing.T) {
	svc, repo, bc := newProgressTestService()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	got, err := svc.RecordQuizScore(ctx, userID, 1, 9, 10, "exam-1")
	if err != nil {
		t.Fatalf("RecordQuizScore failed: %v", err)
	}
	if got.ModuleScores["1"].Percentage != 90 {
		t.Errorf("percentage = %d, want 90", got.ModuleScores["1"].Percentage)
	}
	if repo.snapshots[userID] == nil {
		t.Error("quiz result must be persisted")
	}
	if len(bc.events) != 1 {
		t.Errorf("broadcasts = %v, want one", bc.events)
	}
}

func TestRecordFinalQuiz(t *testing.T) {
	svc, repo, _ := newProgressTestService()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	if _, err := svc.RecordFinalQuiz(ctx, userID, 5, 10); err == nil {
		t.Fatal("50% must not pass the final quiz")
	}

	got, err := svc.RecordFinalQuiz(ctx, userID, 6, 10)
	if err != nil {
		t.Fatalf("RecordFinalQuiz failed: %v", err)
	}
	if !got.FinalQuizPassed {
		t.Error("60% must pass the final quiz")
	}
	if !repo.snapshots[userID].FinalQuizPassed {
		t.Error("pass must be persisted")
	}
}
