package progress

import (
	"testing"
	"time"
)

func snapshotWith(unlocked []int, scores map[string]ModuleScore) *Snapshot {
	if scores == nil {
		scores = map[string]ModuleScore{}
	}
	return &Snapshot{
		UnlockedModules: unlocked,
		ModuleScores:    scores,
	}
}

func TestValidateSequence(t *testing.T) {
	tests := []struct {
		name    string
		modules []int
		valid   bool
	}{
		{name: "Contiguous from 1", modules: []int{1, 2, 3}, valid: true},
		{name: "Single module", modules: []int{1}, valid: true},
		{name: "Unsorted but contiguous", modules: []int{3, 1, 2}, valid: true},
		{name: "Duplicates collapse", modules: []int{1, 1, 2}, valid: true},
		{name: "Gap", modules: []int{1, 3}, valid: false},
		{name: "Does not start at 1", modules: []int{2, 3}, valid: false},
		{name: "Empty", modules: []int{}, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateSequence(tt.modules)
			if res.Valid != tt.valid {
				t.Errorf("ValidateSequence(%v).Valid = %v, want %v (reasons: %v)", tt.modules, res.Valid, tt.valid, res.Reasons)
			}
			if !tt.valid && len(res.Reasons) == 0 {
				t.Errorf("invalid result must carry a reason")
			}
		})
	}
}

func TestCanUnlockModule(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *Snapshot
		moduleID int
		valid    bool
		code     string
	}{
		{
			name:     "Module 1 always valid",
			snapshot: snapshotWith([]int{1}, nil),
			moduleID: 1,
			valid:    true,
		},
		{
			name:     "Previous module not completed",
			snapshot: snapshotWith([]int{1}, nil),
			moduleID: 2,
			valid:    false,
			code:     CodePrerequisiteNotMet,
		},
		{
			name: "Previous module at exactly the threshold",
			snapshot: snapshotWith([]int{1}, map[string]ModuleScore{
				"1": {Score: 60, MaxScore: 100, Percentage: 60},
			}),
			moduleID: 2,
			valid:    true,
		},
		{
			name: "Previous module one point short",
			snapshot: snapshotWith([]int{1}, map[string]ModuleScore{
				"1": {Score: 59, MaxScore: 100, Percentage: 59},
			}),
			moduleID: 2,
			valid:    false,
			code:     CodeFailingScore,
		},
		{
			name:     "Non-positive module id",
			snapshot: snapshotWith([]int{1}, nil),
			moduleID: 0,
			valid:    false,
			code:     CodeInvalidSequence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CanUnlockModule(tt.snapshot, tt.moduleID)
			if res.Valid != tt.valid {
				t.Fatalf("CanUnlockModule(%d).Valid = %v, want %v", tt.moduleID, res.Valid, tt.valid)
			}
			if !tt.valid && res.Reasons[0].Code != tt.code {
				t.Errorf("reason code = %q, want %q", res.Reasons[0].Code, tt.code)
			}
		})
	}
}

func TestCanUnlockModuleAfterPassingScore(t *testing.T) {
	snapshot := snapshotWith([]int{1}, nil)

	if res := CanUnlockModule(snapshot, 2); res.Valid {
		t.Fatal("module 2 must stay locked before module 1 is completed")
	}

	snapshot.ModuleScores["1"] = ModuleScore{Score: 75, MaxScore: 100, Percentage: 75, CompletedAt: time.Now()}

	if res := CanUnlockModule(snapshot, 2); !res.Valid {
		t.Fatalf("module 2 should unlock after a 75%% score, got %v", res.Reasons)
	}
}

func TestCanCompleteLesson(t *testing.T) {
	snapshot := snapshotWith([]int{1, 2}, nil)

	if res := CanCompleteLesson(snapshot, 2, 5); !res.Valid {
		t.Errorf("lesson in unlocked module rejected: %v", res.Reasons)
	}
	if res := CanCompleteLesson(snapshot, 3, 1); res.Valid {
		t.Error("lesson in locked module accepted")
	} else if res.Reasons[0].Code != CodeModuleLocked {
		t.Errorf("reason code = %q, want %q", res.Reasons[0].Code, CodeModuleLocked)
	}
}

func TestCanCompleteQuiz(t *testing.T) {
	if res := CanCompleteQuiz(0, 10); !res.Valid {
		t.Error("a failing score is informational, not a rejection")
	}
	if res := CanCompleteQuiz(5, 0); res.Valid {
		t.Error("zero max score must be rejected")
	}
	if res := CanCompleteQuiz(5, -1); res.Valid {
		t.Error("negative max score must be rejected")
	}
}

func TestCanCompleteFinalQuiz(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		maxScore float64
		valid    bool
	}{
		{name: "Exactly 60 percent passes", score: 6, maxScore: 10, valid: true},
		{name: "Below threshold fails", score: 59, maxScore: 100, valid: false},
		{name: "Full score passes", score: 10, maxScore: 10, valid: true},
		{name: "Zero max rejected", score: 0, maxScore: 0, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CanCompleteFinalQuiz(tt.score, tt.maxScore)
			if res.Valid != tt.valid {
				t.Errorf("CanCompleteFinalQuiz(%v, %v).Valid = %v, want %v", tt.score, tt.maxScore, res.Valid, tt.valid)
			}
		})
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestValidateUpdateCollectsAllReasons(t *testing.T) {
	snapshot := snapshotWith([]int{1}, nil)

	// Three independent violations: a gap in the sequence, module 3 unlocked
	// without completing module 2, and a score for a module that is not in
	// the effective unlocked set.
	upd := &Update{
		UnlockedModules: &[]int{1, 3},
		ModuleScores: map[string]ScoreInput{
			"5": {Score: floatPtr(10), MaxScore: floatPtr(10)},
		},
	}

	res := ValidateUpdate(snapshot, upd)
	if res.Valid {
		t.Fatal("update should be invalid")
	}
	if len(res.Reasons) < 3 {
		t.Fatalf("expected all violations collected, got %d: %v", len(res.Reasons), res.Reasons)
	}

	codes := map[string]bool{}
	for _, r := range res.Reasons {
		codes[r.Code] = true
	}
	for _, want := range []string{CodeInvalidSequence, CodePrerequisiteNotMet, CodeModuleLocked} {
		if !codes[want] {
			t.Errorf("missing reason code %q in %v", want, res.Reasons)
		}
	}
}

func TestValidateUpdateScoreEntries(t *testing.T) {
	snapshot := snapshotWith([]int{1}, nil)

	tests := []struct {
		name  string
		upd   *Update
		valid bool
		code  string
	}{
		{
			name: "Valid score for unlocked module",
			upd: &Update{ModuleScores: map[string]ScoreInput{
				"1": {Score: floatPtr(8), MaxScore: floatPtr(10)},
			}},
			valid: true,
		},
		{
			name: "Missing max score",
			upd: &Update{ModuleScores: map[string]ScoreInput{
				"1": {Score: floatPtr(8)},
			}},
			valid: false,
			code:  CodeInvalidScore,
		},
		{
			name: "Non-numeric module key",
			upd: &Update{ModuleScores: map[string]ScoreInput{
				"abc": {Score: floatPtr(8), MaxScore: floatPtr(10)},
			}},
			valid: false,
			code:  CodeInvalidScore,
		},
		{
			name: "Score keyed to incoming unlocked set",
			upd: &Update{
				UnlockedModules: &[]int{1, 2},
				ModuleScores: map[string]ScoreInput{
					"2": {Score: floatPtr(8), MaxScore: floatPtr(10)},
				},
			},
			// Module 2 cannot be unlocked yet (module 1 not completed), so
			// the update fails on the unlock rule, not the score key rule.
			valid: false,
			code:  CodePrerequisiteNotMet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateUpdate(snapshot, tt.upd)
			if res.Valid != tt.valid {
				t.Fatalf("Valid = %v, want %v (reasons: %v)", res.Valid, tt.valid, res.Reasons)
			}
			if !tt.valid {
				found := false
				for _, r := range res.Reasons {
					if r.Code == tt.code {
						found = true
					}
				}
				if !found {
					t.Errorf("missing reason code %q in %v", tt.code, res.Reasons)
				}
			}
		})
	}
}

func TestHighestUnlockedAndNextUnlockable(t *testing.T) {
	snapshot := snapshotWith([]int{1, 2, 3}, map[string]ModuleScore{
		"3": {Score: 60, MaxScore: 100, Percentage: 60},
	})

	if got := HighestUnlocked(snapshot); got != 3 {
		t.Errorf("HighestUnlocked = %d, want 3", got)
	}

	next, found := NextUnlockable(snapshot)
	if !found || next != 4 {
		t.Errorf("NextUnlockable = (%d, %v), want (4, true)", next, found)
	}

	snapshot.ModuleScores["3"] = ModuleScore{Score: 30, MaxScore: 100, Percentage: 30}
	if _, found := NextUnlockable(snapshot); found {
		t.Error("NextUnlockable should be none when the highest module has a failing score")
	}

	if _, found := NextUnlockable(snapshotWith(nil, nil)); found {
		t.Error("NextUnlockable should be none for an empty unlocked set")
	}
}
