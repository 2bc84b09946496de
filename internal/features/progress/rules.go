package progress

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PassingThreshold is the percentage cutoff gating progression to the next
// module. Compared inclusively: exactly 60 passes.
const PassingThreshold = 60

// Reason codes, one per distinct rejection so the facade can render a
// precise message.
const (
	CodeInvalidSequence    = "invalid_sequence"
	CodeModuleLocked       = "module_locked"
	CodePrerequisiteNotMet = "prerequisite_not_met"
	CodeFailingScore       = "failing_score"
	CodeInvalidScore       = "invalid_score"
)

type Reason struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Result struct {
	Valid   bool     `json:"valid"`
	Reasons []Reason `json:"reasons,omitempty"`
}

func ok() Result {
	return Result{Valid: true}
}

func fail(code, format string, args ...any) Result {
	return Result{Valid: false, Reasons: []Reason{{Code: code, Message: fmt.Sprintf(format, args...)}}}
}

// ValidationError carries the complete list of violated rules back to the
// caller in one error value.
type ValidationError struct {
	Reasons []Reason
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Reasons))
	for i, r := range e.Reasons {
		parts[i] = r.Message
	}
	return "progression validation failed: " + strings.Join(parts, "; ")
}

// CanUnlockModule decides whether moduleID may be unlocked given the current
// snapshot. Module 1 is always unlockable; any later module requires the
// previous one to be completed with a passing score.
func CanUnlockModule(s *Snapshot, moduleID int) Result {
	if moduleID < 1 {
		return fail(CodeInvalidSequence, "module id %d must be positive", moduleID)
	}
	if moduleID == 1 {
		return ok()
	}

	prev := moduleID - 1
	sc, found := s.ScoreFor(prev)
	if !found {
		return fail(CodePrerequisiteNotMet, "module %d has not been completed", prev)
	}
	if sc.Percentage < PassingThreshold {
		return fail(CodeFailingScore, "module %d was completed with %d%%, below the %d%% required", prev, sc.Percentage, PassingThreshold)
	}
	return ok()
}

// CanCompleteLesson is valid iff the lesson's module is unlocked.
func CanCompleteLesson(s *Snapshot, moduleID, lessonID int) Result {
	if !s.IsUnlocked(moduleID) {
		return fail(CodeModuleLocked, "module %d is locked, lesson %d cannot be completed", moduleID, lessonID)
	}
	return ok()
}

// CanCompleteQuiz only rejects a structurally impossible max score. Pass or
// fail is informational here, not a rejection.
func CanCompleteQuiz(score, maxScore float64) Result {
	if maxScore <= 0 {
		return fail(CodeInvalidScore, "max score must be positive, got %v", maxScore)
	}
	return ok()
}

// CanCompleteFinalQuiz requires the passing threshold.
func CanCompleteFinalQuiz(score, maxScore float64) Result {
	if maxScore <= 0 {
		return fail(CodeInvalidScore, "max score must be positive, got %v", maxScore)
	}
	if score/maxScore*100 < PassingThreshold {
		return fail(CodeFailingScore, "final quiz score %v/%v is below the %d%% required", score, maxScore, PassingThreshold)
	}
	return ok()
}

// NormalizeSequence deduplicates and sorts a candidate unlocked set.
func NormalizeSequence(modules []int) []int {
	seen := make(map[int]struct{}, len(modules))
	out := make([]int, 0, len(modules))
	for _, m := range modules {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

// ValidateSequence rejects an unlocked set that is empty, does not start at
// module 1, or has gaps. Sorted ascending it must equal 1..N.
func ValidateSequence(modules []int) Result {
	sorted := NormalizeSequence(modules)
	if len(sorted) == 0 {
		return fail(CodeInvalidSequence, "unlocked modules cannot be empty")
	}
	if sorted[0] != 1 {
		return fail(CodeInvalidSequence, "unlocked modules must start at module 1")
	}
	for i, m := range sorted {
		if m != i+1 {
			return fail(CodeInvalidSequence, "unlocked modules have a gap before module %d", m)
		}
	}
	return ok()
}

// ValidateUpdate runs the composite check over a proposed update. All
// violations are collected, never short-circuited:
//
//  1. a new unlocked set must be a valid sequence;
//  2. every module newly added must independently unlock against the
//     current (pre-update) snapshot;
//  3. every incoming score key must be in the effective unlocked set;
//  4. every score entry must carry numeric score and max score.
func ValidateUpdate(s *Snapshot, upd *Update) Result {
	var reasons []Reason

	effective := s.UnlockedModules
	if upd.UnlockedModules != nil {
		proposed := *upd.UnlockedModules
		reasons = append(reasons, ValidateSequence(proposed).Reasons...)

		for _, m := range NormalizeSequence(proposed) {
			if s.IsUnlocked(m) {
				continue
			}
			reasons = append(reasons, CanUnlockModule(s, m).Reasons...)
		}
		effective = proposed
	}

	effectiveSet := make(map[int]struct{}, len(effective))
	for _, m := range effective {
		effectiveSet[m] = struct{}{}
	}

	keys := make([]string, 0, len(upd.ModuleScores))
	for k := range upd.ModuleScores {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		in := upd.ModuleScores[key]

		id, err := strconv.Atoi(key)
		if err != nil {
			reasons = append(reasons, Reason{Code: CodeInvalidScore, Message: fmt.Sprintf("module key %q is not a module id", key)})
			continue
		}
		if _, unlocked := effectiveSet[id]; !unlocked {
			reasons = append(reasons, Reason{Code: CodeModuleLocked, Message: fmt.Sprintf("module %d is not unlocked, its score cannot be recorded", id)})
		}
		if in.Score == nil || in.MaxScore == nil {
			reasons = append(reasons, Reason{Code: CodeInvalidScore, Message: fmt.Sprintf("score entry for module %d must have numeric score and max_score", id)})
			continue
		}
		if *in.MaxScore <= 0 {
			reasons = append(reasons, Reason{Code: CodeInvalidScore, Message: fmt.Sprintf("max score for module %d must be positive", id)})
		}
	}

	return Result{Valid: len(reasons) == 0, Reasons: reasons}
}

// HighestUnlocked returns the highest unlocked module, or 0 for an empty set.
func HighestUnlocked(s *Snapshot) int {
	highest := 0
	for _, m := range s.UnlockedModules {
		if m > highest {
			highest = m
		}
	}
	return highest
}

// NextUnlockable returns the module that would unlock next, which exists
// only when the highest unlocked module already has a passing score.
func NextUnlockable(s *Snapshot) (int, bool) {
	highest := HighestUnlocked(s)
	if highest == 0 {
		return 0, false
	}
	sc, found := s.ScoreFor(highest)
	if !found || sc.Percentage < PassingThreshold {
		return 0, false
	}
	return highest + 1, true
}
