// Package duplicate implements the duplicate engine: per-kind weighted
// similarity with parent-context blending, pruning, exclusion filtering,
// and the aggregate duplication score.
package duplicate

import "github.com/dryscan/dryscan/internal/unit"

// Thresholds derives the CLASS and BLOCK thresholds from the configured
// FUNCTION threshold by fixed offsets (spec.md §4.7). All default
// thresholds are equal today; the offsets exist to preserve any future
// per-kind difference.
type Thresholds struct {
	Function float64
	Class    float64
	Block    float64
}

// Offset deltas applied to the FUNCTION threshold to derive CLASS/BLOCK.
const (
	classOffset = 0.0
	blockOffset = 0.0
)

// NewThresholds clamps each derived threshold into [0,1].
func NewThresholds(functionThreshold float64) Thresholds {
	return Thresholds{
		Function: clamp01(functionThreshold),
		Class:    clamp01(functionThreshold + classOffset),
		Block:    clamp01(functionThreshold + blockOffset),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// For returns the threshold applicable to kind.
func (t Thresholds) For(kind unit.Kind) float64 {
	switch kind {
	case unit.Class:
		return t.Class
	case unit.Function:
		return t.Function
	case unit.Block:
		return t.Block
	default:
		return t.Function
	}
}

// Side is one half of an emitted duplicate group.
type Side struct {
	Name      string    `json:"name"`
	FilePath  string    `json:"path"`
	StartLine int       `json:"startLine"`
	EndLine   int       `json:"endLine"`
	Code      string    `json:"code"`
	Kind      unit.Kind `json:"kind"`
}

func sideOf(u *unit.Unit) Side {
	return Side{
		Name:      u.Name,
		FilePath:  u.FilePath,
		StartLine: u.StartLine,
		EndLine:   u.EndLine,
		Code:      u.Code,
		Kind:      u.Kind,
	}
}

// Group is an emitted duplicate pair (spec.md §3's DuplicateGroup,
// minus the report-layer ShortID which is assigned when bundled into an
// artifact). ID is "<leftId>::<rightId>" per spec.md §6's report schema.
type Group struct {
	ID              string  `json:"id"`
	Similarity      float64 `json:"similarity"`
	ExclusionString string  `json:"exclusionString"`
	Left            Side    `json:"left"`
	Right           Side    `json:"right"`
}

// Score is the aggregate duplication score (spec.md §4.7).
type Score struct {
	Score           float64 `json:"score"`
	Grade           string  `json:"grade"`
	TotalLines      int     `json:"totalLines"`
	DuplicateLines  float64 `json:"duplicateLines"`
	DuplicateGroups int     `json:"duplicateGroups"`
}

// Grade bands score into a qualitative label.
func Grade(score float64) string {
	switch {
	case score < 5:
		return "Excellent"
	case score < 15:
		return "Good"
	case score < 30:
		return "Fair"
	case score < 50:
		return "Poor"
	default:
		return "Critical"
	}
}
