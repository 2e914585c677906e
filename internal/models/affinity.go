// internal/models/affinity.go
package models

// Affinity dimension names. Breakdown maps are keyed by these.
const (
	DimensionContent  = "content"
	DimensionBehavior = "behavior"
	DimensionInterest = "interest"
	DimensionGeo      = "geo"
	DimensionNetwork  = "network"
	DimensionSearch   = "search"
)

// AffinityResult is the outcome of scoring one candidate against the
// requesting user. Score is 0-100; Breakdown holds the unweighted
// per-dimension sub-scores; Reasons carries at most four human-readable
// explanation strings; Confidence reflects how much activity data
// backed the computation.
type AffinityResult struct {
	CandidateID string             `json:"candidateId"`
	Score       int                `json:"score"`
	Breakdown   map[string]float64 `json:"breakdown"`
	Reasons     []string           `json:"reasons"`
	Confidence  int                `json:"confidence"`
}

// NeutralResult is returned when scoring fails internally. The caller
// keeps the candidate in the deck with no signal either way.
func NeutralResult(candidateID string) AffinityResult {
	return AffinityResult{
		CandidateID: candidateID,
		Score:       50,
		Breakdown:   map[string]float64{},
		Reasons:     []string{},
		Confidence:  0,
	}
}

// ScoredCandidate pairs a candidate profile with its affinity result
// for deck ordering.
type ScoredCandidate struct {
	Profile  Profile        `json:"profile"`
	Affinity AffinityResult `json:"affinity"`
}
