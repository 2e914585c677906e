// internal/workers/matching/calculate-affinity/models.go
package calculateaffinity

import "edunet-workers/internal/models"

type Input struct {
	UserID   string `json:"userId"`
	TargetID string `json:"targetId"`

	// Inline payloads short-circuit the store lookups when the process
	// already carries them.
	RequesterProfile *models.Profile        `json:"requesterProfile,omitempty"`
	CandidateProfile *models.Profile        `json:"candidateProfile,omitempty"`
	Activity         *models.ActivityBundle `json:"activity,omitempty"`
	Network          *models.NetworkOverlap `json:"network,omitempty"`
	Weights          map[string]float64     `json:"weights,omitempty"`
}

type Output struct {
	Affinity models.AffinityResult `json:"affinity"`
	// Neutral marks scores produced by the fallback path rather than the
	// full pipeline.
	Neutral bool `json:"neutral"`
}
