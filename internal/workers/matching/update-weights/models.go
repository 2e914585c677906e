// internal/workers/matching/update-weights/models.go
package updateweights

type Input struct {
	UserID string `json:"userId"`
	// Action is the decision that triggers the adjustment.
	Action string `json:"action"`
	// Breakdown is the per-dimension sub-score snapshot taken at
	// decision time.
	Breakdown map[string]float64 `json:"breakdown"`
	// Reciprocated doubles the feedback signal; set on confirmed
	// matches.
	Reciprocated bool `json:"reciprocated,omitempty"`
}

type Output struct {
	Updated bool               `json:"updated"`
	Weights map[string]float64 `json:"weights"`
}
