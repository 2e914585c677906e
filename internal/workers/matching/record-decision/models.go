// internal/workers/matching/record-decision/models.go
package recorddecision

import "edunet-workers/internal/models"

type Input struct {
	UserID string `json:"userId"`
	// Action is an explicit decision. When empty, Gesture is classified
	// instead.
	Action  string         `json:"action,omitempty"`
	Gesture *GestureDeltas `json:"gesture,omitempty"`
}

type GestureDeltas struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type Output struct {
	// Recorded is false when the gesture stayed under every threshold
	// and the card snapped back.
	Recorded bool             `json:"recorded"`
	Decision *models.Decision `json:"decision,omitempty"`
	// Stored is false when the decision could not be written to the
	// history store. The deck still advanced.
	Stored    bool `json:"stored"`
	Remaining int  `json:"remaining"`
	Exhausted bool `json:"exhausted"`
}
