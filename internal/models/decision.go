// internal/models/decision.go
package models

import "time"

// Decision actions.
const (
	ActionLike      = "like"
	ActionPass      = "pass"
	ActionSuperLike = "super_like"
)

// ValidAction reports whether a is one of the three decision actions.
func ValidAction(a string) bool {
	return a == ActionLike || a == ActionPass || a == ActionSuperLike
}

// Decision records one swipe outcome: actor decided on target with the
// given action. PredictedScore and PredictedBreakdown snapshot the
// affinity result shown at decision time, for later weight feedback.
type Decision struct {
	ID                 string             `json:"id"`
	ActorID            string             `json:"actorId"`
	TargetID           string             `json:"targetId"`
	Action             string             `json:"action"`
	PredictedScore     int                `json:"predictedScore"`
	PredictedBreakdown map[string]float64 `json:"predictedBreakdown,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// Positive reports whether the decision expresses interest.
func (d *Decision) Positive() bool {
	return d.Action == ActionLike || d.Action == ActionSuperLike
}
