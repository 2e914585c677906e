// internal/workers/matching/check-match/models.go
package checkmatch

import "edunet-workers/internal/models"

type Input struct {
	UserID   string `json:"userId"`
	TargetID string `json:"targetId"`
	Action   string `json:"action"`
}

type Output struct {
	// Matched is true when both sides expressed interest.
	Matched bool `json:"matched"`
	// Created is false for a match that already existed; the reciprocal
	// check runs once per positive decision, so a replayed job must not
	// produce a second match row.
	Created bool          `json:"created"`
	Match   *models.Match `json:"match,omitempty"`
}
