// internal/workers/matching/query-activity-bundle/models.go
package queryactivitybundle

import "edunet-workers/internal/models"

type Input struct {
	UserID string `json:"userId"`
}

type Output struct {
	Activity models.ActivityBundle `json:"activity"`
	// Degraded lists the sources that failed and were replaced with
	// empty slices.
	Degraded []string `json:"degraded"`
}
