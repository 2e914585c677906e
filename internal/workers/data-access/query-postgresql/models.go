// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

import "edunet-workers/internal/models"

type Input struct {
	QueryType string                 `json:"queryType"`
	UserID    string                 `json:"userId,omitempty"`
	TargetID  string                 `json:"targetId,omitempty"`
	Limit     int                    `json:"limit,omitempty"`
	Filters   map[string]interface{} `json:"filters,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

// Export constants for external use
var (
	QueryInstituteProfile  = models.QueryInstituteProfile
	QueryCandidateProfiles = models.QueryCandidateProfiles
	QueryUserWeights       = models.QueryUserWeights
	QueryDecisionHistory   = models.QueryDecisionHistory
	QueryNetworkOverlap    = models.QueryNetworkOverlap
)
