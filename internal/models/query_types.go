// internal/models/query_types.go
package models

// QueryType identifies a named query in the PostgreSQL query registry.
type QueryType string

const (
	QueryInstituteProfile  QueryType = "institute_profile"
	QueryCandidateProfiles QueryType = "candidate_profiles"
	QueryUserWeights       QueryType = "user_weights"
	QueryDecisionHistory   QueryType = "decision_history"
	QueryNetworkOverlap    QueryType = "network_overlap"
)

// ValidQueryTypes lists every registered query type.
var ValidQueryTypes = []QueryType{
	QueryInstituteProfile,
	QueryCandidateProfiles,
	QueryUserWeights,
	QueryDecisionHistory,
	QueryNetworkOverlap,
}

// IsValidQueryType reports whether qt names a registered query.
func IsValidQueryType(qt QueryType) bool {
	for _, v := range ValidQueryTypes {
		if v == qt {
			return true
		}
	}
	return false
}
