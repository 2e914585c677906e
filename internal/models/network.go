// internal/models/network.go
package models

// NetworkOverlap holds the shared-connection counts between two users,
// as returned by the network_overlap query.
type NetworkOverlap struct {
	CommonFollowers     int `json:"commonFollowers"`
	CommonFollowees     int `json:"commonFollowees"`
	CommonCollaborators int `json:"commonCollaborators"`
}
