// internal/models/match.go
package models

import "time"

// Match is a reciprocal positive decision between two users. The pair
// is stored in canonical order so either decision order produces the
// same row.
type Match struct {
	ID        string    `json:"id"`
	UserA     string    `json:"userA"` // lexicographically smaller ID
	UserB     string    `json:"userB"`
	Super     bool      `json:"super"` // either side super-liked
	CreatedAt time.Time `json:"createdAt"`
}

// CanonicalPair orders two user IDs lexicographically.
func CanonicalPair(a, b string) (string, string) {
	if a <= b {
		return a, b
	}
	return b, a
}
