// internal/models/deck.go
package models

import "time"

// DeckSession is the Redis-persisted state of one user's card deck.
// Candidates keeps the scored order; Cursor only moves forward; the
// three decision sets are mutually exclusive by candidate ID.
type DeckSession struct {
	UserID     string            `json:"userId"`
	Candidates []ScoredCandidate `json:"candidates"`
	Cursor     int               `json:"cursor"`
	Liked      map[string]bool   `json:"liked"`
	Passed     map[string]bool   `json:"passed"`
	SuperLiked map[string]bool   `json:"superLiked"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}
