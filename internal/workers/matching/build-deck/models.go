// internal/workers/matching/build-deck/models.go
package builddeck

import "edunet-workers/internal/models"

type Input struct {
	UserID           string                           `json:"userId"`
	RequesterProfile *models.Profile                  `json:"requesterProfile,omitempty"`
	Candidates       []models.Profile                 `json:"candidates,omitempty"`
	Activity         *models.ActivityBundle           `json:"activity,omitempty"`
	Weights          map[string]float64               `json:"weights,omitempty"`
	Overlaps         map[string]models.NetworkOverlap `json:"overlaps,omitempty"`
	DeckSize         int                              `json:"deckSize,omitempty"`
}

type Output struct {
	SessionKey string                   `json:"sessionKey"`
	DeckSize   int                      `json:"deckSize"`
	Visible    []models.ScoredCandidate `json:"visible"`
	// Source reports where the candidate list came from: "inline",
	// "store" or "fallback".
	Source string `json:"source"`
}
