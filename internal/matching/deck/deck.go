// internal/matching/deck/deck.go
package deck

import (
	"errors"
	"sort"
	"time"

	"edunet-workers/internal/models"
)

// VisibleStackSize is how many cards render at once: the top card plus
// up to three decorative ones behind it.
const VisibleStackSize = 4

// SessionKeyPrefix namespaces deck sessions in the session store.
const SessionKeyPrefix = "deck:session:"

var (
	// ErrExhausted is returned when a decision is taken on an empty
	// or fully consumed deck.
	ErrExhausted = errors.New("deck exhausted")
	// ErrInvalidAction is returned for an unknown decision action.
	ErrInvalidAction = errors.New("invalid decision action")
)

// Deck is one user's swipe session over a scored candidate list. It is
// not safe for concurrent use; the session store serializes access per
// user.
type Deck struct {
	session models.DeckSession
}

// New builds a deck from scored candidates. The candidates are stable
// sorted by descending affinity score, so equal scores keep their
// fetch order. The cursor starts at zero with empty decision sets.
func New(userID string, candidates []models.ScoredCandidate, now time.Time) *Deck {
	sorted := make([]models.ScoredCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Affinity.Score > sorted[j].Affinity.Score
	})
	return &Deck{session: models.DeckSession{
		UserID:     userID,
		Candidates: sorted,
		Cursor:     0,
		Liked:      map[string]bool{},
		Passed:     map[string]bool{},
		SuperLiked: map[string]bool{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}}
}

// Restore rebuilds a deck from a persisted session. Nil decision sets
// from older payloads are replaced with empty ones.
func Restore(session models.DeckSession) *Deck {
	if session.Liked == nil {
		session.Liked = map[string]bool{}
	}
	if session.Passed == nil {
		session.Passed = map[string]bool{}
	}
	if session.SuperLiked == nil {
		session.SuperLiked = map[string]bool{}
	}
	if session.Cursor < 0 {
		session.Cursor = 0
	}
	return &Deck{session: session}
}

// Session returns the serializable state for persistence.
func (d *Deck) Session() models.DeckSession {
	return d.session
}

// Exhausted reports whether every candidate has been decided on.
func (d *Deck) Exhausted() bool {
	return d.session.Cursor >= len(d.session.Candidates)
}

// Top returns the current interactive card.
func (d *Deck) Top() (models.ScoredCandidate, bool) {
	if d.Exhausted() {
		return models.ScoredCandidate{}, false
	}
	return d.session.Candidates[d.session.Cursor], true
}

// Visible returns the window of cards to render, topmost first. The
// window never extends past the end of the deck.
func (d *Deck) Visible() []models.ScoredCandidate {
	if d.Exhausted() {
		return nil
	}
	end := d.session.Cursor + VisibleStackSize
	if end > len(d.session.Candidates) {
		end = len(d.session.Candidates)
	}
	return d.session.Candidates[d.session.Cursor:end]
}

// Decide records an action on the top card and advances the cursor.
// The decided candidate lands in exactly one of the three decision
// sets. Returns the decided candidate.
func (d *Deck) Decide(action string, now time.Time) (models.ScoredCandidate, error) {
	top, ok := d.Top()
	if !ok {
		return models.ScoredCandidate{}, ErrExhausted
	}

	id := top.Profile.ID
	switch action {
	case models.ActionLike:
		d.session.Liked[id] = true
	case models.ActionPass:
		d.session.Passed[id] = true
	case models.ActionSuperLike:
		d.session.SuperLiked[id] = true
	default:
		return models.ScoredCandidate{}, ErrInvalidAction
	}

	d.session.Cursor++
	d.session.UpdatedAt = now
	return top, nil
}

// Remaining counts the undecided candidates.
func (d *Deck) Remaining() int {
	if d.Exhausted() {
		return 0
	}
	return len(d.session.Candidates) - d.session.Cursor
}
