// internal/models/activity.go
package models

import "time"

// ActivityBundle aggregates a user's recent platform activity for the
// affinity engine. Each slice is independently fetched and bounded;
// a failed fetch leaves its slice empty rather than failing the bundle.
type ActivityBundle struct {
	UserID       string             `json:"userId"`
	Posts        []Post             `json:"posts"`        // most recent 50
	Projects     []Project          `json:"projects"`     // most recent 30
	Interactions []InteractionEvent `json:"interactions"` // most recent 100
	Searches     []SearchQuery      `json:"searches"`     // most recent 50
	FetchedAt    time.Time          `json:"fetchedAt"`
}

// Post is a published post with its topical tags.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Tags      []string  `json:"tags"`
	Themes    []string  `json:"themes"`
	CreatedAt time.Time `json:"createdAt"`
}

// Project is a school project with its methodology and theme labels.
type Project struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"ownerId"`
	Title         string    `json:"title"`
	Methodologies []string  `json:"methodologies"`
	Themes        []string  `json:"themes"`
	ProjectType   string    `json:"projectType,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// InteractionEvent is a single like/comment/share/save action.
// Keywords carries the tags of the content the event targeted, so the
// behavior dimension can compare liked content without re-fetching it.
type InteractionEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	TargetID   string    `json:"targetId"`
	TargetType string    `json:"targetType"` // "post", "project", "profile"
	Action     string    `json:"action"`     // "like", "comment", "share", "save"
	Keywords   []string  `json:"keywords,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// SearchQuery is one entry from the user's search history.
type SearchQuery struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Query      string    `json:"query"`
	OccurredAt time.Time `json:"occurredAt"`
}

// DataPoints weighs the bundle's records into a single data-volume
// figure. Interactions and searches are high-volume streams so they
// count fractionally. The affinity confidence score derives from this.
func (b *ActivityBundle) DataPoints() float64 {
	return float64(len(b.Posts)) + float64(len(b.Projects)) +
		float64(len(b.Interactions))/10 + float64(len(b.Searches))/5
}
