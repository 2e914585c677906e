// internal/models/profile.go
package models

// Profile is an institute profile as read from the platform store.
// It is read-only for the matching core; ownership stays with the
// profile-management service.
type Profile struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Type          string   `json:"type"` // "institute", "teacher", "company"
	City          string   `json:"city"`
	Province      string   `json:"province,omitempty"`
	Region        string   `json:"region"`
	LogoURL       string   `json:"logoUrl,omitempty"`
	CoverURL      string   `json:"coverUrl,omitempty"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	Interests     []string `json:"interests"`
	Methodologies []string `json:"methodologies"`
	Themes        []string `json:"themes"`
	ProjectTypes  []string `json:"projectTypes"`

	// Declared engagement pattern, optional. Used by the behavior
	// dimension when comparing against the requester's observed pattern.
	Engagement *EngagementPattern `json:"engagement,omitempty"`
}

// EngagementPattern describes how a profile is typically active.
type EngagementPattern struct {
	DailyAverage float64        `json:"dailyAverage"`
	PeakHour     int            `json:"peakHour"`    // 0-23
	PeakWeekday  int            `json:"peakWeekday"` // 0=Sunday
	TypeCounts   map[string]int `json:"typeCounts"`  // like/comment/share/save
}

// HasLocation reports whether enough location data exists for the
// geographic proximity ladder. City or region alone is enough; both
// missing means the neutral-low default applies.
func (p *Profile) HasLocation() bool {
	return p.City != "" || p.Region != ""
}
