// internal/matching/geo/geo_test.go
package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProximityLadder(t *testing.T) {
	milano := Location{City: "Milano", Province: "MI", Region: "Lombardia"}

	tests := []struct {
		name     string
		a, b     Location
		expected int
	}{
		{
			name:     "same city",
			a:        milano,
			b:        Location{City: "Milano", Province: "MI", Region: "Lombardia"},
			expected: ScoreSameCity,
		},
		{
			name:     "same province different city",
			a:        milano,
			b:        Location{City: "Legnano", Province: "MI", Region: "Lombardia"},
			expected: ScoreSameProvince,
		},
		{
			name:     "same region different province",
			a:        milano,
			b:        Location{City: "Bergamo", Province: "BG", Region: "Lombardia"},
			expected: ScoreSameRegion,
		},
		{
			name:     "neighboring region",
			a:        milano,
			b:        Location{City: "Torino", Province: "TO", Region: "Piemonte"},
			expected: ScoreNeighborRegion,
		},
		{
			name:     "same macro area not neighboring",
			a:        milano,
			b:        Location{City: "Trieste", Province: "TS", Region: "Friuli-Venezia Giulia"},
			expected: ScoreSameMacroArea,
		},
		{
			name:     "different macro area",
			a:        milano,
			b:        Location{City: "Palermo", Province: "PA", Region: "Sicilia"},
			expected: ScoreDifferentArea,
		},
		{
			name:     "islands share the southern macro area",
			a:        Location{City: "Napoli", Province: "NA", Region: "Campania"},
			b:        Location{City: "Palermo", Province: "PA", Region: "Sicilia"},
			expected: ScoreSameMacroArea,
		},
		{
			name:     "missing location on one side",
			a:        milano,
			b:        Location{},
			expected: ScoreMissingLocation,
		},
		{
			name:     "missing location on both sides",
			a:        Location{},
			b:        Location{},
			expected: ScoreMissingLocation,
		},
		{
			name:     "region only still matches region rung",
			a:        Location{Region: "Lazio"},
			b:        Location{Region: "Lazio"},
			expected: ScoreSameRegion,
		},
		{
			name:     "case insensitive city comparison",
			a:        Location{City: "MILANO", Region: "Lombardia"},
			b:        Location{City: "milano", Region: "Lombardia"},
			expected: ScoreSameCity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Proximity(tt.a, tt.b))
		})
	}
}

func TestProximitySymmetric(t *testing.T) {
	a := Location{City: "Bologna", Province: "BO", Region: "Emilia-Romagna"}
	b := Location{City: "Firenze", Province: "FI", Region: "Toscana"}

	assert.Equal(t, Proximity(a, b), Proximity(b, a))
}

func TestNeighboring(t *testing.T) {
	assert.True(t, Neighboring("Lombardia", "Veneto"))
	assert.True(t, Neighboring("veneto", "lombardia"))
	assert.False(t, Neighboring("Lombardia", "Lazio"))
	assert.False(t, Neighboring("Sicilia", "Calabria"))
	assert.False(t, Neighboring("Atlantide", "Lombardia"))
}

func TestMacroArea(t *testing.T) {
	assert.Equal(t, "nord", MacroArea("Lombardia"))
	assert.Equal(t, "centro", MacroArea("Lazio"))
	assert.Equal(t, "sud", MacroArea("Puglia"))
	assert.Equal(t, "sud", MacroArea("Sardegna"))
	assert.Equal(t, "sud", MacroArea("Sicilia"))
	assert.Equal(t, "", MacroArea("Baviera"))
}
