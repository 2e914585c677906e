// internal/workers/matching/parse-deck-filters/models.go
package parsedeckfilters

type Input struct {
	RawFilters map[string]interface{} `json:"rawFilters"`
}

type Output struct {
	ParsedFilters ParsedFilters `json:"parsedFilters"`
}

type ParsedFilters struct {
	Regions        []string `json:"regions"`
	Provinces      []string `json:"provinces"`
	InstituteTypes []string `json:"instituteTypes"`
	Themes         []string `json:"themes"`
	Keywords       string   `json:"keywords"`
	DeckSize       int      `json:"deckSize"`
}
