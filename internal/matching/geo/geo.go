// internal/matching/geo/geo.go
package geo

import "strings"

// Proximity scores, highest match wins.
const (
	ScoreSameCity        = 100
	ScoreSameProvince    = 80
	ScoreSameRegion      = 60
	ScoreNeighborRegion  = 40
	ScoreSameMacroArea   = 25
	ScoreDifferentArea   = 10
	ScoreMissingLocation = 30
)

// Italian macro-areas. The islands count as part of the Sud area.
const (
	areaNord   = "nord"
	areaCentro = "centro"
	areaSud    = "sud"
)

// macroAreas maps each normalized region name to its macro-area.
var macroAreas = map[string]string{
	"valle d'aosta":         areaNord,
	"piemonte":              areaNord,
	"liguria":               areaNord,
	"lombardia":             areaNord,
	"trentino-alto adige":   areaNord,
	"veneto":                areaNord,
	"friuli-venezia giulia": areaNord,
	"emilia-romagna":        areaNord,
	"toscana":               areaCentro,
	"umbria":                areaCentro,
	"marche":                areaCentro,
	"lazio":                 areaCentro,
	"abruzzo":               areaSud,
	"molise":                areaSud,
	"campania":              areaSud,
	"puglia":                areaSud,
	"basilicata":            areaSud,
	"calabria":              areaSud,
	"sicilia":               areaSud,
	"sardegna":              areaSud,
}

// neighbors lists land borders between regions. Entries are symmetric;
// island regions have none.
var neighbors = map[string][]string{
	"valle d'aosta":         {"piemonte"},
	"piemonte":              {"valle d'aosta", "lombardia", "liguria", "emilia-romagna"},
	"liguria":               {"piemonte", "emilia-romagna", "toscana"},
	"lombardia":             {"piemonte", "emilia-romagna", "trentino-alto adige", "veneto"},
	"trentino-alto adige":   {"lombardia", "veneto"},
	"veneto":                {"lombardia", "trentino-alto adige", "friuli-venezia giulia", "emilia-romagna"},
	"friuli-venezia giulia": {"veneto"},
	"emilia-romagna":        {"liguria", "piemonte", "lombardia", "veneto", "toscana", "marche"},
	"toscana":               {"liguria", "emilia-romagna", "marche", "umbria", "lazio"},
	"marche":                {"emilia-romagna", "toscana", "umbria", "lazio", "abruzzo"},
	"umbria":                {"toscana", "marche", "lazio"},
	"lazio":                 {"toscana", "umbria", "marche", "abruzzo", "molise", "campania"},
	"abruzzo":               {"marche", "lazio", "molise"},
	"molise":                {"abruzzo", "lazio", "campania", "puglia"},
	"campania":              {"lazio", "molise", "puglia", "basilicata"},
	"puglia":                {"molise", "campania", "basilicata"},
	"basilicata":            {"campania", "puglia", "calabria"},
	"calabria":              {"basilicata"},
	"sicilia":               {},
	"sardegna":              {},
}

// Location are the geographic parts of a profile used for proximity.
type Location struct {
	City     string
	Province string
	Region   string
}

// Missing reports whether the location carries no usable data.
func (l Location) Missing() bool {
	return l.City == "" && l.Region == ""
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Proximity walks the ladder from most to least specific and returns
// the score of the first rung both locations satisfy. Either location
// missing yields the neutral-low default.
func Proximity(a, b Location) int {
	if a.Missing() || b.Missing() {
		return ScoreMissingLocation
	}
	if a.City != "" && normalize(a.City) == normalize(b.City) {
		return ScoreSameCity
	}
	if a.Province != "" && normalize(a.Province) == normalize(b.Province) {
		return ScoreSameProvince
	}

	ra, rb := normalize(a.Region), normalize(b.Region)
	if ra == "" || rb == "" {
		return ScoreDifferentArea
	}
	if ra == rb {
		return ScoreSameRegion
	}
	if Neighboring(ra, rb) {
		return ScoreNeighborRegion
	}
	if aa, ok := macroAreas[ra]; ok {
		if ab, ok := macroAreas[rb]; ok && aa == ab {
			return ScoreSameMacroArea
		}
	}
	return ScoreDifferentArea
}

// Neighboring reports whether two normalized region names share a land
// border. Unknown regions never neighbor anything.
func Neighboring(a, b string) bool {
	for _, n := range neighbors[normalize(a)] {
		if n == normalize(b) {
			return true
		}
	}
	return false
}

// MacroArea returns the macro-area of a region, or "" when unknown.
func MacroArea(region string) string {
	return macroAreas[normalize(region)]
}
