// internal/matching/affinity/reasons.go
package affinity

import "edunet-workers/internal/models"

// reasonRule fires when its dimension reaches the threshold. Rules are
// evaluated in order; for dimensions with multiple rungs the strongest
// rule that fires suppresses the weaker one.
type reasonRule struct {
	dimension string
	threshold float64
	text      string
	suppress  string
}

var reasonRules = []reasonRule{
	{dimension: models.DimensionContent, threshold: 70, text: "Pubblica contenuti molto simili ai tuoi"},
	{dimension: models.DimensionInterest, threshold: 70, text: "Avete interessi in comune"},
	{dimension: models.DimensionGeo, threshold: 80, text: "Si trova nella tua stessa zona"},
	{dimension: models.DimensionGeo, threshold: 60, text: "Vicinanza geografica favorevole", suppress: "Si trova nella tua stessa zona"},
	{dimension: models.DimensionBehavior, threshold: 70, text: "Stile di attività affine al tuo"},
	{dimension: models.DimensionNetwork, threshold: 50, text: "Avete contatti in comune"},
	{dimension: models.DimensionSearch, threshold: 70, text: "Corrisponde alle tue ricerche recenti"},
}

var fillerReasons = []string{
	"Profilo attivo sulla piattaforma",
	"Potenziale per nuove collaborazioni",
	"Suggerito per il tuo istituto",
}

// buildReasons turns a breakdown into at most four user-facing reason
// strings, padding with generic fillers when fewer than three rules
// fire.
func buildReasons(breakdown map[string]float64) []string {
	fired := map[string]bool{}
	reasons := []string{}
	for _, rule := range reasonRules {
		if len(reasons) >= maxReasons {
			break
		}
		if rule.suppress != "" && fired[rule.suppress] {
			continue
		}
		if breakdown[rule.dimension] >= rule.threshold {
			reasons = append(reasons, rule.text)
			fired[rule.text] = true
		}
	}
	for _, filler := range fillerReasons {
		if len(reasons) >= minReasons {
			break
		}
		reasons = append(reasons, filler)
	}
	return reasons
}
