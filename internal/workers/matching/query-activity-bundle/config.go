// internal/workers/matching/query-activity-bundle/config.go
package queryactivitybundle

import "time"

type Config struct {
	Timeout          time.Duration
	SearchIndex      string
	PostLimit        int
	ProjectLimit     int
	InteractionLimit int
	SearchLimit      int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          30 * time.Second,
		SearchIndex:      "search-queries",
		PostLimit:        50,
		ProjectLimit:     30,
		InteractionLimit: 100,
		SearchLimit:      50,
	}
}
