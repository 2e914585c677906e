// internal/workers/matching/build-deck/config.go
package builddeck

import "time"

type Config struct {
	Timeout        time.Duration
	DeckSize       int
	SessionTTL     time.Duration
	FallbackPath   string
	NetworkEnabled bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		DeckSize:       50,
		SessionTTL:     2 * time.Hour,
		FallbackPath:   "configs/fallback-candidates.json",
		NetworkEnabled: true,
	}
}
