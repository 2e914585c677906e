// internal/workers/matching/parse-deck-filters/config.go
package parsedeckfilters

import "time"

type Config struct {
	Timeout         time.Duration
	DefaultDeckSize int
	MaxDeckSize     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		DefaultDeckSize: 50,
		MaxDeckSize:     50,
	}
}
