// internal/workers/matching/record-decision/config.go
package recorddecision

import "time"

type Config struct {
	Timeout    time.Duration
	SessionTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		SessionTTL: 2 * time.Hour,
	}
}
