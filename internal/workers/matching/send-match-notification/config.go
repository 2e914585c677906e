// internal/workers/matching/send-match-notification/config.go
package sendmatchnotification

import "time"

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	FromEmail    string
	SMSEnabled   bool
	SMSSuperOnly bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		EmailEnabled: true,
		FromEmail:    "noreply@edunet19.it",
		SMSEnabled:   true,
		SMSSuperOnly: true,
	}
}
