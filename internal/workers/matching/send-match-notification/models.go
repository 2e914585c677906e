// internal/workers/matching/send-match-notification/models.go
package sendmatchnotification

import "edunet-workers/internal/models"

type Input struct {
	Match *models.Match `json:"match"`
}

type Output struct {
	Deliveries []Delivery `json:"deliveries"`
}

// Delivery reports the per-channel outcome for one recipient.
type Delivery struct {
	RecipientID string `json:"recipientId"`
	Email       string `json:"email"` // sent / failed / disabled
	SMS         string `json:"sms"`   // sent / failed / disabled
}
