// internal/models/notification.go
package models

// Notification channels and statuses for match notifications.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	NotificationStatusSent     = "sent"
	NotificationStatusFailed   = "failed"
	NotificationStatusDisabled = "disabled"
)

// MatchNotification is the payload handed to the notification worker
// when a new match is created.
type MatchNotification struct {
	MatchID       string `json:"matchId"`
	RecipientID   string `json:"recipientId"`
	RecipientName string `json:"recipientName"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	PartnerName   string `json:"partnerName"`
	Super         bool   `json:"super"`
}
