package models

import "time"

// Message statuses. A message only moves forward: pending -> sent/failed/partial.
const (
	MessageStatusPending = "pending"
	MessageStatusSent    = "sent"
	MessageStatusFailed  = "failed"
	MessageStatusPartial = "partial"
)

// Recipient statuses
const (
	RecipientStatusPending = "pending"
	RecipientStatusSent    = "sent"
	RecipientStatusFailed  = "failed"
)

// Message represents an outbound SMS message owned by a user.
// One message fans out to one or more recipients.
type Message struct {
	ID              int64      `json:"id"`
	UserID          string     `json:"user_id"`
	Content         string     `json:"content"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	SentAt          *time.Time `json:"sent_at,omitempty"`
	GatewayResponse *string    `json:"gateway_response,omitempty"`

	// Loaded separately, not stored on the messages row
	Recipients []*Recipient `json:"recipients,omitempty"`
}

// Recipient tracks delivery status for a single phone number of a message.
type Recipient struct {
	ID           int64   `json:"id"`
	MessageID    int64   `json:"message_id"`
	Phone        string  `json:"phone"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// MessageStatusFrom derives the message status from its recipient statuses:
// sent when every recipient was sent, failed when every recipient failed,
// partial for any mix. An empty slice keeps the message pending.
func MessageStatusFrom(recipientStatuses []string) string {
	if len(recipientStatuses) == 0 {
		return MessageStatusPending
	}

	sent := 0
	failed := 0
	for _, s := range recipientStatuses {
		switch s {
		case RecipientStatusSent:
			sent++
		case RecipientStatusFailed:
			failed++
		}
	}

	switch {
	case sent == len(recipientStatuses):
		return MessageStatusSent
	case failed == len(recipientStatuses):
		return MessageStatusFailed
	default:
		return MessageStatusPartial
	}
}

// SendMessageRequest represents the request body for sending a single SMS
type SendMessageRequest struct {
	Recipient string `json:"recipient" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

// SendBulkRequest represents the request body for sending a bulk SMS
type SendBulkRequest struct {
	Recipients []string `json:"recipients" binding:"required,min=1"`
	Content    string   `json:"content" binding:"required"`
}
