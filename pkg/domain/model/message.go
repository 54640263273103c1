package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// MessageRecord is the denormalized copy of one enriched platform message
type MessageRecord struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"` // owning account
	SenderID       string    `json:"sender_id"`
	RecipientID    string    `json:"recipient_id"`
	MessageText    string    `json:"message_text"`
	CreatedTime    string    `json:"created_time"` // platform timestamp, kept as sent
	CapturedAt     time.Time `json:"captured_at"`
}

// Validate checks the fields required by every backend
func (m *MessageRecord) Validate() error {
	if m == nil {
		return goerr.New("message record is nil")
	}
	if m.MessageID == "" {
		return goerr.New("message_id is required")
	}
	return nil
}
