package interfaces

import (
	"context"

	"github.com/secmon-lab/instaai/pkg/domain/model"
)

// MessageRepository defines the interface for MessageRecord persistence
type MessageRepository interface {
	// Put saves a message, overwriting any record with the same MessageID
	Put(ctx context.Context, msg *model.MessageRecord) error

	// Get retrieves a message by ID
	Get(ctx context.Context, messageID string) (*model.MessageRecord, error)
}
