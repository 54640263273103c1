package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/instaai/pkg/domain/model"
)

// EventRepository defines the interface for WebhookEvent persistence
type EventRepository interface {
	// Put saves a new event. Events are immutable once written.
	Put(ctx context.Context, event *model.WebhookEvent) error

	// Get retrieves an event by ID
	Get(ctx context.Context, id model.EventID) (*model.WebhookEvent, error)

	// ListSince returns events captured at or after since, oldest first
	ListSince(ctx context.Context, since time.Time) ([]*model.WebhookEvent, error)

	// ListByUser returns events owned by userID captured at or after since, oldest first
	ListByUser(ctx context.Context, userID string, since time.Time) ([]*model.WebhookEvent, error)
}
