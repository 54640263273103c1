package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
)

type eventRepository struct {
	mu     sync.RWMutex
	events map[model.EventID]*model.WebhookEvent
}

var _ interfaces.EventRepository = &eventRepository{}

func newEventRepository() *eventRepository {
	return &eventRepository{
		events: make(map[model.EventID]*model.WebhookEvent),
	}
}

func copyEvent(e *model.WebhookEvent) *model.WebhookEvent {
	copied := *e
	copied.RawPayload = append([]byte(nil), e.RawPayload...)
	return &copied
}

func (r *eventRepository) Put(ctx context.Context, event *model.WebhookEvent) error {
	if err := event.Validate(); err != nil {
		return goerr.Wrap(err, "invalid webhook event")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.ID]; exists {
		return goerr.New("event already exists", goerr.V("event_id", event.ID))
	}
	r.events[event.ID] = copyEvent(event)
	return nil
}

func (r *eventRepository) Get(ctx context.Context, id model.EventID) (*model.WebhookEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, exists := r.events[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "event not found", goerr.V("event_id", id))
	}
	return copyEvent(event), nil
}

func (r *eventRepository) ListSince(ctx context.Context, since time.Time) ([]*model.WebhookEvent, error) {
	return r.list(func(e *model.WebhookEvent) bool {
		return e.TimestampMS >= since.UnixMilli()
	}), nil
}

func (r *eventRepository) ListByUser(ctx context.Context, userID string, since time.Time) ([]*model.WebhookEvent, error) {
	return r.list(func(e *model.WebhookEvent) bool {
		return e.UserID == userID && e.TimestampMS >= since.UnixMilli()
	}), nil
}

func (r *eventRepository) list(match func(e *model.WebhookEvent) bool) []*model.WebhookEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]*model.WebhookEvent, 0)
	for _, event := range r.events {
		if match(event) {
			events = append(events, copyEvent(event))
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].TimestampMS == events[j].TimestampMS {
			return events[i].ID < events[j].ID
		}
		return events[i].TimestampMS < events[j].TimestampMS
	})
	return events
}
