package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type eventDocument struct {
	EventID     string `firestore:"event_id"`
	EventData   string `firestore:"event_data"`
	TimestampMS int64  `firestore:"timestamp_ms"`
	UserID      string `firestore:"user_id,omitempty"`
}

type eventRepository struct {
	client     *firestore.Client
	collection string
}

var _ interfaces.EventRepository = &eventRepository{}

func newEventRepository(client *firestore.Client, collection string) *eventRepository {
	return &eventRepository{
		client:     client,
		collection: collection,
	}
}

func eventToModel(doc *eventDocument) *model.WebhookEvent {
	return &model.WebhookEvent{
		ID:          model.EventID(doc.EventID),
		RawPayload:  []byte(doc.EventData),
		TimestampMS: doc.TimestampMS,
		UserID:      doc.UserID,
	}
}

func (r *eventRepository) Put(ctx context.Context, event *model.WebhookEvent) error {
	if err := event.Validate(); err != nil {
		return goerr.Wrap(err, "invalid webhook event")
	}

	doc := &eventDocument{
		EventID:     event.ID.String(),
		EventData:   string(event.RawPayload),
		TimestampMS: event.TimestampMS,
		UserID:      event.UserID,
	}

	// Create fails if the document already exists
	if _, err := r.client.Collection(r.collection).Doc(event.ID.String()).Create(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put webhook event", goerr.V("event_id", event.ID))
	}
	return nil
}

func (r *eventRepository) Get(ctx context.Context, id model.EventID) (*model.WebhookEvent, error) {
	snap, err := r.client.Collection(r.collection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "event not found", goerr.V("event_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get webhook event", goerr.V("event_id", id))
	}

	var doc eventDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal webhook event", goerr.V("event_id", id))
	}
	return eventToModel(&doc), nil
}

func (r *eventRepository) ListSince(ctx context.Context, since time.Time) ([]*model.WebhookEvent, error) {
	query := r.client.Collection(r.collection).
		Where("timestamp_ms", ">=", since.UnixMilli()).
		OrderBy("timestamp_ms", firestore.Asc)
	return r.list(ctx, query)
}

// ListByUser requires the composite index (user_id ASC, timestamp_ms ASC)
// created by the migrate command
func (r *eventRepository) ListByUser(ctx context.Context, userID string, since time.Time) ([]*model.WebhookEvent, error) {
	query := r.client.Collection(r.collection).
		Where("user_id", "==", userID).
		Where("timestamp_ms", ">=", since.UnixMilli()).
		OrderBy("timestamp_ms", firestore.Asc)
	return r.list(ctx, query)
}

func (r *eventRepository) list(ctx context.Context, query firestore.Query) ([]*model.WebhookEvent, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	events := make([]*model.WebhookEvent, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate webhook events")
		}

		var doc eventDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal webhook event", goerr.V("doc_id", snap.Ref.ID))
		}
		events = append(events, eventToModel(&doc))
	}

	return events, nil
}
