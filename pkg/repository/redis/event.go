package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
)

type eventEntry struct {
	EventID     string `json:"event_id"`
	EventData   string `json:"event_data"`
	TimestampMS int64  `json:"timestamp_ms"`
	UserID      string `json:"user_id,omitempty"`
}

type eventRepository struct {
	client *redis.Client
	table  string
}

var _ interfaces.EventRepository = &eventRepository{}

func (r *eventRepository) timeIndexKey() string {
	return r.table + ":by_time"
}

func (r *eventRepository) userIndexKey(userID string) string {
	return r.table + ":by_user:" + userID
}

func (e *eventEntry) toModel() *model.WebhookEvent {
	return &model.WebhookEvent{
		ID:          model.EventID(e.EventID),
		RawPayload:  []byte(e.EventData),
		TimestampMS: e.TimestampMS,
		UserID:      e.UserID,
	}
}

func (r *eventRepository) Put(ctx context.Context, event *model.WebhookEvent) error {
	if err := event.Validate(); err != nil {
		return goerr.Wrap(err, "invalid webhook event")
	}

	data, err := json.Marshal(&eventEntry{
		EventID:     event.ID.String(),
		EventData:   string(event.RawPayload),
		TimestampMS: event.TimestampMS,
		UserID:      event.UserID,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to marshal webhook event", goerr.V("event_id", event.ID))
	}

	ok, err := r.client.SetNX(ctx, recordKey(r.table, event.ID.String()), data, 0).Result()
	if err != nil {
		return goerr.Wrap(err, "failed to put webhook event", goerr.V("event_id", event.ID))
	}
	if !ok {
		return goerr.New("event already exists", goerr.V("event_id", event.ID))
	}

	member := redis.Z{Score: float64(event.TimestampMS), Member: event.ID.String()}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, r.timeIndexKey(), member)
		if event.UserID != "" {
			pipe.ZAdd(ctx, r.userIndexKey(event.UserID), member)
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to index webhook event", goerr.V("event_id", event.ID))
	}
	return nil
}

func (r *eventRepository) Get(ctx context.Context, id model.EventID) (*model.WebhookEvent, error) {
	raw, err := r.client.Get(ctx, recordKey(r.table, id.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "event not found", goerr.V("event_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get webhook event", goerr.V("event_id", id))
	}

	var entry eventEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal webhook event", goerr.V("event_id", id))
	}
	return entry.toModel(), nil
}

func (r *eventRepository) ListSince(ctx context.Context, since time.Time) ([]*model.WebhookEvent, error) {
	return r.listByIndex(ctx, r.timeIndexKey(), since)
}

func (r *eventRepository) ListByUser(ctx context.Context, userID string, since time.Time) ([]*model.WebhookEvent, error) {
	return r.listByIndex(ctx, r.userIndexKey(userID), since)
}

func (r *eventRepository) listByIndex(ctx context.Context, indexKey string, since time.Time) ([]*model.WebhookEvent, error) {
	ids, err := r.client.ZRangeByScore(ctx, indexKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read event index", goerr.V("index", indexKey))
	}

	events := make([]*model.WebhookEvent, 0, len(ids))
	if len(ids) == 0 {
		return events, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(r.table, id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load webhook events", goerr.V("index", indexKey))
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// index entry without record
			continue
		}
		var entry eventEntry
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal webhook event", goerr.V("event_id", ids[i]))
		}
		events = append(events, entry.toModel())
	}
	return events, nil
}
