package usecase

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
	"github.com/secmon-lab/instaai/pkg/utils/logging"
)

const DefaultEventWindowMinutes = 5

// EventsUseCase reads captured webhook events
type EventsUseCase struct {
	repo interfaces.Repository
	now  func() time.Time
}

func NewEventsUseCase(repo interfaces.Repository, now func() time.Time) *EventsUseCase {
	if now == nil {
		now = time.Now
	}
	return &EventsUseCase{
		repo: repo,
		now:  now,
	}
}

type ListEventsInput struct {
	UserID      string
	LastMinutes string // decimal minutes, empty for the default window
	OwnedOnly   bool   // only events whose extracted owner is UserID
}

// ParsedEvent is a captured event with its payload decoded
type ParsedEvent struct {
	Event   *model.WebhookEvent
	Payload any
}

// ParseLastMinutes parses the event window. Empty means the default.
func ParseLastMinutes(s string) (int, error) {
	if s == "" {
		return DefaultEventWindowMinutes, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, newUserError(ErrValidation, "Invalid last_minutes parameter")
	}
	return n, nil
}

// ListRecent returns events captured in the last minutes that belong to or
// mention UserID, oldest first. Events with unparsable payloads are skipped.
func (uc *EventsUseCase) ListRecent(ctx context.Context, input ListEventsInput) ([]*ParsedEvent, error) {
	if input.UserID == "" {
		return nil, newUserError(ErrValidation, "Missing user_id parameter")
	}

	minutes, err := ParseLastMinutes(input.LastMinutes)
	if err != nil {
		return nil, err
	}
	since := uc.now().Add(-time.Duration(minutes) * time.Minute)

	var events []*model.WebhookEvent
	if input.OwnedOnly {
		events, err = uc.repo.Event().ListByUser(ctx, input.UserID, since)
	} else {
		events, err = uc.repo.Event().ListSince(ctx, since)
	}
	if err != nil {
		return nil, goerr.Wrap(wrapUserError(err, ErrStorage, "Failed to read events"), "list events",
			goerr.V("user_id", input.UserID))
	}

	logger := logging.From(ctx)
	needle := []byte(input.UserID)

	result := make([]*ParsedEvent, 0, len(events))
	for _, ev := range events {
		if ev.UserID != input.UserID && !bytes.Contains(ev.RawPayload, needle) {
			continue
		}

		payload, err := model.DecodePayload(ev.RawPayload)
		if err != nil {
			logger.Warn("skip unparsable event", "event_id", ev.ID, "error", err)
			continue
		}
		result = append(result, &ParsedEvent{Event: ev, Payload: payload})
	}

	return result, nil
}
