package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// EventID is a UUID-based identifier for WebhookEvent
type EventID string

// NewEventID generates a new UUID v4 EventID
func NewEventID() EventID {
	return EventID(uuid.New().String())
}

func (id EventID) String() string {
	return string(id)
}

// WebhookEvent is one accepted webhook delivery, stored verbatim
type WebhookEvent struct {
	ID          EventID         `json:"event_id"`
	RawPayload  json.RawMessage `json:"raw_payload"`
	TimestampMS int64           `json:"timestamp_ms"`
	UserID      string          `json:"user_id,omitempty"` // empty when no owner could be extracted
}

// Validate checks the fields required by every backend
func (e *WebhookEvent) Validate() error {
	if e == nil {
		return goerr.New("webhook event is nil")
	}
	if e.ID == "" {
		return goerr.New("event_id is required")
	}
	if len(e.RawPayload) == 0 {
		return goerr.New("raw payload is required", goerr.V("event_id", e.ID))
	}
	return nil
}

// Time returns the capture time
func (e *WebhookEvent) Time() time.Time {
	return time.UnixMilli(e.TimestampMS)
}

// DecodePayload parses a webhook body into a generic JSON tree. Numbers are
// kept as json.Number so large platform ids survive without float rounding.
func DecodePayload(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, goerr.Wrap(err, "failed to decode webhook payload")
	}
	if dec.More() {
		return nil, goerr.New("unexpected data after webhook payload")
	}
	return v, nil
}

// ExtractOwnerUserID finds the account a webhook payload belongs to. The
// messaging recipient is checked first, then the "from" of a change event.
// It returns "" when neither path exists.
func ExtractOwnerUserID(payload any) string {
	if id, ok := LookupString(payload, "entry", 0, "messaging", 0, "recipient", "id"); ok {
		return id
	}
	if id, ok := LookupString(payload, "entry", 0, "changes", 0, "value", "from", "id"); ok {
		return id
	}
	return ""
}
