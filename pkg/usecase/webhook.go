package usecase

import (
	"bytes"
	"context"
	"crypto/subtle"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
	"github.com/secmon-lab/instaai/pkg/utils/logging"
)

const hubModeSubscribe = "subscribe"

// WebhookUseCase handles the webhook handshake and event capture
type WebhookUseCase struct {
	repo        interfaces.Repository
	verifyToken string
	now         func() time.Time
}

func NewWebhookUseCase(repo interfaces.Repository, verifyToken string, now func() time.Time) *WebhookUseCase {
	if now == nil {
		now = time.Now
	}
	return &WebhookUseCase{
		repo:        repo,
		verifyToken: verifyToken,
		now:         now,
	}
}

// VerifyInput holds the hub.* query parameters of the handshake
type VerifyInput struct {
	Mode        string
	VerifyToken string
	Challenge   string
}

// Verify returns the challenge to echo when the handshake succeeds
func (uc *WebhookUseCase) Verify(ctx context.Context, input VerifyInput) (string, error) {
	tokenOK := uc.verifyToken != "" &&
		subtle.ConstantTimeCompare([]byte(input.VerifyToken), []byte(uc.verifyToken)) == 1

	if input.Mode != hubModeSubscribe || !tokenOK {
		logging.From(ctx).Warn("webhook verification failed", "mode", input.Mode)
		return "", newUserError(ErrForbidden, "Verification failed")
	}

	return input.Challenge, nil
}

// Deliver captures one webhook delivery. The body is stored verbatim; an
// empty body is treated as "{}".
func (uc *WebhookUseCase) Deliver(ctx context.Context, body []byte) (*model.WebhookEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	payload, err := model.DecodePayload(body)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid JSON payload")
	}

	event := &model.WebhookEvent{
		ID:          model.NewEventID(),
		RawPayload:  append([]byte(nil), body...),
		TimestampMS: uc.now().UnixMilli(),
		UserID:      model.ExtractOwnerUserID(payload),
	}

	if err := uc.repo.Event().Put(ctx, event); err != nil {
		return nil, goerr.Wrap(wrapUserError(err, ErrStorage, "Failed to store webhook event"), "deliver webhook",
			goerr.V("event_id", event.ID))
	}

	logging.From(ctx).Info("webhook event received",
		"event_id", event.ID,
		"user_id", event.UserID,
		"size", len(body))
	return event, nil
}
