package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
	"github.com/secmon-lab/instaai/pkg/service/instagram"
	"github.com/secmon-lab/instaai/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// SyncUseCase reads conversations and messages from the platform and keeps
// a local copy of enriched messages
type SyncUseCase struct {
	repo        interfaces.Repository
	instagram   instagram.Service
	concurrency int
	now         func() time.Time
}

func NewSyncUseCase(repo interfaces.Repository, ig instagram.Service, concurrency int, now func() time.Time) *SyncUseCase {
	if concurrency <= 0 {
		concurrency = DefaultSyncConcurrency
	}
	if now == nil {
		now = time.Now
	}
	return &SyncUseCase{
		repo:        repo,
		instagram:   ig,
		concurrency: concurrency,
		now:         now,
	}
}

// ListConversations returns the upstream conversation listing of userID verbatim
func (uc *SyncUseCase) ListConversations(ctx context.Context, userID string) (json.RawMessage, error) {
	if userID == "" {
		return nil, newUserError(ErrValidation, "Missing user_id parameter")
	}

	token, err := resolveAccessToken(ctx, uc.repo, userID)
	if err != nil {
		return nil, err
	}

	raw, err := uc.instagram.ListConversations(ctx, token)
	if err != nil {
		return nil, goerr.Wrap(upstreamError(err, "Invalid conversation response from Instagram"), "failed to list conversations", goerr.V("user_id", userID))
	}
	return raw, nil
}

// GetMessagesResult holds either an upstream body to relay as is or the
// enriched messages of one conversation
type GetMessagesResult struct {
	Raw            json.RawMessage
	ConversationID string
	Messages       []*instagram.Message
}

// GetMessages fetches the messages of a conversation and enriches each one
// concurrently. Failed fetches are logged and left out of the result. With
// an empty conversationID it returns the conversation listing instead, and
// a conversation body without a message list is returned as Raw.
func (uc *SyncUseCase) GetMessages(ctx context.Context, userID, conversationID string) (*GetMessagesResult, error) {
	if userID == "" {
		return nil, newUserError(ErrValidation, "Missing user_id parameter")
	}

	if conversationID == "" {
		raw, err := uc.ListConversations(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &GetMessagesResult{Raw: raw}, nil
	}

	token, err := resolveAccessToken(ctx, uc.repo, userID)
	if err != nil {
		return nil, err
	}

	conv, err := uc.instagram.GetConversation(ctx, token, conversationID)
	if err != nil {
		return nil, goerr.Wrap(upstreamError(err, "Invalid conversation response from Instagram"), "failed to get conversation",
			goerr.V("user_id", userID),
			goerr.V("conversation_id", conversationID))
	}
	if conv.MessageIDs == nil {
		return &GetMessagesResult{Raw: conv.Raw}, nil
	}

	messages := uc.enrich(ctx, token, conv.MessageIDs)
	uc.persist(ctx, userID, conversationID, messages)

	return &GetMessagesResult{
		ConversationID: conversationID,
		Messages:       messages,
	}, nil
}

// enrich fetches message details with at most uc.concurrency requests in
// flight. Results are in completion order.
func (uc *SyncUseCase) enrich(ctx context.Context, token string, ids []string) []*instagram.Message {
	logger := logging.From(ctx)

	var (
		mu       sync.Mutex
		messages = make([]*instagram.Message, 0, len(ids))
	)

	// Workers never return an error so one failure does not cancel the others
	var eg errgroup.Group
	eg.SetLimit(uc.concurrency)

	for _, id := range ids {
		eg.Go(func() error {
			msg, err := uc.instagram.GetMessage(ctx, token, id)
			if err != nil {
				logger.Warn("failed to fetch message detail", "message_id", id, "error", err)
				return nil
			}

			mu.Lock()
			messages = append(messages, msg)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	return messages
}

// persist stores enriched messages. Failures are logged only.
func (uc *SyncUseCase) persist(ctx context.Context, userID, conversationID string, messages []*instagram.Message) {
	logger := logging.From(ctx)
	capturedAt := uc.now().UTC()

	for _, msg := range messages {
		rec := &model.MessageRecord{
			MessageID:      msg.ID,
			ConversationID: conversationID,
			UserID:         userID,
			SenderID:       msg.From.ID,
			RecipientID:    msg.RecipientID(),
			MessageText:    msg.Text,
			CreatedTime:    msg.CreatedTime,
			CapturedAt:     capturedAt,
		}
		if err := uc.repo.Message().Put(ctx, rec); err != nil {
			logger.Warn("failed to store message", "message_id", msg.ID, "error", err)
		}
	}
}
