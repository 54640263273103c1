package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
)

type messageEntry struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	SenderID       string    `json:"sender_id"`
	RecipientID    string    `json:"recipient_id"`
	MessageText    string    `json:"message_text"`
	CreatedTime    string    `json:"created_time"`
	CapturedAt     time.Time `json:"captured_at"`
}

type messageRepository struct {
	client *redis.Client
	table  string
}

var _ interfaces.MessageRepository = &messageRepository{}

func (r *messageRepository) Put(ctx context.Context, msg *model.MessageRecord) error {
	if err := msg.Validate(); err != nil {
		return goerr.Wrap(err, "invalid message record")
	}

	data, err := json.Marshal(&messageEntry{
		MessageID:      msg.MessageID,
		ConversationID: msg.ConversationID,
		UserID:         msg.UserID,
		SenderID:       msg.SenderID,
		RecipientID:    msg.RecipientID,
		MessageText:    msg.MessageText,
		CreatedTime:    msg.CreatedTime,
		CapturedAt:     msg.CapturedAt,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to marshal message", goerr.V("message_id", msg.MessageID))
	}

	if err := r.client.Set(ctx, recordKey(r.table, msg.MessageID), data, 0).Err(); err != nil {
		return goerr.Wrap(err, "failed to put message", goerr.V("message_id", msg.MessageID))
	}
	return nil
}

func (r *messageRepository) Get(ctx context.Context, messageID string) (*model.MessageRecord, error) {
	raw, err := r.client.Get(ctx, recordKey(r.table, messageID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "message not found", goerr.V("message_id", messageID))
		}
		return nil, goerr.Wrap(err, "failed to get message", goerr.V("message_id", messageID))
	}

	var entry messageEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal message", goerr.V("message_id", messageID))
	}

	return &model.MessageRecord{
		MessageID:      entry.MessageID,
		ConversationID: entry.ConversationID,
		UserID:         entry.UserID,
		SenderID:       entry.SenderID,
		RecipientID:    entry.RecipientID,
		MessageText:    entry.MessageText,
		CreatedTime:    entry.CreatedTime,
		CapturedAt:     entry.CapturedAt,
	}, nil
}
