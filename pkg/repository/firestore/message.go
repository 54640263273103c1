package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type messageDocument struct {
	MessageID      string    `firestore:"message_id"`
	ConversationID string    `firestore:"conversation_id"`
	UserID         string    `firestore:"user_id"`
	SenderID       string    `firestore:"sender_id"`
	RecipientID    string    `firestore:"recipient_id"`
	MessageText    string    `firestore:"message_text"`
	CreatedTime    string    `firestore:"created_time"`
	CapturedAt     time.Time `firestore:"captured_at"`
}

type messageRepository struct {
	client     *firestore.Client
	collection string
}

var _ interfaces.MessageRepository = &messageRepository{}

func newMessageRepository(client *firestore.Client, collection string) *messageRepository {
	return &messageRepository{
		client:     client,
		collection: collection,
	}
}

func (r *messageRepository) Put(ctx context.Context, msg *model.MessageRecord) error {
	if err := msg.Validate(); err != nil {
		return goerr.Wrap(err, "invalid message record")
	}

	doc := &messageDocument{
		MessageID:      msg.MessageID,
		ConversationID: msg.ConversationID,
		UserID:         msg.UserID,
		SenderID:       msg.SenderID,
		RecipientID:    msg.RecipientID,
		MessageText:    msg.MessageText,
		CreatedTime:    msg.CreatedTime,
		CapturedAt:     msg.CapturedAt,
	}

	if _, err := r.client.Collection(r.collection).Doc(msg.MessageID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put message", goerr.V("message_id", msg.MessageID))
	}
	return nil
}

func (r *messageRepository) Get(ctx context.Context, messageID string) (*model.MessageRecord, error) {
	snap, err := r.client.Collection(r.collection).Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "message not found", goerr.V("message_id", messageID))
		}
		return nil, goerr.Wrap(err, "failed to get message", goerr.V("message_id", messageID))
	}

	var doc messageDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal message", goerr.V("message_id", messageID))
	}

	return &model.MessageRecord{
		MessageID:      doc.MessageID,
		ConversationID: doc.ConversationID,
		UserID:         doc.UserID,
		SenderID:       doc.SenderID,
		RecipientID:    doc.RecipientID,
		MessageText:    doc.MessageText,
		CreatedTime:    doc.CreatedTime,
		CapturedAt:     doc.CapturedAt,
	}, nil
}
