package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
)

type messageItem struct {
	MessageID      string    `dynamodbav:"message_id"`
	ConversationID string    `dynamodbav:"conversation_id"`
	UserID         string    `dynamodbav:"user_id"`
	SenderID       string    `dynamodbav:"sender_id"`
	RecipientID    string    `dynamodbav:"recipient_id"`
	MessageText    string    `dynamodbav:"message_text"`
	CreatedTime    string    `dynamodbav:"created_time"`
	CapturedAt     time.Time `dynamodbav:"timestamp"`
}

type messageRepository struct {
	client *dynamodb.Client
	table  string
}

var _ interfaces.MessageRepository = &messageRepository{}

func (r *messageRepository) Put(ctx context.Context, msg *model.MessageRecord) error {
	if err := msg.Validate(); err != nil {
		return goerr.Wrap(err, "invalid message record")
	}

	av, err := attributevalue.MarshalMap(&messageItem{
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

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      av,
	}); err != nil {
		return goerr.Wrap(err, "failed to put message", goerr.V("message_id", msg.MessageID))
	}
	return nil
}

func (r *messageRepository) Get(ctx context.Context, messageID string) (*model.MessageRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       map[string]ddbtypes.AttributeValue{"message_id": &ddbtypes.AttributeValueMemberS{Value: messageID}},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get message", goerr.V("message_id", messageID))
	}
	if len(out.Item) == 0 {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "message not found", goerr.V("message_id", messageID))
	}

	var item messageItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal message", goerr.V("message_id", messageID))
	}

	return &model.MessageRecord{
		MessageID:      item.MessageID,
		ConversationID: item.ConversationID,
		UserID:         item.UserID,
		SenderID:       item.SenderID,
		RecipientID:    item.RecipientID,
		MessageText:    item.MessageText,
		CreatedTime:    item.CreatedTime,
		CapturedAt:     item.CapturedAt,
	}, nil
}
