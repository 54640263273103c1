package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
	"github.com/secmon-lab/instaai/pkg/domain/types"
)

type tokenItem struct {
	UserID      string    `dynamodbav:"user_id"`
	AccessToken string    `dynamodbav:"access_token"`
	TokenType   string    `dynamodbav:"token_type"`
	Username    string    `dynamodbav:"username,omitempty"`
	ExternalID  string    `dynamodbav:"external_id,omitempty"`
	ExpiresIn   int64     `dynamodbav:"expires_in,omitempty"`
	IsDeleted   bool      `dynamodbav:"is_deleted"`
	CreatedAt   time.Time `dynamodbav:"created_at"`
	UpdatedAt   time.Time `dynamodbav:"updated_at"`
}

type tokenRepository struct {
	client *dynamodb.Client
	table  string
}

var _ interfaces.TokenRepository = &tokenRepository{}

func tokenToItem(t *model.TokenRecord) *tokenItem {
	return &tokenItem{
		UserID:      t.UserID,
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType.String(),
		Username:    t.Username,
		ExternalID:  t.ExternalID,
		ExpiresIn:   t.ExpiresIn,
		IsDeleted:   t.IsDeleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func tokenToModel(item *tokenItem) *model.TokenRecord {
	return &model.TokenRecord{
		UserID:      item.UserID,
		AccessToken: item.AccessToken,
		TokenType:   types.TokenType(item.TokenType).Normalize(),
		Username:    item.Username,
		ExternalID:  item.ExternalID,
		ExpiresIn:   item.ExpiresIn,
		IsDeleted:   item.IsDeleted,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func (r *tokenRepository) Get(ctx context.Context, userID string) (*model.TokenRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            map[string]ddbtypes.AttributeValue{"user_id": &ddbtypes.AttributeValueMemberS{Value: userID}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get token", goerr.V("user_id", userID))
	}
	if len(out.Item) == 0 {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "token not found", goerr.V("user_id", userID))
	}

	var item tokenItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal token", goerr.V("user_id", userID))
	}
	return tokenToModel(&item), nil
}

// Put reads the current record and writes the merged one conditionally, so
// a concurrent writer between the two calls makes Put fail instead of
// overwriting a newer updated_at.
func (r *tokenRepository) Put(ctx context.Context, token *model.TokenRecord) error {
	if err := token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token record")
	}

	existing, err := r.Get(ctx, token.UserID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return err
	}

	merged := model.MergeTokenRecord(existing, token)
	av, err := attributevalue.MarshalMap(tokenToItem(merged))
	if err != nil {
		return goerr.Wrap(err, "failed to marshal token", goerr.V("user_id", token.UserID))
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      av,
	}
	if existing == nil {
		input.ConditionExpression = aws.String("attribute_not_exists(user_id)")
	} else {
		prev, err := attributevalue.Marshal(existing.UpdatedAt)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal updated_at")
		}
		input.ConditionExpression = aws.String("updated_at = :prev")
		input.ExpressionAttributeValues = map[string]ddbtypes.AttributeValue{":prev": prev}
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		var ccf *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return goerr.Wrap(err, "token was modified concurrently", goerr.V("user_id", token.UserID))
		}
		return goerr.Wrap(err, "failed to put token", goerr.V("user_id", token.UserID))
	}
	return nil
}
