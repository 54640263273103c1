package dynamodb

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
)

type eventItem struct {
	EventID     string `dynamodbav:"event_id"`
	EventData   string `dynamodbav:"event_data"`
	TimestampMS int64  `dynamodbav:"timestamp"`
	UserID      string `dynamodbav:"user_id,omitempty"`
}

type eventRepository struct {
	client *dynamodb.Client
	table  string
}

var _ interfaces.EventRepository = &eventRepository{}

func eventToModel(item *eventItem) *model.WebhookEvent {
	return &model.WebhookEvent{
		ID:          model.EventID(item.EventID),
		RawPayload:  []byte(item.EventData),
		TimestampMS: item.TimestampMS,
		UserID:      item.UserID,
	}
}

func (r *eventRepository) Put(ctx context.Context, event *model.WebhookEvent) error {
	if err := event.Validate(); err != nil {
		return goerr.Wrap(err, "invalid webhook event")
	}

	av, err := attributevalue.MarshalMap(&eventItem{
		EventID:     event.ID.String(),
		EventData:   string(event.RawPayload),
		TimestampMS: event.TimestampMS,
		UserID:      event.UserID,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to marshal webhook event", goerr.V("event_id", event.ID))
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(event_id)"),
	}); err != nil {
		return goerr.Wrap(err, "failed to put webhook event", goerr.V("event_id", event.ID))
	}
	return nil
}

func (r *eventRepository) Get(ctx context.Context, id model.EventID) (*model.WebhookEvent, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       map[string]ddbtypes.AttributeValue{"event_id": &ddbtypes.AttributeValueMemberS{Value: id.String()}},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get webhook event", goerr.V("event_id", id))
	}
	if len(out.Item) == 0 {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "event not found", goerr.V("event_id", id))
	}

	var item eventItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal webhook event", goerr.V("event_id", id))
	}
	return eventToModel(&item), nil
}

func (r *eventRepository) ListSince(ctx context.Context, since time.Time) ([]*model.WebhookEvent, error) {
	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:                aws.String(r.table),
		FilterExpression:         aws.String("#ts >= :ts"),
		ExpressionAttributeNames: map[string]string{"#ts": "timestamp"},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":ts": &ddbtypes.AttributeValueMemberN{Value: strconv.FormatInt(since.UnixMilli(), 10)},
		},
	})
}

func (r *eventRepository) ListByUser(ctx context.Context, userID string, since time.Time) ([]*model.WebhookEvent, error) {
	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:                aws.String(r.table),
		FilterExpression:         aws.String("#ts >= :ts AND user_id = :uid"),
		ExpressionAttributeNames: map[string]string{"#ts": "timestamp"},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":ts":  &ddbtypes.AttributeValueMemberN{Value: strconv.FormatInt(since.UnixMilli(), 10)},
			":uid": &ddbtypes.AttributeValueMemberS{Value: userID},
		},
	})
}

func (r *eventRepository) scan(ctx context.Context, input *dynamodb.ScanInput) ([]*model.WebhookEvent, error) {
	events := make([]*model.WebhookEvent, 0)

	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan webhook events", goerr.V("table", r.table))
		}

		var items []eventItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal webhook events")
		}
		for i := range items {
			events = append(events, eventToModel(&items[i]))
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].TimestampMS < events[j].TimestampMS
	})
	return events, nil
}
