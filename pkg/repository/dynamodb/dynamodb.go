package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
)

// Config holds connection settings. Empty credentials fall back to the
// default AWS credential chain.
type Config struct {
	Region          string
	Endpoint        string // e.g. http://localhost:8000 for DynamoDB Local
	AccessKeyID     string
	SecretAccessKey string
}

type DynamoDB struct {
	client  *dynamodb.Client
	token   *tokenRepository
	message *messageRepository
	event   *eventRepository
}

var _ interfaces.Repository = &DynamoDB{}

type Option func(*DynamoDB)

// WithTableNames sets the table names. Empty names keep the defaults.
func WithTableNames(names interfaces.TableNames) Option {
	return func(d *DynamoDB) {
		names = names.WithDefaults()
		d.token.table = names.Token
		d.message.table = names.Message
		d.event.table = names.Event
	}
}

func New(ctx context.Context, cfg Config, opts ...Option) (*DynamoDB, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load AWS config", goerr.V("region", cfg.Region))
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newWithClient(client, opts...), nil
}

func newWithClient(client *dynamodb.Client, opts ...Option) *DynamoDB {
	names := interfaces.DefaultTableNames()
	d := &DynamoDB{
		client:  client,
		token:   &tokenRepository{client: client, table: names.Token},
		message: &messageRepository{client: client, table: names.Message},
		event:   &eventRepository{client: client, table: names.Event},
	}

	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DynamoDB) Token() interfaces.TokenRepository {
	return d.token
}

func (d *DynamoDB) Message() interfaces.MessageRepository {
	return d.message
}

func (d *DynamoDB) Event() interfaces.EventRepository {
	return d.event
}

// Close is a no-op, the SDK client holds no persistent connection
func (d *DynamoDB) Close() error {
	return nil
}
