package redis

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Redis stores each record as a JSON string under "{table}:{id}". Events
// are additionally indexed by capture time in sorted sets.
type Redis struct {
	client  *redis.Client
	token   *tokenRepository
	message *messageRepository
	event   *eventRepository
}

var _ interfaces.Repository = &Redis{}

type Option func(*Redis)

// WithTableNames sets the key prefixes. Empty names keep the defaults.
func WithTableNames(names interfaces.TableNames) Option {
	return func(r *Redis) {
		names = names.WithDefaults()
		r.token.table = names.Token
		r.message.table = names.Message
		r.event.table = names.Event
	}
}

func New(ctx context.Context, cfg Config, opts ...Option) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", cfg.Addr))
	}

	names := interfaces.DefaultTableNames()
	r := &Redis{
		client:  client,
		token:   &tokenRepository{client: client, table: names.Token},
		message: &messageRepository{client: client, table: names.Message},
		event:   &eventRepository{client: client, table: names.Event},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Redis) Token() interfaces.TokenRepository {
	return r.token
}

func (r *Redis) Message() interfaces.MessageRepository {
	return r.message
}

func (r *Redis) Event() interfaces.EventRepository {
	return r.event
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func recordKey(table, id string) string {
	return table + ":" + id
}
