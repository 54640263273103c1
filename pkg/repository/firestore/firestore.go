package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
)

type Firestore struct {
	client  *firestore.Client
	token   *tokenRepository
	message *messageRepository
	event   *eventRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithTableNames sets the collection names. Empty names keep the defaults.
func WithTableNames(names interfaces.TableNames) Option {
	return func(f *Firestore) {
		names = names.WithDefaults()
		f.token.collection = names.Token
		f.message.collection = names.Message
		f.event.collection = names.Event
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	names := interfaces.DefaultTableNames()
	f := &Firestore{
		client:  client,
		token:   newTokenRepository(client, names.Token),
		message: newMessageRepository(client, names.Message),
		event:   newEventRepository(client, names.Event),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Token() interfaces.TokenRepository {
	return f.token
}

func (f *Firestore) Message() interfaces.MessageRepository {
	return f.message
}

func (f *Firestore) Event() interfaces.EventRepository {
	return f.event
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
