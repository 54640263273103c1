package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
)

type messageRepository struct {
	mu       sync.RWMutex
	messages map[string]*model.MessageRecord
}

var _ interfaces.MessageRepository = &messageRepository{}

func newMessageRepository() *messageRepository {
	return &messageRepository{
		messages: make(map[string]*model.MessageRecord),
	}
}

func (r *messageRepository) Put(ctx context.Context, msg *model.MessageRecord) error {
	if err := msg.Validate(); err != nil {
		return goerr.Wrap(err, "invalid message record")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *msg
	r.messages[msg.MessageID] = &copied
	return nil
}

func (r *messageRepository) Get(ctx context.Context, messageID string) (*model.MessageRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msg, exists := r.messages[messageID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "message not found", goerr.V("message_id", messageID))
	}

	copied := *msg
	return &copied, nil
}
