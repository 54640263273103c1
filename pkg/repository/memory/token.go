package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
)

type tokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]*model.TokenRecord
}

var _ interfaces.TokenRepository = &tokenRepository{}

func newTokenRepository() *tokenRepository {
	return &tokenRepository{
		tokens: make(map[string]*model.TokenRecord),
	}
}

func copyToken(t *model.TokenRecord) *model.TokenRecord {
	copied := *t
	return &copied
}

func (r *tokenRepository) Get(ctx context.Context, userID string) (*model.TokenRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, exists := r.tokens[userID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "token not found", goerr.V("user_id", userID))
	}

	return copyToken(token), nil
}

func (r *tokenRepository) Put(ctx context.Context, token *model.TokenRecord) error {
	if err := token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token record")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token.UserID] = model.MergeTokenRecord(r.tokens[token.UserID], token)
	return nil
}
