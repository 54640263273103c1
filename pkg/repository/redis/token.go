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
	"github.com/secmon-lab/instaai/pkg/domain/types"
)

type tokenEntry struct {
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Username    string    `json:"username,omitempty"`
	ExternalID  string    `json:"external_id,omitempty"`
	ExpiresIn   int64     `json:"expires_in,omitempty"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type tokenRepository struct {
	client *redis.Client
	table  string
}

var _ interfaces.TokenRepository = &tokenRepository{}

func (e *tokenEntry) toModel() *model.TokenRecord {
	return &model.TokenRecord{
		UserID:      e.UserID,
		AccessToken: e.AccessToken,
		TokenType:   types.TokenType(e.TokenType).Normalize(),
		Username:    e.Username,
		ExternalID:  e.ExternalID,
		ExpiresIn:   e.ExpiresIn,
		IsDeleted:   e.IsDeleted,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func decodeToken(raw []byte) (*model.TokenRecord, error) {
	var entry tokenEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal token")
	}
	return entry.toModel(), nil
}

func (r *tokenRepository) Get(ctx context.Context, userID string) (*model.TokenRecord, error) {
	raw, err := r.client.Get(ctx, recordKey(r.table, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "token not found", goerr.V("user_id", userID))
		}
		return nil, goerr.Wrap(err, "failed to get token", goerr.V("user_id", userID))
	}
	return decodeToken(raw)
}

// Put merges under WATCH so a concurrent write aborts the transaction
func (r *tokenRepository) Put(ctx context.Context, token *model.TokenRecord) error {
	if err := token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token record")
	}

	key := recordKey(r.table, token.UserID)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		var existing *model.TokenRecord
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return goerr.Wrap(err, "failed to get existing token")
		default:
			if existing, err = decodeToken(raw); err != nil {
				return err
			}
		}

		merged := model.MergeTokenRecord(existing, token)
		data, err := json.Marshal(&tokenEntry{
			UserID:      merged.UserID,
			AccessToken: merged.AccessToken,
			TokenType:   merged.TokenType.String(),
			Username:    merged.Username,
			ExternalID:  merged.ExternalID,
			ExpiresIn:   merged.ExpiresIn,
			IsDeleted:   merged.IsDeleted,
			CreatedAt:   merged.CreatedAt,
			UpdatedAt:   merged.UpdatedAt,
		})
		if err != nil {
			return goerr.Wrap(err, "failed to marshal token")
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return goerr.Wrap(err, "failed to put token", goerr.V("user_id", token.UserID))
	}
	return nil
}
