package interfaces

import (
	"context"

	"github.com/secmon-lab/instaai/pkg/domain/model"
)

// TokenRepository defines the interface for TokenRecord persistence
type TokenRepository interface {
	// Get retrieves the record of a user. Soft-deleted records are returned as is.
	Get(ctx context.Context, userID string) (*model.TokenRecord, error)

	// Put upserts a record keyed by UserID. The earliest CreatedAt is kept and
	// UpdatedAt never moves backwards.
	Put(ctx context.Context, token *model.TokenRecord) error
}
