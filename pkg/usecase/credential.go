package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
)

// resolveAccessToken looks up the stored token of userID. A missing or
// soft-deleted record is "not found" and an empty token is "unauthorized".
func resolveAccessToken(ctx context.Context, repo interfaces.Repository, userID string) (string, error) {
	rec, err := repo.Token().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return "", goerr.Wrap(newUserError(ErrNotFound, "User token not found"), "token lookup", goerr.V("user_id", userID))
		}
		return "", goerr.Wrap(wrapUserError(err, ErrStorage, "Failed to retrieve user token"), "token lookup", goerr.V("user_id", userID))
	}

	if rec.IsDeleted {
		return "", goerr.Wrap(newUserError(ErrNotFound, "User token not found"), "user is soft-deleted", goerr.V("user_id", userID))
	}
	if rec.AccessToken == "" {
		return "", goerr.Wrap(newUserError(ErrUnauthorized, "Access token not found"), "empty access token", goerr.V("user_id", userID))
	}

	return rec.AccessToken, nil
}
