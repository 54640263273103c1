package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
	"github.com/secmon-lab/instaai/pkg/domain/types"
	"github.com/secmon-lab/instaai/pkg/service/instagram"
	"github.com/secmon-lab/instaai/pkg/utils/logging"
)

const longLivedFallbackWarning = "Failed to exchange for long-lived token, using short-lived token"

// TokenUseCase handles the OAuth token lifecycle of connected accounts
type TokenUseCase struct {
	repo      interfaces.Repository
	instagram instagram.Service
	now       func() time.Time
}

func NewTokenUseCase(repo interfaces.Repository, ig instagram.Service, now func() time.Time) *TokenUseCase {
	if now == nil {
		now = time.Now
	}
	return &TokenUseCase{
		repo:      repo,
		instagram: ig,
		now:       now,
	}
}

// ExchangeResult is the outcome of a code exchange
type ExchangeResult struct {
	AccessToken string `masq:"secret"`
	UserID      string
	TokenType   types.TokenType
	ExpiresIn   int64  // 0 for short-lived tokens
	Warning     string // set when the long-lived upgrade failed
}

// Exchange trades an authorization code for a token, upgrades it to a
// long-lived one when possible and stores the result
func (uc *TokenUseCase) Exchange(ctx context.Context, code string) (*ExchangeResult, error) {
	if code == "" {
		return nil, newUserError(ErrValidation, "Missing authorization code")
	}

	logger := logging.From(ctx)

	short, err := uc.instagram.ExchangeCode(ctx, code)
	if err != nil {
		return nil, goerr.Wrap(upstreamError(err, "Invalid token response from Instagram"), "failed to exchange authorization code")
	}
	if short.AccessToken == "" || short.UserID == "" {
		return nil, newUserError(ErrMalformedUpstream, "Invalid token response from Instagram")
	}

	result := &ExchangeResult{
		AccessToken: short.AccessToken,
		UserID:      short.UserID,
		TokenType:   types.TokenTypeShortLived,
	}

	long, err := uc.instagram.ExchangeLongLived(ctx, short.AccessToken)
	switch {
	case err != nil:
		logger.Warn("long-lived token exchange failed", "error", err, "user_id", short.UserID)
		result.Warning = longLivedFallbackWarning
	case long.AccessToken == "":
		logger.Warn("long-lived token response has no access_token", "user_id", short.UserID)
		result.Warning = longLivedFallbackWarning
	default:
		result.AccessToken = long.AccessToken
		result.TokenType = types.TokenTypeLongLived
		result.ExpiresIn = long.ExpiresIn
	}

	rec := model.NewTokenRecord(result.UserID, result.AccessToken, result.TokenType, uc.now().UTC())
	rec.ExpiresIn = result.ExpiresIn
	if err := uc.repo.Token().Put(ctx, rec); err != nil {
		return nil, goerr.Wrap(wrapUserError(err, ErrStorage, "Failed to store token"), "token exchange", goerr.V("user_id", result.UserID))
	}

	logger.Info("token exchanged", "user_id", result.UserID, "token_type", result.TokenType)
	return result, nil
}

// StoreTokenInput is a client-supplied token to validate and store
type StoreTokenInput struct {
	AccessToken string `masq:"secret"`
	UserID      string // optional, the introspected id wins
	TokenType   string // optional, defaults to long_lived
}

type StoreTokenResult struct {
	UserID   string
	Username string
}

// Validate introspects a token. Upstream rejection produces an invalid
// result, other failures are returned as errors.
func (uc *TokenUseCase) Validate(ctx context.Context, accessToken string) (*model.TokenValidation, error) {
	profile, err := uc.instagram.Me(ctx, accessToken)
	if err != nil {
		var apiErr *instagram.APIError
		if errors.As(err, &apiErr) {
			reason := apiErr.Message
			if reason == "" {
				reason = "unknown"
			}
			code := apiErr.Code
			if code == nil {
				code = "unknown"
			}
			return &model.TokenValidation{Valid: false, Reason: reason, Code: code}, nil
		}
		return nil, goerr.Wrap(upstreamError(err, "Invalid token introspection response from Instagram"), "failed to introspect token")
	}

	if profile.UserID == "" || profile.Username == "" {
		return &model.TokenValidation{
			Valid:  false,
			Reason: "token introspection returned no user_id or username",
			Code:   "unknown",
		}, nil
	}

	id := profile.ID
	if id == "" {
		id = profile.UserID
	}
	return &model.TokenValidation{
		Valid:    true,
		UserID:   profile.UserID,
		Username: profile.Username,
		ID:       id,
	}, nil
}

// ValidateAndStore stores a client-supplied token after introspecting it
func (uc *TokenUseCase) ValidateAndStore(ctx context.Context, input StoreTokenInput) (*StoreTokenResult, error) {
	if input.AccessToken == "" {
		return nil, newUserError(ErrValidation, "Missing access_token parameter")
	}

	tokenType := types.TokenTypeLongLived
	if input.TokenType != "" {
		parsed, err := types.ParseTokenType(input.TokenType)
		if err != nil {
			return nil, newUserError(ErrValidation, "Invalid token_type: "+input.TokenType)
		}
		tokenType = parsed
	}

	validation, err := uc.Validate(ctx, input.AccessToken)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return nil, newUserError(ErrValidation, "Invalid access token").
			with("reason", validation.Reason).
			with("code", validation.Code)
	}

	logger := logging.From(ctx)
	if input.UserID != "" && input.UserID != validation.UserID {
		logger.Warn("supplied user_id differs from token owner, using token owner",
			"supplied", input.UserID,
			"introspected", validation.UserID)
	}

	rec := model.NewTokenRecord(validation.UserID, input.AccessToken, tokenType, uc.now().UTC())
	rec.Username = validation.Username
	rec.ExternalID = validation.ID
	if err := uc.repo.Token().Put(ctx, rec); err != nil {
		return nil, goerr.Wrap(wrapUserError(err, ErrStorage, "Failed to store token"), "store token", goerr.V("user_id", rec.UserID))
	}

	logger.Info("token stored", "user_id", rec.UserID, "username", rec.Username)
	return &StoreTokenResult{
		UserID:   validation.UserID,
		Username: validation.Username,
	}, nil
}

// DeleteUser sets the soft delete flag of a stored token. It returns the
// message describing the change.
func (uc *TokenUseCase) DeleteUser(ctx context.Context, userID string, isDeleted bool) (string, error) {
	if userID == "" {
		return "", newUserError(ErrValidation, "Missing user_id parameter")
	}

	rec, err := uc.repo.Token().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return "", goerr.Wrap(newUserError(ErrNotFound, "User not found"), "delete user", goerr.V("user_id", userID))
		}
		return "", goerr.Wrap(wrapUserError(err, ErrStorage, "Failed to retrieve user"), "delete user", goerr.V("user_id", userID))
	}

	rec.IsDeleted = isDeleted
	rec.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Token().Put(ctx, rec); err != nil {
		return "", goerr.Wrap(wrapUserError(err, ErrStorage, "Failed to update user"), "delete user", goerr.V("user_id", userID))
	}

	logging.From(ctx).Info("user deletion status updated", "user_id", userID, "is_deleted", isDeleted)
	if isDeleted {
		return "User marked as deleted", nil
	}
	return "User deletion status updated", nil
}
