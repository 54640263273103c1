package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/types"
)

// TokenRecord is the stored platform credential of one account, keyed by UserID
type TokenRecord struct {
	UserID      string          `json:"user_id"`
	AccessToken string          `json:"access_token" masq:"secret"`
	TokenType   types.TokenType `json:"token_type"`
	Username    string          `json:"username,omitempty"`
	ExternalID  string          `json:"external_id,omitempty"` // platform assigned "id", may differ from UserID
	ExpiresIn   int64           `json:"expires_in,omitempty"`  // seconds reported by the platform
	IsDeleted   bool            `json:"is_deleted"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewTokenRecord creates a record stamped with the given time
func NewTokenRecord(userID, accessToken string, tokenType types.TokenType, now time.Time) *TokenRecord {
	return &TokenRecord{
		UserID:      userID,
		AccessToken: accessToken,
		TokenType:   tokenType.Normalize(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks the fields required by every backend
func (t *TokenRecord) Validate() error {
	if t == nil {
		return goerr.New("token record is nil")
	}
	if t.UserID == "" {
		return goerr.New("user_id is required")
	}
	if !t.TokenType.Normalize().IsValid() {
		return goerr.New("invalid token type", goerr.V("token_type", t.TokenType))
	}
	return nil
}

// MergeTokenRecord returns the record to persist when incoming replaces
// existing under the same UserID. Fields come from incoming except empty
// Username and ExternalID, which keep the existing values. CreatedAt keeps
// the earliest value and UpdatedAt never moves backwards. existing may be nil.
func MergeTokenRecord(existing, incoming *TokenRecord) *TokenRecord {
	merged := *incoming
	merged.TokenType = merged.TokenType.Normalize()
	if existing == nil {
		return &merged
	}

	if !existing.CreatedAt.IsZero() && (merged.CreatedAt.IsZero() || existing.CreatedAt.Before(merged.CreatedAt)) {
		merged.CreatedAt = existing.CreatedAt
	}
	if merged.Username == "" {
		merged.Username = existing.Username
	}
	if merged.ExternalID == "" {
		merged.ExternalID = existing.ExternalID
	}
	if existing.UpdatedAt.After(merged.UpdatedAt) {
		merged.UpdatedAt = existing.UpdatedAt
	}
	return &merged
}

// TokenValidation is the outcome of introspecting a bare access token
type TokenValidation struct {
	Valid    bool   `json:"valid"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	ID       string `json:"id,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Code     any    `json:"code,omitempty"` // upstream error code, kept as decoded
}
