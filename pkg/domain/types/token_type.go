package types

import "fmt"

// TokenType represents the validity class of a platform access token
type TokenType string

const (
	TokenTypeShortLived TokenType = "short_lived"
	TokenTypeLongLived  TokenType = "long_lived"
	TokenTypeUnknown    TokenType = "unknown"
)

// AllTokenTypes returns all valid token types
func AllTokenTypes() []TokenType {
	return []TokenType{
		TokenTypeShortLived,
		TokenTypeLongLived,
		TokenTypeUnknown,
	}
}

// IsValid checks if the token type is valid
func (t TokenType) IsValid() bool {
	switch t {
	case TokenTypeShortLived,
		TokenTypeLongLived,
		TokenTypeUnknown:
		return true
	default:
		return false
	}
}

// Normalize returns the type, treating empty as TokenTypeUnknown for records
// written before the type was tracked.
func (t TokenType) Normalize() TokenType {
	if t == "" {
		return TokenTypeUnknown
	}
	return t
}

// String returns the string representation of the token type
func (t TokenType) String() string {
	return string(t)
}

// ParseTokenType parses a string into a TokenType
func ParseTokenType(s string) (TokenType, error) {
	tokenType := TokenType(s)
	if !tokenType.IsValid() {
		return "", fmt.Errorf("invalid token type: %s", s)
	}
	return tokenType, nil
}
