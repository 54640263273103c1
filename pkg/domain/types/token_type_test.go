package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/instaai/pkg/domain/types"
)

func TestTokenType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		tokenType types.TokenType
		want      bool
	}{
		{name: "short lived", tokenType: types.TokenTypeShortLived, want: true},
		{name: "long lived", tokenType: types.TokenTypeLongLived, want: true},
		{name: "unknown", tokenType: types.TokenTypeUnknown, want: true},
		{name: "bearer is not a token type", tokenType: types.TokenType("bearer"), want: false},
		{name: "empty", tokenType: types.TokenType(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.tokenType.IsValid()).Equal(tt.want)
		})
	}
}

func TestTokenType_Normalize(t *testing.T) {
	gt.Value(t, types.TokenType("").Normalize()).Equal(types.TokenTypeUnknown)
	gt.Value(t, types.TokenTypeLongLived.Normalize()).Equal(types.TokenTypeLongLived)
}

func TestParseTokenType(t *testing.T) {
	got, err := types.ParseTokenType("long_lived")
	gt.NoError(t, err).Required()
	gt.Value(t, got).Equal(types.TokenTypeLongLived)

	_, err = types.ParseTokenType("forever")
	gt.Error(t, err)
}
