package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
	"github.com/secmon-lab/instaai/pkg/domain/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type tokenDocument struct {
	UserID      string    `firestore:"user_id"`
	AccessToken string    `firestore:"access_token"`
	TokenType   string    `firestore:"token_type"`
	Username    string    `firestore:"username,omitempty"`
	ExternalID  string    `firestore:"external_id,omitempty"`
	ExpiresIn   int64     `firestore:"expires_in,omitempty"`
	IsDeleted   bool      `firestore:"is_deleted"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

type tokenRepository struct {
	client     *firestore.Client
	collection string
}

var _ interfaces.TokenRepository = &tokenRepository{}

func newTokenRepository(client *firestore.Client, collection string) *tokenRepository {
	return &tokenRepository{
		client:     client,
		collection: collection,
	}
}

func tokenToDocument(t *model.TokenRecord) *tokenDocument {
	return &tokenDocument{
		UserID:      t.UserID,
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType.String(),
		Username:    t.Username,
		ExternalID:  t.ExternalID,
		ExpiresIn:   t.ExpiresIn,
		IsDeleted:   t.IsDeleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func tokenToModel(doc *tokenDocument) *model.TokenRecord {
	return &model.TokenRecord{
		UserID:      doc.UserID,
		AccessToken: doc.AccessToken,
		TokenType:   types.TokenType(doc.TokenType).Normalize(),
		Username:    doc.Username,
		ExternalID:  doc.ExternalID,
		ExpiresIn:   doc.ExpiresIn,
		IsDeleted:   doc.IsDeleted,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

func (r *tokenRepository) Get(ctx context.Context, userID string) (*model.TokenRecord, error) {
	doc, err := r.client.Collection(r.collection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "token not found", goerr.V("user_id", userID))
		}
		return nil, goerr.Wrap(err, "failed to get token", goerr.V("user_id", userID))
	}

	var tokenDoc tokenDocument
	if err := doc.DataTo(&tokenDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal token", goerr.V("user_id", userID))
	}

	return tokenToModel(&tokenDoc), nil
}

func (r *tokenRepository) Put(ctx context.Context, token *model.TokenRecord) error {
	if err := token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token record")
	}

	docRef := r.client.Collection(r.collection).Doc(token.UserID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var existing *model.TokenRecord

		doc, err := tx.Get(docRef)
		switch {
		case status.Code(err) == codes.NotFound:
			// first write for this user
		case err != nil:
			return goerr.Wrap(err, "failed to get existing token")
		default:
			var tokenDoc tokenDocument
			if err := doc.DataTo(&tokenDoc); err != nil {
				return goerr.Wrap(err, "failed to unmarshal existing token")
			}
			existing = tokenToModel(&tokenDoc)
		}

		merged := model.MergeTokenRecord(existing, token)
		return tx.Set(docRef, tokenToDocument(merged))
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put token", goerr.V("user_id", token.UserID))
	}

	return nil
}
