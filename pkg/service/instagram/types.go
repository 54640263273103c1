package instagram

import (
	"context"
	"encoding/json"
)

// Service provides access to the Instagram platform API
type Service interface {
	// ExchangeCode trades an OAuth authorization code for a short-lived token
	ExchangeCode(ctx context.Context, code string) (*ShortLivedToken, error)

	// ExchangeLongLived upgrades a short-lived token
	ExchangeLongLived(ctx context.Context, shortLivedToken string) (*LongLivedToken, error)

	// Me introspects the account owning accessToken
	Me(ctx context.Context, accessToken string) (*Profile, error)

	// ListConversations returns the upstream conversation listing verbatim
	ListConversations(ctx context.Context, accessToken string) (json.RawMessage, error)

	// GetConversation fetches the message id list of a conversation
	GetConversation(ctx context.Context, accessToken, conversationID string) (*Conversation, error)

	// GetMessage fetches the detail of one message
	GetMessage(ctx context.Context, accessToken, messageID string) (*Message, error)

	// SendMessage posts an outbound message as userID and returns the upstream body
	SendMessage(ctx context.Context, accessToken, userID string, req *SendRequest) (json.RawMessage, error)
}

type ShortLivedToken struct {
	AccessToken string `masq:"secret"`
	UserID      string
}

type LongLivedToken struct {
	AccessToken string `masq:"secret"`
	TokenType   string
	ExpiresIn   int64
}

type Profile struct {
	UserID   string
	Username string
	ID       string
}

type Participant struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

// Conversation is the upstream body of a conversation lookup. MessageIDs
// is nil when the body has no messages.data list; entries without an id are
// skipped.
type Conversation struct {
	MessageIDs []string
	Raw        json.RawMessage
}

// Message is an enriched platform message. Raw is the upstream detail as
// received, the other fields are decoded from it.
type Message struct {
	ID          string
	CreatedTime string
	From        Participant
	To          []Participant
	Text        string
	Raw         json.RawMessage
}

// RecipientID returns the first recipient, or "" if there is none
func (m *Message) RecipientID() string {
	if len(m.To) == 0 {
		return ""
	}
	return m.To[0].ID
}

// SendRequest is the JSON body of the send-message endpoint
type SendRequest struct {
	Recipient    Recipient        `json:"recipient"`
	Message      *OutboundMessage `json:"message,omitempty"`
	SenderAction string           `json:"sender_action,omitempty"`
	Payload      any              `json:"payload,omitempty"`
}

type Recipient struct {
	ID string `json:"id"`
}

type OutboundMessage struct {
	Text       string      `json:"text,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

type Attachment struct {
	Type    string             `json:"type"`
	Payload *AttachmentPayload `json:"payload,omitempty"`
}

type AttachmentPayload struct {
	URL string `json:"url,omitempty"`
	ID  string `json:"id,omitempty"`
}
