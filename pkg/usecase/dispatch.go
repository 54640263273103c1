package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
	"github.com/secmon-lab/instaai/pkg/domain/types"
	"github.com/secmon-lab/instaai/pkg/service/instagram"
	"github.com/secmon-lab/instaai/pkg/utils/logging"
)

// mediaShareAttachmentType is the attachment type the platform expects for post shares
const mediaShareAttachmentType = "MEDIA_SHARE"

// DispatchUseCase sends outbound messages
type DispatchUseCase struct {
	repo      interfaces.Repository
	instagram instagram.Service
}

func NewDispatchUseCase(repo interfaces.Repository, ig instagram.Service) *DispatchUseCase {
	return &DispatchUseCase{
		repo:      repo,
		instagram: ig,
	}
}

// SendInput is an outbound message request. Which optional fields are
// required depends on MessageType.
type SendInput struct {
	UserID        string
	RecipientID   string
	MessageType   string
	Message       string
	AttachmentURL string
	PostID        string
	SenderAction  string
	Payload       any
}

type SendResult struct {
	Response    json.RawMessage
	MessageID   string
	RecipientID string
}

// buildSendRequest validates input and builds the platform request body
func buildSendRequest(input SendInput) (*instagram.SendRequest, error) {
	if input.UserID == "" || input.RecipientID == "" {
		return nil, newUserError(ErrValidation, "user_id and recipient_id are required")
	}
	if strings.TrimSpace(input.MessageType) == "" {
		return nil, newUserError(ErrValidation, "message_type is required")
	}

	msgType, err := types.ParseMessageType(input.MessageType)
	if err != nil {
		return nil, newUserError(ErrValidation, "Unsupported message_type: "+input.MessageType)
	}

	required := func(field, value string) error {
		if value == "" {
			return newUserError(ErrValidation, field+" is required for message_type "+msgType.String())
		}
		return nil
	}

	req := &instagram.SendRequest{
		Recipient: instagram.Recipient{ID: input.RecipientID},
	}

	switch msgType {
	case types.MessageTypeText:
		if err := required("message", input.Message); err != nil {
			return nil, err
		}
		req.Message = &instagram.OutboundMessage{Text: input.Message}

	case types.MessageTypeImage, types.MessageTypeAudio, types.MessageTypeVideo:
		if err := required("attachment_url", input.AttachmentURL); err != nil {
			return nil, err
		}
		req.Message = &instagram.OutboundMessage{
			Attachment: &instagram.Attachment{
				Type:    msgType.String(),
				Payload: &instagram.AttachmentPayload{URL: input.AttachmentURL},
			},
		}

	case types.MessageTypeLikeHeart:
		req.Message = &instagram.OutboundMessage{
			Attachment: &instagram.Attachment{Type: msgType.String()},
		}

	case types.MessageTypeMediaShare:
		if err := required("post_id", input.PostID); err != nil {
			return nil, err
		}
		req.Message = &instagram.OutboundMessage{
			Attachment: &instagram.Attachment{
				Type:    mediaShareAttachmentType,
				Payload: &instagram.AttachmentPayload{ID: input.PostID},
			},
		}

	case types.MessageTypeSenderAction:
		if err := required("sender_action", input.SenderAction); err != nil {
			return nil, err
		}
		req.SenderAction = input.SenderAction
		req.Payload = input.Payload

	default:
		return nil, newUserError(ErrValidation, "Unsupported message_type: "+input.MessageType)
	}

	return req, nil
}

// Send validates the request, resolves the sender's token and posts the
// message once
func (uc *DispatchUseCase) Send(ctx context.Context, input SendInput) (*SendResult, error) {
	req, err := buildSendRequest(input)
	if err != nil {
		return nil, err
	}

	token, err := resolveAccessToken(ctx, uc.repo, input.UserID)
	if err != nil {
		return nil, err
	}

	resp, err := uc.instagram.SendMessage(ctx, token, input.UserID, req)
	if err != nil {
		return nil, goerr.Wrap(upstreamError(err, "Invalid send response from Instagram"), "failed to send message",
			goerr.V("user_id", input.UserID),
			goerr.V("recipient_id", input.RecipientID))
	}

	result := &SendResult{
		Response:    resp,
		RecipientID: input.RecipientID,
	}
	if tree, err := model.DecodePayload(resp); err == nil {
		result.MessageID, _ = model.LookupString(tree, "message_id")
	}

	logging.From(ctx).Info("message sent",
		"user_id", input.UserID,
		"recipient_id", input.RecipientID,
		"message_type", strings.ToLower(input.MessageType),
		"message_id", result.MessageID)
	return result, nil
}
