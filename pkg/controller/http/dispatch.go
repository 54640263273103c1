package http

import (
	"encoding/json"
	"net/http"

	"github.com/secmon-lab/instaai/pkg/usecase"
	"github.com/secmon-lab/instaai/pkg/utils/errutil"
)

type sendMessageRequest struct {
	UserID        string `json:"user_id"`
	RecipientID   string `json:"recipient_id"`
	MessageType   string `json:"message_type"`
	Message       string `json:"message"`
	AttachmentURL string `json:"attachment_url"`
	PostID        string `json:"post_id"`
	SenderAction  string `json:"sender_action"`
	Payload       any    `json:"payload"`
}

type sendMessageResponse struct {
	Success     bool            `json:"success"`
	Response    json.RawMessage `json:"response"`
	MessageID   string          `json:"message_id"`
	RecipientID string          `json:"recipient_id"`
}

func sendMessageHandler(uc *usecase.DispatchUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		if err := decodeBody(r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		result, err := uc.Send(r.Context(), usecase.SendInput{
			UserID:        req.UserID,
			RecipientID:   req.RecipientID,
			MessageType:   req.MessageType,
			Message:       req.Message,
			AttachmentURL: req.AttachmentURL,
			PostID:        req.PostID,
			SenderAction:  req.SenderAction,
			Payload:       req.Payload,
		})
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		resp := result.Response
		if len(resp) == 0 {
			resp = json.RawMessage("{}")
		}
		writeJSON(w, r, http.StatusOK, sendMessageResponse{
			Success:     true,
			Response:    resp,
			MessageID:   result.MessageID,
			RecipientID: result.RecipientID,
		})
	}
}
