package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/service/instagram"
	"github.com/secmon-lab/instaai/pkg/usecase"
	"github.com/secmon-lab/instaai/pkg/utils/errutil"
	"github.com/secmon-lab/instaai/pkg/utils/safe"
)

type participantList struct {
	Data []instagram.Participant `json:"data"`
}

// messageDetail is the shape of a message that carries no upstream body
type messageDetail struct {
	ID          string                `json:"id"`
	CreatedTime string                `json:"created_time,omitempty"`
	From        instagram.Participant `json:"from"`
	To          participantList       `json:"to"`
	Message     string                `json:"message,omitempty"`
}

type getMessagesResponse struct {
	Messages       []json.RawMessage `json:"messages"`
	ConversationID string            `json:"conversation_id"`
}

// messageJSON returns the upstream detail of msg as received
func messageJSON(msg *instagram.Message) (json.RawMessage, error) {
	if len(msg.Raw) > 0 {
		return msg.Raw, nil
	}

	to := msg.To
	if to == nil {
		to = []instagram.Participant{}
	}
	return json.Marshal(messageDetail{
		ID:          msg.ID,
		CreatedTime: msg.CreatedTime,
		From:        msg.From,
		To:          participantList{Data: to},
		Message:     msg.Text,
	})
}

// writeRaw relays an upstream JSON body unchanged
func writeRaw(w http.ResponseWriter, r *http.Request, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, raw)
}

func getConversationsHandler(uc *usecase.SyncUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := uc.ListConversations(r.Context(), r.URL.Query().Get("user_id"))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}
		writeRaw(w, r, raw)
	}
}

func getMessagesHandler(uc *usecase.SyncUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		result, err := uc.GetMessages(r.Context(), q.Get("user_id"), q.Get("conversation_id"))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		if result.Raw != nil {
			writeRaw(w, r, result.Raw)
			return
		}

		resp := getMessagesResponse{
			Messages:       make([]json.RawMessage, 0, len(result.Messages)),
			ConversationID: result.ConversationID,
		}
		for _, msg := range result.Messages {
			raw, err := messageJSON(msg)
			if err != nil {
				errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to encode message", goerr.V("message_id", msg.ID)), http.StatusInternalServerError)
				return
			}
			resp.Messages = append(resp.Messages, raw)
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}
