package http

import (
	"net/http"
	"strconv"

	"github.com/secmon-lab/instaai/pkg/usecase"
	"github.com/secmon-lab/instaai/pkg/utils/errutil"
)

type getEventsResponse struct {
	Events []any `json:"events"`
	Count  int   `json:"count"`
}

func getEventsHandler(uc *usecase.EventsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		ownedOnly, _ := strconv.ParseBool(q.Get("owned_only"))

		events, err := uc.ListRecent(r.Context(), usecase.ListEventsInput{
			UserID:      q.Get("user_id"),
			LastMinutes: q.Get("last_minutes"),
			OwnedOnly:   ownedOnly,
		})
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		resp := getEventsResponse{
			Events: make([]any, len(events)),
			Count:  len(events),
		}
		for i, ev := range events {
			resp.Events[i] = ev.Payload
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}
