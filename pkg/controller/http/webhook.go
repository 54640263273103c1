package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/model"
	"github.com/secmon-lab/instaai/pkg/usecase"
	"github.com/secmon-lab/instaai/pkg/utils/errutil"
	"github.com/secmon-lab/instaai/pkg/utils/safe"
)

const hubSignatureHeader = "X-Hub-Signature-256"

type webhookResponse struct {
	Status      string        `json:"status"`
	EventID     model.EventID `json:"event_id"`
	TimestampMS int64         `json:"timestamp_ms"`
}

// verifyHubSignature checks "sha256=<hex HMAC-SHA256(appSecret, body)>"
func verifyHubSignature(appSecret, signature string, body []byte) error {
	if signature == "" {
		return goerr.New("missing signature")
	}

	sig, found := strings.CutPrefix(signature, "sha256=")
	if !found {
		return goerr.New("unsupported signature format", goerr.V("signature", signature))
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return goerr.Wrap(err, "invalid signature encoding")
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	if _, err := mac.Write(body); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}

	if !hmac.Equal(mac.Sum(nil), got) {
		return goerr.New("signature mismatch")
	}
	return nil
}

// webhookHandler serves the verification handshake (GET) and event
// deliveries (POST). An empty appSecret disables the signature check.
func webhookHandler(uc *usecase.WebhookUseCase, appSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodGet:
			q := r.URL.Query()
			challenge, err := uc.Verify(ctx, usecase.VerifyInput{
				Mode:        q.Get("hub.mode"),
				VerifyToken: q.Get("hub.verify_token"),
				Challenge:   q.Get("hub.challenge"),
			})
			if err != nil {
				errutil.HandleHTTP(ctx, w, err, http.StatusForbidden)
				return
			}

			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			safe.Write(ctx, w, []byte(challenge))

		case http.MethodPost:
			body, err := readBody(r)
			if err != nil {
				errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
				return
			}

			if appSecret != "" {
				if err := verifyHubSignature(appSecret, r.Header.Get(hubSignatureHeader), body); err != nil {
					errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "webhook signature verification failed"), http.StatusUnauthorized)
					return
				}
			}

			event, err := uc.Deliver(ctx, body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
				return
			}

			writeJSON(w, r, http.StatusOK, webhookResponse{
				Status:      "received",
				EventID:     event.ID,
				TimestampMS: event.TimestampMS,
			})

		default:
			writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "Invalid request method"})
		}
	}
}
