package http_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/instaai/pkg/controller/http"
	"github.com/secmon-lab/instaai/pkg/domain/model"
	"github.com/secmon-lab/instaai/pkg/domain/types"
	"github.com/secmon-lab/instaai/pkg/repository/memory"
	"github.com/secmon-lab/instaai/pkg/service/instagram"
	"github.com/secmon-lab/instaai/pkg/usecase"
)

const testVerifyToken = "test-verify-token"

// stubInstagram is a minimal instagram.Service for handler tests
type stubInstagram struct {
	exchangeCodeFn      func(ctx context.Context, code string) (*instagram.ShortLivedToken, error)
	exchangeLongLivedFn func(ctx context.Context, token string) (*instagram.LongLivedToken, error)
	meFn                func(ctx context.Context, token string) (*instagram.Profile, error)
	listConversationsFn func(ctx context.Context, token string) (json.RawMessage, error)
	getConversationFn   func(ctx context.Context, token, conversationID string) (*instagram.Conversation, error)
	getMessageFn        func(ctx context.Context, token, messageID string) (*instagram.Message, error)
	sendMessageFn       func(ctx context.Context, token, userID string, req *instagram.SendRequest) (json.RawMessage, error)
}

var _ instagram.Service = &stubInstagram{}

var errStub = errors.New("stub not configured")

func (s *stubInstagram) ExchangeCode(ctx context.Context, code string) (*instagram.ShortLivedToken, error) {
	if s.exchangeCodeFn == nil {
		return nil, errStub
	}
	return s.exchangeCodeFn(ctx, code)
}

func (s *stubInstagram) ExchangeLongLived(ctx context.Context, token string) (*instagram.LongLivedToken, error) {
	if s.exchangeLongLivedFn == nil {
		return nil, errStub
	}
	return s.exchangeLongLivedFn(ctx, token)
}

func (s *stubInstagram) Me(ctx context.Context, token string) (*instagram.Profile, error) {
	if s.meFn == nil {
		return nil, errStub
	}
	return s.meFn(ctx, token)
}

func (s *stubInstagram) ListConversations(ctx context.Context, token string) (json.RawMessage, error) {
	if s.listConversationsFn == nil {
		return nil, errStub
	}
	return s.listConversationsFn(ctx, token)
}

func (s *stubInstagram) GetConversation(ctx context.Context, token, conversationID string) (*instagram.Conversation, error) {
	if s.getConversationFn == nil {
		return nil, errStub
	}
	return s.getConversationFn(ctx, token, conversationID)
}

func (s *stubInstagram) GetMessage(ctx context.Context, token, messageID string) (*instagram.Message, error) {
	if s.getMessageFn == nil {
		return nil, errStub
	}
	return s.getMessageFn(ctx, token, messageID)
}

func (s *stubInstagram) SendMessage(ctx context.Context, token, userID string, req *instagram.SendRequest) (json.RawMessage, error) {
	if s.sendMessageFn == nil {
		return nil, errStub
	}
	return s.sendMessageFn(ctx, token, userID, req)
}

type testEnv struct {
	repo   *memory.Memory
	server *httpctrl.Server
}

func setupServer(t *testing.T, ig instagram.Service, opts ...httpctrl.Options) *testEnv {
	t.Helper()
	repo := memory.New()
	uc := usecase.New(repo, ig, usecase.WithVerifyToken(testVerifyToken))
	server, err := httpctrl.New(uc, opts...)
	gt.NoError(t, err).Required()
	return &testEnv{repo: repo, server: server}
}

// newUpstream returns a real client talking to handler
func newUpstream(t *testing.T, handler http.HandlerFunc) instagram.Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ig, err := instagram.New("client-id", "client-secret", "https://example.com/cb",
		instagram.WithHTTPClient(srv.Client()),
		instagram.WithAPIBaseURL(srv.URL),
		instagram.WithGraphBaseURL(srv.URL),
	)
	gt.NoError(t, err).Required()
	return ig
}

func (e *testEnv) putToken(t *testing.T, userID, token string) {
	t.Helper()
	rec := model.NewTokenRecord(userID, token, types.TokenTypeLongLived, time.Now())
	gt.NoError(t, e.repo.Token().Put(context.Background(), rec)).Required()
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	gt.Value(t, rec.Header().Get("Content-Type")).Equal("application/json")
	var body map[string]any
	dec := json.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	dec.UseNumber()
	gt.NoError(t, dec.Decode(&body)).Required()
	return body
}

func TestCORS(t *testing.T) {
	env := setupServer(t, &stubInstagram{})

	t.Run("preflight", func(t *testing.T) {
		rec := env.do(t, http.MethodOptions, "/exchange-token", "")
		gt.Number(t, rec.Code).Equal(http.StatusNoContent)
		gt.Value(t, rec.Header().Get("Access-Control-Allow-Origin")).Equal("*")
		gt.Value(t, rec.Header().Get("Access-Control-Allow-Methods")).Equal("POST, OPTIONS")
		gt.Value(t, rec.Header().Get("Access-Control-Allow-Headers")).Equal("Content-Type, Authorization")
	})

	t.Run("GET route methods", func(t *testing.T) {
		rec := env.do(t, http.MethodOptions, "/get-messages", "")
		gt.Number(t, rec.Code).Equal(http.StatusNoContent)
		gt.Value(t, rec.Header().Get("Access-Control-Allow-Methods")).Equal("GET, OPTIONS")
	})

	t.Run("error responses carry CORS headers", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/get-conversations?user_id=nobody", "")
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
		gt.Value(t, rec.Header().Get("Access-Control-Allow-Origin")).Equal("*")
		body := decodeJSON(t, rec)
		gt.Value(t, body["error"]).Equal("User token not found")
	})

	t.Run("panic becomes JSON 500 with CORS", func(t *testing.T) {
		env := setupServer(t, &stubInstagram{
			listConversationsFn: func(ctx context.Context, token string) (json.RawMessage, error) {
				panic("boom")
			},
		})
		env.putToken(t, "42", "tok")

		rec := env.do(t, http.MethodGet, "/get-conversations?user_id=42", "")
		gt.Number(t, rec.Code).Equal(http.StatusInternalServerError)
		gt.Value(t, rec.Header().Get("Access-Control-Allow-Origin")).Equal("*")
		body := decodeJSON(t, rec)
		gt.Value(t, body["error"]).Equal("internal server error")
	})
}

func TestWebhook(t *testing.T) {
	t.Run("verification echoes challenge", func(t *testing.T) {
		env := setupServer(t, &stubInstagram{})
		rec := env.do(t, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token="+testVerifyToken+"&hub.challenge=xyz123", "")

		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, rec.Header().Get("Content-Type")).Equal("text/plain")
		gt.Value(t, rec.Body.String()).Equal("xyz123")
		gt.Value(t, rec.Header().Get("Access-Control-Allow-Methods")).Equal("GET, POST")
	})

	t.Run("verification with wrong token", func(t *testing.T) {
		env := setupServer(t, &stubInstagram{})
		rec := env.do(t, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=xyz123", "")

		gt.Number(t, rec.Code).Equal(http.StatusForbidden)
		gt.Bool(t, strings.Contains(rec.Body.String(), "xyz123")).False()
	})

	t.Run("delivery is stored", func(t *testing.T) {
		env := setupServer(t, &stubInstagram{})
		payload := `{"object":"instagram","entry":[{"messaging":[{"sender":{"id":"99"},"recipient":{"id":42}}]}]}`

		rec := env.do(t, http.MethodPost, "/webhook", payload)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		body := decodeJSON(t, rec)
		gt.Value(t, body["status"]).Equal("received")

		eventID, ok := body["event_id"].(string)
		gt.Bool(t, ok).True()
		stored, err := env.repo.Event().Get(context.Background(), model.EventID(eventID))
		gt.NoError(t, err).Required()
		gt.Value(t, string(stored.RawPayload)).Equal(payload)
		gt.Value(t, stored.UserID).Equal("42")

		ts, err := body["timestamp_ms"].(json.Number).Int64()
		gt.NoError(t, err).Required()
		gt.Number(t, ts).Equal(stored.TimestampMS)
	})

	t.Run("invalid JSON delivery", func(t *testing.T) {
		env := setupServer(t, &stubInstagram{})
		rec := env.do(t, http.MethodPost, "/webhook", `{"object":`)
		gt.Number(t, rec.Code).Equal(http.StatusInternalServerError)
		body := decodeJSON(t, rec)
		gt.String(t, body["error"].(string)).Contains("invalid JSON payload")
	})

	t.Run("oversized delivery asks for a retry", func(t *testing.T) {
		env := setupServer(t, &stubInstagram{})
		payload := `{"padding":"` + strings.Repeat("x", 1<<20) + `"}`
		rec := env.do(t, http.MethodPost, "/webhook", payload)
		gt.Number(t, rec.Code).Equal(http.StatusInternalServerError)
		gt.Value(t, rec.Header().Get("Access-Control-Allow-Origin")).Equal("*")

		events, err := env.repo.Event().ListSince(context.Background(), time.Time{})
		gt.NoError(t, err).Required()
		gt.Array(t, events).Length(0)
	})

	t.Run("oversized API body is a client error", func(t *testing.T) {
		env := setupServer(t, &stubInstagram{})
		payload := `{"code":"` + strings.Repeat("x", 1<<20) + `"}`
		rec := env.do(t, http.MethodPost, "/exchange-token", payload)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("other methods are rejected", func(t *testing.T) {
		env := setupServer(t, &stubInstagram{})
		rec := env.do(t, http.MethodPut, "/webhook", `{}`)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
		body := decodeJSON(t, rec)
		gt.Value(t, body["error"]).Equal("Invalid request method")

		events, err := env.repo.Event().ListSince(context.Background(), time.Time{})
		gt.NoError(t, err).Required()
		gt.Array(t, events).Length(0)
	})
}

func computeHubSignature(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyHubSignature(t *testing.T) {
	body := []byte(`{"object":"instagram"}`)

	gt.NoError(t, httpctrl.VerifyHubSignature("secret", computeHubSignature("secret", string(body)), body))
	gt.Error(t, httpctrl.VerifyHubSignature("secret", computeHubSignature("other", string(body)), body))
	gt.Error(t, httpctrl.VerifyHubSignature("secret", "", body))
	gt.Error(t, httpctrl.VerifyHubSignature("secret", "sha1=abcd", body))
	gt.Error(t, httpctrl.VerifyHubSignature("secret", "sha256=zz", body))
}

func TestWebhookSignature(t *testing.T) {
	payload := `{"entry":[]}`

	t.Run("valid signature", func(t *testing.T) {
		env := setupServer(t, &stubInstagram{}, httpctrl.WithWebhookAppSecret("app-secret"))
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
		req.Header.Set("X-Hub-Signature-256", computeHubSignature("app-secret", payload))
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("missing signature", func(t *testing.T) {
		env := setupServer(t, &stubInstagram{}, httpctrl.WithWebhookAppSecret("app-secret"))
		rec := env.do(t, http.MethodPost, "/webhook", payload)
		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("handshake does not need signature", func(t *testing.T) {
		env := setupServer(t, &stubInstagram{}, httpctrl.WithWebhookAppSecret("app-secret"))
		rec := env.do(t, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token="+testVerifyToken+"&hub.challenge=c1", "")
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})
}
