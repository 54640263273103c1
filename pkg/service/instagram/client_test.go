package instagram_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/instaai/pkg/service/instagram"
)

func newTestService(t *testing.T, handler http.Handler) instagram.Service {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := instagram.New("client-id", "client-secret", "https://example.com/cb",
		instagram.WithHTTPClient(srv.Client()),
		instagram.WithAPIBaseURL(srv.URL),
		instagram.WithGraphBaseURL(srv.URL),
	)
	gt.NoError(t, err).Required()
	return svc
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNew(t *testing.T) {
	_, err := instagram.New("", "secret", "")
	gt.Error(t, err)

	svc, err := instagram.New("id", "secret", "")
	gt.NoError(t, err)
	gt.Value(t, svc).NotNil()
}

func TestExchangeCode(t *testing.T) {
	t.Run("posts form and coerces numeric user id", func(t *testing.T) {
		var form url.Values
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gt.Value(t, r.Method).Equal(http.MethodPost)
			gt.Value(t, r.URL.Path).Equal("/oauth/access_token")
			gt.NoError(t, r.ParseForm())
			form = r.PostForm
			writeJSON(w, 200, `{"access_token":"short-tok","user_id":17841400000000001,"permissions":["instagram_business_basic"]}`)
		}))

		token, err := svc.ExchangeCode(context.Background(), "the-code")
		gt.NoError(t, err).Required()
		gt.Value(t, token.AccessToken).Equal("short-tok")
		gt.Value(t, token.UserID).Equal("17841400000000001")

		gt.Value(t, form.Get("client_id")).Equal("client-id")
		gt.Value(t, form.Get("client_secret")).Equal("client-secret")
		gt.Value(t, form.Get("grant_type")).Equal("authorization_code")
		gt.Value(t, form.Get("redirect_uri")).Equal("https://example.com/cb")
		gt.Value(t, form.Get("code")).Equal("the-code")
	})

	t.Run("data wrapped response", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, `{"data":[{"access_token":"tok","user_id":"42"}]}`)
		}))

		token, err := svc.ExchangeCode(context.Background(), "c")
		gt.NoError(t, err).Required()
		gt.Value(t, token.AccessToken).Equal("tok")
		gt.Value(t, token.UserID).Equal("42")
	})

	t.Run("missing fields are empty", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, `{"access_token":"tok"}`)
		}))

		token, err := svc.ExchangeCode(context.Background(), "c")
		gt.NoError(t, err).Required()
		gt.Value(t, token.UserID).Equal("")
	})

	t.Run("oauth error shape", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 400, `{"error_type":"OAuthException","code":400,"error_message":"Invalid authorization code"}`)
		}))

		_, err := svc.ExchangeCode(context.Background(), "bad")
		var apiErr *instagram.APIError
		gt.Bool(t, errors.As(err, &apiErr)).True()
		gt.Number(t, apiErr.StatusCode).Equal(400)
		gt.Value(t, apiErr.Message).Equal("Invalid authorization code")
		gt.Value(t, apiErr.Code).Equal(json.Number("400"))
		gt.Value(t, apiErr.Subcode).Nil()
	})
}

func TestExchangeLongLived(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/access_token")
		q := r.URL.Query()
		gt.Value(t, q.Get("grant_type")).Equal("ig_exchange_token")
		gt.Value(t, q.Get("client_secret")).Equal("client-secret")
		gt.Value(t, q.Get("access_token")).Equal("short")
		writeJSON(w, 200, `{"access_token":"long","token_type":"bearer","expires_in":5183944}`)
	}))

	token, err := svc.ExchangeLongLived(context.Background(), "short")
	gt.NoError(t, err).Required()
	gt.Value(t, token.AccessToken).Equal("long")
	gt.Number(t, token.ExpiresIn).Equal(5183944)
}

func TestMe(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gt.Value(t, r.URL.Path).Equal("/v22.0/me")
			gt.Value(t, r.URL.Query().Get("fields")).Equal("user_id,username")
			gt.Value(t, r.URL.Query().Get("access_token")).Equal("tok")
			writeJSON(w, 200, `{"user_id":"42","username":"alice","id":"900"}`)
		}))

		profile, err := svc.Me(context.Background(), "tok")
		gt.NoError(t, err).Required()
		gt.Value(t, profile.UserID).Equal("42")
		gt.Value(t, profile.Username).Equal("alice")
		gt.Value(t, profile.ID).Equal("900")
	})

	t.Run("graph error envelope", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 401, `{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190,"error_subcode":463}}`)
		}))

		_, err := svc.Me(context.Background(), "expired")
		var apiErr *instagram.APIError
		gt.Bool(t, errors.As(err, &apiErr)).True()
		gt.Number(t, apiErr.StatusCode).Equal(401)

		fields := apiErr.ResponseBody()
		gt.Value(t, fields["error"]).Equal("Invalid OAuth access token")
		gt.Value(t, fields["error_code"]).Equal(json.Number("190"))
		gt.Value(t, fields["error_subcode"]).Equal(json.Number("463"))
	})
}

func TestListConversations(t *testing.T) {
	body := `{"data":[{"id":"c1","updated_time":"2026-01-01T00:00:00+0000"}]}`
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/v22.0/me/conversations")
		gt.Value(t, r.URL.Query().Get("fields")).Equal("id,updated_time")
		gt.Value(t, r.URL.Query().Get("platform")).Equal("instagram")
		writeJSON(w, 200, body)
	}))

	raw, err := svc.ListConversations(context.Background(), "tok")
	gt.NoError(t, err).Required()
	gt.Value(t, string(raw)).Equal(body)
}

func TestGetConversation(t *testing.T) {
	t.Run("skips entries without id", func(t *testing.T) {
		body := `{"messages":{"data":[{"id":"m1"},{"created_time":"x"},{"id":"m2"}]},"id":"conv-1"}`
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gt.Value(t, r.URL.Path).Equal("/v22.0/conv-1")
			gt.Value(t, r.URL.Query().Get("fields")).Equal("messages")
			writeJSON(w, 200, body)
		}))

		conv, err := svc.GetConversation(context.Background(), "tok", "conv-1")
		gt.NoError(t, err).Required()
		gt.Array(t, conv.MessageIDs).Length(2).Required()
		gt.Value(t, conv.MessageIDs[0]).Equal("m1")
		gt.Value(t, conv.MessageIDs[1]).Equal("m2")
		gt.Value(t, string(conv.Raw)).Equal(body)
	})

	t.Run("empty messages list", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, `{"messages":{"data":[]},"id":"conv-1"}`)
		}))

		conv, err := svc.GetConversation(context.Background(), "tok", "conv-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, conv.MessageIDs != nil).True()
		gt.Array(t, conv.MessageIDs).Length(0)
	})

	t.Run("missing messages list keeps body", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, `{"id":"conv-1"}`)
		}))

		conv, err := svc.GetConversation(context.Background(), "tok", "conv-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, conv.MessageIDs == nil).True()
		gt.Value(t, string(conv.Raw)).Equal(`{"id":"conv-1"}`)
	})

	t.Run("upstream error without envelope", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 502, `bad gateway`)
		}))

		_, err := svc.GetConversation(context.Background(), "tok", "conv-1")
		var apiErr *instagram.APIError
		gt.Bool(t, errors.As(err, &apiErr)).True()
		fields := apiErr.ResponseBody()
		gt.Value(t, fields["error"]).Equal("unknown")
		gt.Value(t, fields["error_code"]).Equal("unknown")
		gt.Value(t, fields["error_subcode"]).Equal("unknown")
	})
}

func TestMalformedSuccessBody(t *testing.T) {
	html := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("<html>oops</html>"))
	})
	svc := newTestService(t, html)
	ctx := context.Background()

	_, err := svc.ExchangeCode(ctx, "code")
	gt.Error(t, err).Is(instagram.ErrMalformedResponse)

	_, err = svc.ExchangeLongLived(ctx, "short")
	gt.Error(t, err).Is(instagram.ErrMalformedResponse)

	_, err = svc.Me(ctx, "tok")
	gt.Error(t, err).Is(instagram.ErrMalformedResponse)

	_, err = svc.ListConversations(ctx, "tok")
	gt.Error(t, err).Is(instagram.ErrMalformedResponse)

	_, err = svc.GetConversation(ctx, "tok", "conv-1")
	gt.Error(t, err).Is(instagram.ErrMalformedResponse)

	_, err = svc.GetMessage(ctx, "tok", "m1")
	gt.Error(t, err).Is(instagram.ErrMalformedResponse)

	_, err = svc.SendMessage(ctx, "tok", "42", &instagram.SendRequest{Recipient: instagram.Recipient{ID: "7"}})
	gt.Error(t, err).Is(instagram.ErrMalformedResponse)

	var apiErr *instagram.APIError
	gt.Bool(t, errors.As(err, &apiErr)).False()
}

func TestGetMessage(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/v22.0/m1")
		gt.Value(t, r.URL.Query().Get("fields")).Equal("id,created_time,from,to,message")
		writeJSON(w, 200, `{"id":"m1","created_time":"2026-01-01T00:00:00+0000","from":{"id":"s1","username":"bob"},"to":{"data":[{"id":"r1","username":"alice"}]},"message":"hi"}`)
	}))

	msg, err := svc.GetMessage(context.Background(), "tok", "m1")
	gt.NoError(t, err).Required()
	gt.Value(t, msg.ID).Equal("m1")
	gt.Value(t, msg.From.ID).Equal("s1")
	gt.Value(t, msg.RecipientID()).Equal("r1")
	gt.Value(t, msg.Text).Equal("hi")
	gt.Value(t, msg.CreatedTime).Equal("2026-01-01T00:00:00+0000")
}

func TestGetMessage_KeepsUpstreamDetail(t *testing.T) {
	body := `{"id":"m1","created_time":"t","from":{"id":"s1"},"to":{"data":[{"id":"42"}]},"attachments":{"data":[{"image_data":{"url":"u"}}]}}`
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, body)
	}))

	msg, err := svc.GetMessage(context.Background(), "tok", "m1")
	gt.NoError(t, err).Required()
	gt.Value(t, string(msg.Raw)).Equal(body)
	gt.Value(t, msg.Text).Equal("")
	gt.Value(t, msg.RecipientID()).Equal("42")
}

func TestSendMessage(t *testing.T) {
	t.Run("bearer auth and JSON body", func(t *testing.T) {
		var got map[string]any
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gt.Value(t, r.Method).Equal(http.MethodPost)
			gt.Value(t, r.URL.Path).Equal("/v22.0/42/messages")
			gt.Value(t, r.Header.Get("Authorization")).Equal("Bearer tok")
			gt.Value(t, r.Header.Get("Content-Type")).Equal("application/json")
			raw, err := io.ReadAll(r.Body)
			gt.NoError(t, err)
			gt.NoError(t, json.Unmarshal(raw, &got))
			writeJSON(w, 200, `{"recipient_id":"7","message_id":"mid.1"}`)
		}))

		resp, err := svc.SendMessage(context.Background(), "tok", "42", &instagram.SendRequest{
			Recipient: instagram.Recipient{ID: "7"},
			Message:   &instagram.OutboundMessage{Text: "hello"},
		})
		gt.NoError(t, err).Required()
		gt.String(t, string(resp)).Contains("mid.1")

		gt.Value(t, got["recipient"]).Equal(map[string]any{"id": "7"})
		gt.Value(t, got["message"]).Equal(map[string]any{"text": "hello"})
		_, hasAction := got["sender_action"]
		gt.Bool(t, hasAction).False()
	})

	t.Run("201 is success", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 201, `{"message_id":"mid.2"}`)
		}))

		_, err := svc.SendMessage(context.Background(), "tok", "42", &instagram.SendRequest{
			Recipient: instagram.Recipient{ID: "7"},
			Message:   &instagram.OutboundMessage{Text: "hello"},
		})
		gt.NoError(t, err)
	})

	t.Run("202 is not success", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 202, `{}`)
		}))

		_, err := svc.SendMessage(context.Background(), "tok", "42", &instagram.SendRequest{
			Recipient: instagram.Recipient{ID: "7"},
		})
		var apiErr *instagram.APIError
		gt.Bool(t, errors.As(err, &apiErr)).True()
		gt.Number(t, apiErr.StatusCode).Equal(202)
	})
}
