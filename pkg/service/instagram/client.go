package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/model"
	"github.com/secmon-lab/instaai/pkg/utils/safe"
)

const (
	DefaultAPIBaseURL   = "https://api.instagram.com"
	DefaultGraphBaseURL = "https://graph.instagram.com"
	DefaultGraphVersion = "v22.0"
	DefaultTimeout      = 30 * time.Second
)

// maxResponseSize bounds upstream bodies read into memory
const maxResponseSize = 10 << 20

// client implements Service interface
type client struct {
	clientID     string
	clientSecret string
	redirectURI  string

	apiBaseURL   string
	graphBaseURL string
	graphVersion string
	httpClient   *http.Client
}

type Option func(*client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *client) {
		cl.httpClient = c
	}
}

// WithAPIBaseURL sets the host of the OAuth code exchange endpoint
func WithAPIBaseURL(u string) Option {
	return func(cl *client) {
		cl.apiBaseURL = strings.TrimRight(u, "/")
	}
}

// WithGraphBaseURL sets the host of the Graph API
func WithGraphBaseURL(u string) Option {
	return func(cl *client) {
		cl.graphBaseURL = strings.TrimRight(u, "/")
	}
}

func WithGraphVersion(v string) Option {
	return func(cl *client) {
		cl.graphVersion = strings.Trim(v, "/")
	}
}

// New creates a new Instagram service for the given app credentials
func New(clientID, clientSecret, redirectURI string, opts ...Option) (Service, error) {
	if clientID == "" {
		return nil, goerr.New("Instagram client ID is required")
	}

	c := &client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		apiBaseURL:   DefaultAPIBaseURL,
		graphBaseURL: DefaultGraphBaseURL,
		graphVersion: DefaultGraphVersion,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) graphURL(path string, query url.Values) string {
	u := c.graphBaseURL + "/" + c.graphVersion + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends req and returns the body of a successful response. Success is
// any 2xx unless accepted lists the statuses explicitly. Other statuses are
// returned as *APIError.
func (c *client) do(ctx context.Context, req *http.Request, accepted ...int) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send request to Instagram",
			goerr.V("method", req.Method),
			goerr.V("path", req.URL.Path))
	}
	defer safe.Close(ctx, resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read Instagram response", goerr.V("path", req.URL.Path))
	}

	if !isAccepted(resp.StatusCode, accepted) {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	return body, nil
}

func isAccepted(status int, accepted []int) bool {
	if len(accepted) == 0 {
		return status >= 200 && status < 300
	}
	return slices.Contains(accepted, status)
}

func (c *client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}
	return c.do(ctx, req)
}

// malformed wraps a decode failure of a successful response
func malformed(cause error, msg string, opts ...goerr.Option) error {
	opts = append(opts, goerr.V("cause", cause.Error()))
	return goerr.Wrap(ErrMalformedResponse, msg, opts...)
}

func decodeTree(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, malformed(err, "failed to parse Instagram response")
	}
	return v, nil
}

func (c *client) ExchangeCode(ctx context.Context, code string) (*ShortLivedToken, error) {
	data := url.Values{}
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", c.redirectURI)
	data.Set("code", code)

	encodedData := data.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/oauth/access_token", strings.NewReader(encodedData))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.ContentLength = int64(len(encodedData))

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	tree, err := decodeTree(body)
	if err != nil {
		return nil, err
	}
	// Some API versions wrap the token in {"data": [...]}
	if first, ok := model.Lookup(tree, "data", 0); ok {
		tree = first
	}

	token := &ShortLivedToken{}
	token.AccessToken, _ = model.LookupString(tree, "access_token")
	token.UserID, _ = model.LookupString(tree, "user_id")
	return token, nil
}

func (c *client) ExchangeLongLived(ctx context.Context, shortLivedToken string) (*LongLivedToken, error) {
	query := url.Values{}
	query.Set("grant_type", "ig_exchange_token")
	query.Set("client_secret", c.clientSecret)
	query.Set("access_token", shortLivedToken)

	body, err := c.get(ctx, c.graphBaseURL+"/access_token?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, malformed(err, "failed to parse long-lived token response")
	}

	return &LongLivedToken{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresIn:   resp.ExpiresIn,
	}, nil
}

func (c *client) Me(ctx context.Context, accessToken string) (*Profile, error) {
	query := url.Values{}
	query.Set("fields", "user_id,username")
	query.Set("access_token", accessToken)

	body, err := c.get(ctx, c.graphURL("me", query))
	if err != nil {
		return nil, err
	}

	tree, err := decodeTree(body)
	if err != nil {
		return nil, err
	}

	profile := &Profile{}
	profile.UserID, _ = model.LookupString(tree, "user_id")
	profile.Username, _ = model.LookupString(tree, "username")
	profile.ID, _ = model.LookupString(tree, "id")
	return profile, nil
}

func (c *client) ListConversations(ctx context.Context, accessToken string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("fields", "id,updated_time")
	query.Set("platform", "instagram")
	query.Set("access_token", accessToken)

	body, err := c.get(ctx, c.graphURL("me/conversations", query))
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, goerr.Wrap(ErrMalformedResponse, "invalid JSON in conversation listing")
	}
	return json.RawMessage(body), nil
}

func (c *client) GetConversation(ctx context.Context, accessToken, conversationID string) (*Conversation, error) {
	query := url.Values{}
	query.Set("fields", "messages")
	query.Set("access_token", accessToken)

	body, err := c.get(ctx, c.graphURL(url.PathEscape(conversationID), query))
	if err != nil {
		return nil, err
	}

	tree, err := decodeTree(body)
	if err != nil {
		return nil, err
	}

	conv := &Conversation{Raw: json.RawMessage(body)}
	list, ok := model.Lookup(tree, "messages", "data")
	if !ok {
		return conv, nil
	}
	entries, ok := list.([]any)
	if !ok {
		return conv, nil
	}

	conv.MessageIDs = make([]string, 0, len(entries))
	for _, entry := range entries {
		if id, ok := model.LookupString(entry, "id"); ok {
			conv.MessageIDs = append(conv.MessageIDs, id)
		}
	}
	return conv, nil
}

type messageResponse struct {
	ID          string      `json:"id"`
	CreatedTime string      `json:"created_time"`
	From        Participant `json:"from"`
	To          struct {
		Data []Participant `json:"data"`
	} `json:"to"`
	Message string `json:"message"`
}

func (c *client) GetMessage(ctx context.Context, accessToken, messageID string) (*Message, error) {
	query := url.Values{}
	query.Set("fields", "id,created_time,from,to,message")
	query.Set("access_token", accessToken)

	body, err := c.get(ctx, c.graphURL(url.PathEscape(messageID), query))
	if err != nil {
		return nil, err
	}

	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, malformed(err, "failed to parse message detail", goerr.V("message_id", messageID))
	}

	msg := &Message{
		ID:          resp.ID,
		CreatedTime: resp.CreatedTime,
		From:        resp.From,
		To:          resp.To.Data,
		Text:        resp.Message,
		Raw:         json.RawMessage(body),
	}
	if msg.ID == "" {
		msg.ID = messageID
	}
	return msg, nil
}

func (c *client) SendMessage(ctx context.Context, accessToken, userID string, sendReq *SendRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(sendReq)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal send request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphURL(url.PathEscape(userID)+"/messages", nil), bytes.NewReader(payload))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := c.do(ctx, req, http.StatusOK, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(body) {
		return nil, goerr.Wrap(ErrMalformedResponse, "invalid JSON in send response")
	}
	return json.RawMessage(body), nil
}
