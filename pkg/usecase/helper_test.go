package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/domain/model"
	"github.com/secmon-lab/instaai/pkg/domain/types"
	"github.com/secmon-lab/instaai/pkg/repository/memory"
	"github.com/secmon-lab/instaai/pkg/service/instagram"
	"github.com/secmon-lab/instaai/pkg/usecase"
)

// mockInstagram is a mock implementation of instagram.Service for testing
type mockInstagram struct {
	exchangeCodeFn      func(ctx context.Context, code string) (*instagram.ShortLivedToken, error)
	exchangeLongLivedFn func(ctx context.Context, token string) (*instagram.LongLivedToken, error)
	meFn                func(ctx context.Context, token string) (*instagram.Profile, error)
	listConversationsFn func(ctx context.Context, token string) (json.RawMessage, error)
	getConversationFn   func(ctx context.Context, token, conversationID string) (*instagram.Conversation, error)
	getMessageFn        func(ctx context.Context, token, messageID string) (*instagram.Message, error)
	sendMessageFn       func(ctx context.Context, token, userID string, req *instagram.SendRequest) (json.RawMessage, error)
}

var _ instagram.Service = &mockInstagram{}

var errNotConfigured = errors.New("mock function not configured")

func (m *mockInstagram) ExchangeCode(ctx context.Context, code string) (*instagram.ShortLivedToken, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return nil, errNotConfigured
}

func (m *mockInstagram) ExchangeLongLived(ctx context.Context, token string) (*instagram.LongLivedToken, error) {
	if m.exchangeLongLivedFn != nil {
		return m.exchangeLongLivedFn(ctx, token)
	}
	return nil, errNotConfigured
}

func (m *mockInstagram) Me(ctx context.Context, token string) (*instagram.Profile, error) {
	if m.meFn != nil {
		return m.meFn(ctx, token)
	}
	return nil, errNotConfigured
}

func (m *mockInstagram) ListConversations(ctx context.Context, token string) (json.RawMessage, error) {
	if m.listConversationsFn != nil {
		return m.listConversationsFn(ctx, token)
	}
	return nil, errNotConfigured
}

func (m *mockInstagram) GetConversation(ctx context.Context, token, conversationID string) (*instagram.Conversation, error) {
	if m.getConversationFn != nil {
		return m.getConversationFn(ctx, token, conversationID)
	}
	return nil, errNotConfigured
}

func (m *mockInstagram) GetMessage(ctx context.Context, token, messageID string) (*instagram.Message, error) {
	if m.getMessageFn != nil {
		return m.getMessageFn(ctx, token, messageID)
	}
	return nil, errNotConfigured
}

func (m *mockInstagram) SendMessage(ctx context.Context, token, userID string, req *instagram.SendRequest) (json.RawMessage, error) {
	if m.sendMessageFn != nil {
		return m.sendMessageFn(ctx, token, userID, req)
	}
	return nil, errNotConfigured
}

// testRepo wraps the memory repository to count and inject failures
type testRepo struct {
	*memory.Memory
	messagePuts  atomic.Int32
	failTokenPut bool
	failMsgPut   bool
}

func newTestRepo() *testRepo {
	return &testRepo{Memory: memory.New()}
}

func (r *testRepo) Token() interfaces.TokenRepository {
	return &testTokenRepo{TokenRepository: r.Memory.Token(), fail: r.failTokenPut}
}

func (r *testRepo) Message() interfaces.MessageRepository {
	return &testMessageRepo{MessageRepository: r.Memory.Message(), count: &r.messagePuts, fail: r.failMsgPut}
}

type testTokenRepo struct {
	interfaces.TokenRepository
	fail bool
}

func (r *testTokenRepo) Put(ctx context.Context, token *model.TokenRecord) error {
	if r.fail {
		return errors.New("token store unavailable")
	}
	return r.TokenRepository.Put(ctx, token)
}

type testMessageRepo struct {
	interfaces.MessageRepository
	count *atomic.Int32
	fail  bool
}

func (r *testMessageRepo) Put(ctx context.Context, msg *model.MessageRecord) error {
	r.count.Add(1)
	if r.fail {
		return errors.New("message store unavailable")
	}
	return r.MessageRepository.Put(ctx, msg)
}

func putToken(t *testing.T, repo interfaces.Repository, userID, token string) {
	t.Helper()
	rec := model.NewTokenRecord(userID, token, types.TokenTypeLongLived, time.Now())
	gt.NoError(t, repo.Token().Put(context.Background(), rec)).Required()
}

// statusOf returns the HTTP status an error maps to
func statusOf(err error) int {
	var ue *usecase.UserError
	if errors.As(err, &ue) {
		return ue.HTTPStatus()
	}
	var apiErr *instagram.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return http.StatusInternalServerError
}

func userMessage(t *testing.T, err error) string {
	t.Helper()
	var ue *usecase.UserError
	gt.Bool(t, errors.As(err, &ue)).True()
	if ue == nil {
		return ""
	}
	return ue.Message
}
