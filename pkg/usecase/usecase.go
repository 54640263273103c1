package usecase

import (
	"time"

	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/service/instagram"
)

const (
	DefaultSyncConcurrency = 5
	DefaultVerifyToken     = "InstaAI_Webhook_Verify_1234"
)

type UseCases struct {
	repo            interfaces.Repository
	instagram       instagram.Service
	verifyToken     string
	syncConcurrency int
	now             func() time.Time

	Token    *TokenUseCase
	Webhook  *WebhookUseCase
	Sync     *SyncUseCase
	Dispatch *DispatchUseCase
	Events   *EventsUseCase
}

type Option func(*UseCases)

// WithVerifyToken sets the shared secret of the webhook verification handshake
func WithVerifyToken(token string) Option {
	return func(uc *UseCases) {
		uc.verifyToken = token
	}
}

// WithSyncConcurrency sets the size of the message enrichment pool
func WithSyncConcurrency(n int) Option {
	return func(uc *UseCases) {
		if n > 0 {
			uc.syncConcurrency = n
		}
	}
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, ig instagram.Service, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:            repo,
		instagram:       ig,
		verifyToken:     DefaultVerifyToken,
		syncConcurrency: DefaultSyncConcurrency,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Token = NewTokenUseCase(repo, ig, uc.now)
	uc.Webhook = NewWebhookUseCase(repo, uc.verifyToken, uc.now)
	uc.Sync = NewSyncUseCase(repo, ig, uc.syncConcurrency, uc.now)
	uc.Dispatch = NewDispatchUseCase(repo, ig)
	uc.Events = NewEventsUseCase(repo, uc.now)

	return uc
}
