package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/usecase"
	"github.com/secmon-lab/instaai/pkg/utils/errutil"
	"github.com/secmon-lab/instaai/pkg/utils/logging"
)

type Server struct {
	router           *chi.Mux
	uc               *usecase.UseCases
	webhookAppSecret string
}

type Options func(*Server)

// WithWebhookAppSecret enables the X-Hub-Signature-256 check on webhook deliveries
func WithWebhookAppSecret(secret string) Options {
	return func(s *Server) {
		s.webhookAppSecret = secret
	}
}

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	if uc == nil {
		return nil, goerr.New("use cases are required")
	}

	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errutil.HandleHTTP(r.Context(), w, goerr.New("Not found", goerr.V("path", r.URL.Path)), http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errutil.HandleHTTP(r.Context(), w, goerr.New("Method not allowed", goerr.V("method", r.Method)), http.StatusMethodNotAllowed)
	})

	s.post("/exchange-token", exchangeTokenHandler(uc.Token))
	s.post("/store-token", storeTokenHandler(uc.Token))
	s.post("/delete-user", deleteUserHandler(uc.Token))
	s.get("/get-conversations", getConversationsHandler(uc.Sync))
	s.get("/get-messages", getMessagesHandler(uc.Sync))
	s.post("/send-message", sendMessageHandler(uc.Dispatch))
	s.get("/get-events", getEventsHandler(uc.Events))

	// The platform calls the webhook with GET for the handshake and POST for deliveries
	r.Route("/webhook", func(r chi.Router) {
		r.Use(cors(http.MethodGet, http.MethodPost))
		r.HandleFunc("/", webhookHandler(uc.Webhook, s.webhookAppSecret))
	})

	return s, nil
}

func (s *Server) post(path string, h http.HandlerFunc) {
	s.router.Route(path, func(r chi.Router) {
		r.Use(cors(http.MethodPost, http.MethodOptions))
		r.Options("/", preflight)
		r.Post("/", h)
	})
}

func (s *Server) get(path string, h http.HandlerFunc) {
	s.router.Route(path, func(r chi.Router) {
		r.Use(cors(http.MethodGet, http.MethodOptions))
		r.Options("/", preflight)
		r.Get("/", h)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
