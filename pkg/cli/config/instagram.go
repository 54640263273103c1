package config

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/service/instagram"
	"github.com/urfave/cli/v3"
)

const (
	defaultClientID    = "2388890974807228"
	defaultRedirectURI = "https://nikhilbharadwajreddy.github.io/InstaAI/insta_redirect.html"
)

// Instagram holds CLI flags for the platform app credentials
type Instagram struct {
	clientID     string
	clientSecret string
	redirectURI  string
	timeout      time.Duration
}

func (x *Instagram) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "instagram-client-id",
			Category:    "Instagram",
			Usage:       "Instagram app client ID",
			Value:       defaultClientID,
			Sources:     cli.EnvVars("INSTAAI_INSTAGRAM_CLIENT_ID"),
			Destination: &x.clientID,
		},
		&cli.StringFlag{
			Name:        "instagram-client-secret",
			Category:    "Instagram",
			Usage:       "Instagram app client secret",
			Sources:     cli.EnvVars("INSTAAI_INSTAGRAM_CLIENT_SECRET"),
			Destination: &x.clientSecret,
		},
		&cli.StringFlag{
			Name:        "instagram-redirect-uri",
			Category:    "Instagram",
			Usage:       "OAuth redirect URI registered for the app",
			Value:       defaultRedirectURI,
			Sources:     cli.EnvVars("INSTAAI_INSTAGRAM_REDIRECT_URI"),
			Destination: &x.redirectURI,
		},
		&cli.DurationFlag{
			Name:        "http-timeout",
			Category:    "Instagram",
			Usage:       "Timeout of each platform API request",
			Value:       instagram.DefaultTimeout,
			Sources:     cli.EnvVars("INSTAAI_HTTP_TIMEOUT"),
			Destination: &x.timeout,
		},
	}
}

func (x Instagram) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("client_id", x.clientID),
		slog.String("redirect_uri", x.redirectURI),
		slog.Bool("client_secret_set", x.clientSecret != ""),
		slog.Duration("timeout", x.timeout),
	)
}

// Configure builds the platform client. app supplies the endpoints.
func (x *Instagram) Configure(app *AppConfig) (instagram.Service, error) {
	if x.clientSecret == "" {
		return nil, goerr.Wrap(ErrMissingCredential, "instagram-client-secret is required")
	}
	if app == nil {
		app = DefaultAppConfig()
	}

	timeout := x.timeout
	if timeout <= 0 {
		timeout = instagram.DefaultTimeout
	}

	opts := append(app.InstagramOptions(), instagram.WithHTTPClient(&http.Client{Timeout: timeout}))
	svc, err := instagram.New(x.clientID, x.clientSecret, x.redirectURI, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create instagram client")
	}
	return svc, nil
}
