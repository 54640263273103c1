package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/cli/config"
	httpctrl "github.com/secmon-lab/instaai/pkg/controller/http"
	"github.com/secmon-lab/instaai/pkg/usecase"
	"github.com/secmon-lab/instaai/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// appConfig gathers the settings shared by serve and lambda
type appConfig struct {
	file        config.AppConfig
	repository  config.Repository
	instagram   config.Instagram
	verifyToken string
	appSecret   string
}

func (x *appConfig) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "webhook-verify-token",
			Category:    "Webhook",
			Usage:       "Shared secret of the webhook verification handshake",
			Value:       usecase.DefaultVerifyToken,
			Sources:     cli.EnvVars("INSTAAI_WEBHOOK_VERIFY_TOKEN"),
			Destination: &x.verifyToken,
		},
		&cli.StringFlag{
			Name:        "webhook-app-secret",
			Category:    "Webhook",
			Usage:       "App secret for X-Hub-Signature-256 checks (disabled when empty)",
			Sources:     cli.EnvVars("INSTAAI_WEBHOOK_APP_SECRET"),
			Destination: &x.appSecret,
		},
	}

	flags = append(flags, x.file.Flags()...)
	flags = append(flags, x.repository.Flags()...)
	flags = append(flags, x.instagram.Flags()...)
	return flags
}

// newServer wires the repository, platform client and use cases into the
// HTTP handler. The returned function closes the repository.
func (x *appConfig) newServer(ctx context.Context) (*httpctrl.Server, func(), error) {
	file, err := x.file.Configure()
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load configuration")
	}

	ig, err := x.instagram.Configure(file)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to configure instagram client")
	}

	repo, err := x.repository.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}
	closer := func() {
		if err := repo.Close(); err != nil {
			logging.Default().Error("failed to close repository", "error", err.Error())
		}
	}

	uc := usecase.New(repo, ig,
		usecase.WithVerifyToken(x.verifyToken),
		usecase.WithSyncConcurrency(file.Sync.Concurrency),
	)

	var httpOpts []httpctrl.Options
	if x.appSecret != "" {
		httpOpts = append(httpOpts, httpctrl.WithWebhookAppSecret(x.appSecret))
		logging.Default().Info("Webhook signature verification enabled")
	}

	server, err := httpctrl.New(uc, httpOpts...)
	if err != nil {
		closer()
		return nil, nil, goerr.Wrap(err, "failed to create http server")
	}

	logging.Default().Info("Application configured",
		"repository", x.repository,
		"instagram", x.instagram,
		"graph_base_url", file.Instagram.GraphBaseURL,
		"sync_concurrency", file.Sync.Concurrency,
	)
	return server, closer, nil
}
