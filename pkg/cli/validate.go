package cli

import (
	"context"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/cli/config"
	"github.com/secmon-lab/instaai/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var checkRepository bool

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "check-repository",
		Usage:       "Also open the configured repository backend",
		Destination: &checkRepository,
	})
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the configuration file and optionally the repository connection",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer
			if w == nil {
				w = os.Stdout
			}

			cfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}
			printSummary(w, cfg)

			if !checkRepository {
				return nil
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "repository check failed")
			}
			if err := repo.Close(); err != nil {
				logging.Default().Error("failed to close repository", "error", err.Error())
			}

			color.New(color.FgGreen).Fprintf(w, "✔ repository backend %q is reachable\n", repoCfg.Backend())
			return nil
		},
	}
}

func printSummary(w io.Writer, cfg *config.AppConfig) {
	ok := color.New(color.FgGreen, color.Bold)
	key := color.New(color.FgCyan)

	source := cfg.Path()
	if source == "" {
		source = "(built-in defaults)"
	}

	ok.Fprintf(w, "✔ configuration is valid: %s\n", source)
	key.Fprint(w, "  instagram.api_base_url   ")
	_, _ = io.WriteString(w, cfg.Instagram.APIBaseURL+"\n")
	key.Fprint(w, "  instagram.graph_base_url ")
	_, _ = io.WriteString(w, cfg.Instagram.GraphBaseURL+"\n")
	key.Fprint(w, "  instagram.graph_version  ")
	_, _ = io.WriteString(w, cfg.Instagram.GraphVersion+"\n")
	key.Fprint(w, "  sync.concurrency         ")
	color.New(color.Reset).Fprintf(w, "%d\n", cfg.Sync.Concurrency)
}
