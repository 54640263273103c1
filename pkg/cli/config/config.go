package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/instaai/pkg/service/instagram"
	"github.com/secmon-lab/instaai/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// AppConfig is the optional TOML file overriding platform endpoints and
// the sync pool size
type AppConfig struct {
	path string

	Instagram InstagramEndpoints `toml:"instagram"`
	Sync      SyncConfig         `toml:"sync"`
}

type InstagramEndpoints struct {
	APIBaseURL   string `toml:"api_base_url"`
	GraphBaseURL string `toml:"graph_base_url"`
	GraphVersion string `toml:"graph_version"`
}

type SyncConfig struct {
	Concurrency int `toml:"concurrency"`
}

// DefaultAppConfig returns the built-in endpoints and pool size
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Instagram: InstagramEndpoints{
			APIBaseURL:   instagram.DefaultAPIBaseURL,
			GraphBaseURL: instagram.DefaultGraphBaseURL,
			GraphVersion: instagram.DefaultGraphVersion,
		},
		Sync: SyncConfig{
			Concurrency: usecase.DefaultSyncConcurrency,
		},
	}
}

// Flags returns CLI flags for the config file
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to TOML config file (built-in endpoints when omitted)",
			Sources:     cli.EnvVars("INSTAAI_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Path returns the configured file path
func (a *AppConfig) Path() string {
	return a.path
}

// Configure loads the file named by --config, or returns the defaults
func (a *AppConfig) Configure() (*AppConfig, error) {
	if a.path == "" {
		return DefaultAppConfig(), nil
	}
	return LoadAppConfiguration(a.path)
}

func validateBaseURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return goerr.Wrap(ErrInvalidURL, err.Error(), goerr.V(FieldKey, field), goerr.V("url", raw))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return goerr.Wrap(ErrInvalidURL, "scheme must be http or https", goerr.V(FieldKey, field), goerr.V("url", raw))
	}
	if u.Host == "" {
		return goerr.Wrap(ErrInvalidURL, "host is required", goerr.V(FieldKey, field), goerr.V("url", raw))
	}
	return nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if err := validateBaseURL("instagram.api_base_url", a.Instagram.APIBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("instagram.graph_base_url", a.Instagram.GraphBaseURL); err != nil {
		return err
	}
	if strings.Trim(a.Instagram.GraphVersion, "/") == "" {
		return goerr.Wrap(ErrInvalidConfig, "graph_version is required", goerr.V(FieldKey, "instagram.graph_version"))
	}
	if a.Sync.Concurrency <= 0 {
		return goerr.Wrap(ErrInvalidConcurrency, "invalid sync section", goerr.V("concurrency", a.Sync.Concurrency))
	}
	return nil
}

// LoadAppConfiguration loads the configuration from a TOML file. Keys
// absent from the file keep their defaults.
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, err.Error(), goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	config := DefaultAppConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config: "+err.Error(), goerr.V(ConfigPathKey, path))
	}
	config.path = path

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return config, nil
}

// InstagramOptions converts the endpoint section to client options
func (a *AppConfig) InstagramOptions() []instagram.Option {
	return []instagram.Option{
		instagram.WithAPIBaseURL(a.Instagram.APIBaseURL),
		instagram.WithGraphBaseURL(a.Instagram.GraphBaseURL),
		instagram.WithGraphVersion(a.Instagram.GraphVersion),
	}
}
