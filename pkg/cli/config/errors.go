package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound     = goerr.New("configuration file not found")
	ErrInvalidConfig      = goerr.New("invalid configuration")
	ErrInvalidURL         = goerr.New("invalid URL")
	ErrInvalidConcurrency = goerr.New("sync concurrency must be positive")
	ErrMissingCredential  = goerr.New("required credential is missing")
	ErrInvalidBackend     = goerr.New("invalid repository backend")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	FieldKey      = "field"
	BackendKey    = "backend"
)
