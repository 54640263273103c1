package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/repository/dynamodb"
	"github.com/secmon-lab/instaai/pkg/repository/firestore"
	"github.com/secmon-lab/instaai/pkg/repository/memory"
	"github.com/secmon-lab/instaai/pkg/repository/redis"
	"github.com/secmon-lab/instaai/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendDynamoDB  = "dynamodb"
	BackendRedis     = "redis"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend string
	tables  interfaces.TableNames

	projectID  string
	databaseID string

	dynamoRegion    string
	dynamoEndpoint  string
	accessKeyID     string
	secretAccessKey string

	redisAddr     string
	redisPassword string
	redisDB       int
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	defaults := interfaces.DefaultTableNames()

	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Category:    "Repository",
			Usage:       "Repository backend type (memory, firestore, dynamodb or redis)",
			Value:       BackendMemory,
			Sources:     cli.EnvVars("INSTAAI_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "token-table",
			Category:    "Repository",
			Usage:       "Table (collection, key prefix) of stored tokens",
			Value:       defaults.Token,
			Sources:     cli.EnvVars("INSTAAI_TOKEN_TABLE"),
			Destination: &r.tables.Token,
		},
		&cli.StringFlag{
			Name:        "message-table",
			Category:    "Repository",
			Usage:       "Table of captured messages",
			Value:       defaults.Message,
			Sources:     cli.EnvVars("INSTAAI_MESSAGE_TABLE"),
			Destination: &r.tables.Message,
		},
		&cli.StringFlag{
			Name:        "event-table",
			Category:    "Repository",
			Usage:       "Table of webhook events",
			Value:       defaults.Event,
			Sources:     cli.EnvVars("INSTAAI_EVENT_TABLE"),
			Destination: &r.tables.Event,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Category:    "Firestore",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Sources:     cli.EnvVars("INSTAAI_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Category:    "Firestore",
			Usage:       "Firestore Database ID",
			Sources:     cli.EnvVars("INSTAAI_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "dynamodb-region",
			Category:    "DynamoDB",
			Usage:       "AWS region of the DynamoDB tables",
			Value:       "us-east-1",
			Sources:     cli.EnvVars("INSTAAI_DYNAMODB_REGION"),
			Destination: &r.dynamoRegion,
		},
		&cli.StringFlag{
			Name:        "dynamodb-endpoint",
			Category:    "DynamoDB",
			Usage:       "DynamoDB endpoint override (e.g. http://localhost:8000)",
			Sources:     cli.EnvVars("INSTAAI_DYNAMODB_ENDPOINT"),
			Destination: &r.dynamoEndpoint,
		},
		&cli.StringFlag{
			Name:        "aws-access-key-id",
			Category:    "DynamoDB",
			Usage:       "Static AWS access key ID (default credential chain when empty)",
			Sources:     cli.EnvVars("INSTAAI_AWS_ACCESS_KEY_ID"),
			Destination: &r.accessKeyID,
		},
		&cli.StringFlag{
			Name:        "aws-secret-access-key",
			Category:    "DynamoDB",
			Usage:       "Static AWS secret access key",
			Sources:     cli.EnvVars("INSTAAI_AWS_SECRET_ACCESS_KEY"),
			Destination: &r.secretAccessKey,
		},
		&cli.StringFlag{
			Name:        "redis-addr",
			Category:    "Redis",
			Usage:       "Redis server address",
			Value:       "localhost:6379",
			Sources:     cli.EnvVars("INSTAAI_REDIS_ADDR"),
			Destination: &r.redisAddr,
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Category:    "Redis",
			Usage:       "Redis password",
			Sources:     cli.EnvVars("INSTAAI_REDIS_PASSWORD"),
			Destination: &r.redisPassword,
		},
		&cli.IntFlag{
			Name:        "redis-db",
			Category:    "Redis",
			Usage:       "Redis logical database",
			Sources:     cli.EnvVars("INSTAAI_REDIS_DB"),
			Destination: &r.redisDB,
		},
	}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// Tables returns the configured table names with defaults filled in
func (r *Repository) Tables() interfaces.TableNames {
	return r.tables.WithDefaults()
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("token_table", r.tables.Token),
		slog.String("message_table", r.tables.Message),
		slog.String("event_table", r.tables.Event),
	)
}

// DynamoDBConfig returns the DynamoDB connection settings
func (r *Repository) DynamoDBConfig() dynamodb.Config {
	return dynamodb.Config{
		Region:          r.dynamoRegion,
		Endpoint:        r.dynamoEndpoint,
		AccessKeyID:     r.accessKeyID,
		SecretAccessKey: r.secretAccessKey,
	}
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	tables := r.Tables()

	switch r.backend {
	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrMissingCredential, "firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, firestore.WithTableNames(tables))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendDynamoDB:
		repo, err := dynamodb.New(ctx, r.DynamoDBConfig(), dynamodb.WithTableNames(tables))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize dynamodb repository")
		}
		logging.Default().Info("Using DynamoDB repository",
			"region", r.dynamoRegion,
			"endpoint", r.dynamoEndpoint,
		)
		return repo, nil

	case BackendRedis:
		repo, err := redis.New(ctx, redis.Config{
			Addr:     r.redisAddr,
			Password: r.redisPassword,
			DB:       r.redisDB,
		}, redis.WithTableNames(tables))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize redis repository")
		}
		logging.Default().Info("Using Redis repository", "addr", r.redisAddr, "db", r.redisDB)
		return repo, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidBackend, "unknown backend", goerr.V(BackendKey, r.backend))
	}
}
