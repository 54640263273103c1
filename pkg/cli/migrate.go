package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/cli/config"
	"github.com/secmon-lab/instaai/pkg/repository/dynamodb"
	"github.com/secmon-lab/instaai/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview changes without applying",
			Destination: &dryRun,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create Firestore indexes or DynamoDB tables",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Migrate configuration",
				"repository", repoCfg,
				"dryRun", dryRun)

			switch repoCfg.Backend() {
			case config.BackendFirestore:
				return migrateFirestore(ctx, &repoCfg, dryRun)
			case config.BackendDynamoDB:
				return migrateDynamoDB(ctx, &repoCfg, dryRun)
			default:
				return goerr.Wrap(config.ErrInvalidBackend, "migrate supports firestore and dynamodb only",
					goerr.V(config.BackendKey, repoCfg.Backend()))
			}
		},
	}
}

func migrateFirestore(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()

	if repoCfg.ProjectID() == "" {
		return goerr.Wrap(config.ErrMissingCredential, "firestore-project-id is required")
	}

	indexConfig := getIndexConfig(repoCfg.Tables().Event)

	client, err := fireconf.NewClient(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID())
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
		plan, err := client.GetMigrationPlan(ctx, indexConfig)
		if err != nil {
			return goerr.Wrap(err, "failed to create migration plan")
		}

		if len(plan.Steps) == 0 {
			logger.Info("No changes required")
			return nil
		}

		for _, step := range plan.Steps {
			logger.Info("Migration step",
				"collection", step.Collection,
				"operation", step.Operation,
				"description", step.Description,
				"destructive", step.Destructive)
		}
		return nil
	}

	logger.Info("Applying migrations")
	if err := client.Migrate(ctx, indexConfig); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Migrations applied successfully")
	return nil
}

func migrateDynamoDB(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()

	repo, err := dynamodb.New(ctx, repoCfg.DynamoDBConfig(), dynamodb.WithTableNames(repoCfg.Tables()))
	if err != nil {
		return goerr.Wrap(err, "failed to initialize dynamodb client")
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close dynamodb client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - tables to ensure")
		for _, spec := range repo.Tables() {
			logger.Info("Table", "name", spec.Name, "hash_key", spec.Key)
		}
		return nil
	}

	created, err := repo.CreateTables(ctx)
	if err != nil {
		return err
	}
	logger.Info("Tables ensured", "created", created)
	return nil
}

// getIndexConfig returns the Firestore index configuration
func getIndexConfig(eventCollection string) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: eventCollection,
				Indexes: []fireconf.Index{
					// ListByUser: user_id ASC, timestamp_ms ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "user_id", Order: fireconf.OrderAscending},
							{Path: "timestamp_ms", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
