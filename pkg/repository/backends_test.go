package repository_test

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
	"github.com/secmon-lab/instaai/pkg/repository/dynamodb"
	"github.com/secmon-lab/instaai/pkg/repository/firestore"
	"github.com/secmon-lab/instaai/pkg/repository/memory"
	"github.com/secmon-lab/instaai/pkg/repository/redis"
)

// testTableNames isolates each test run in its own tables
func testTableNames() interfaces.TableNames {
	suffix := strconv.FormatInt(time.Now().UnixNano(), 36)
	return interfaces.TableNames{
		Token:   "test-tokens-" + suffix,
		Message: "test-messages-" + suffix,
		Event:   "test-events-" + suffix,
	}
}

func newMemoryRepository(t *testing.T) interfaces.Repository {
	return memory.New()
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	ctx := context.Background()
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithTableNames(testTableNames()))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func newDynamoDBRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	endpoint := os.Getenv("TEST_DYNAMODB_ENDPOINT")
	if endpoint == "" {
		t.Skip("TEST_DYNAMODB_ENDPOINT not set")
	}

	ctx := context.Background()
	repo, err := dynamodb.New(ctx, dynamodb.Config{
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "dummy",
		SecretAccessKey: "dummy",
	}, dynamodb.WithTableNames(testTableNames()))
	gt.NoError(t, err).Required()

	_, err = repo.CreateTables(ctx)
	gt.NoError(t, err).Required()
	return repo
}

func newRedisRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	repo, err := redis.New(ctx, redis.Config{Addr: addr}, redis.WithTableNames(testTableNames()))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

// runOnAllBackends runs a contract test against every backend. Backends
// other than memory are skipped unless their TEST_* variable is set.
func runOnAllBackends(t *testing.T, run func(t *testing.T, newRepo func(t *testing.T) interfaces.Repository)) {
	backends := []struct {
		name    string
		newRepo func(t *testing.T) interfaces.Repository
	}{
		{"Memory", newMemoryRepository},
		{"Firestore", newFirestoreRepository},
		{"DynamoDB", newDynamoDBRepository},
		{"Redis", newRedisRepository},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			run(t, b.newRepo)
		})
	}
}

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
