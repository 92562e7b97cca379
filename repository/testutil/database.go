package testutil

import (
	"context"
	"testing"
	"time"

	"coincafe/database"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDatabase bundles a throwaway postgres container with a connected pool
type TestDatabase struct {
	DB        *database.DB
	URL       string
	container *tcpostgres.PostgresContainer
}

// SetupTestDatabase starts a postgres container, runs the migrations and
// returns a connected database. Cleanup is registered on the test.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("coincafe_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	err = database.RunMigrationsWithURL(url)
	require.NoError(t, err, "failed to run migrations")

	db, err := database.NewConnection(ctx, url)
	require.NoError(t, err, "failed to connect to test database")

	testDB := &TestDatabase{
		DB:        db,
		URL:       url,
		container: container,
	}

	t.Cleanup(func() {
		testDB.DB.Close()
		if err := testDB.container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	return testDB
}

// Truncate empties the given tables between sub-tests
func (td *TestDatabase) Truncate(t *testing.T, tables ...string) {
	t.Helper()

	ctx := context.Background()
	for _, table := range tables {
		_, err := td.DB.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		require.NoError(t, err, "failed to truncate %s", table)
	}
}
