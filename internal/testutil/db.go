package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/udisondev/simpletrade/internal/ledger"
)

// PostgresDSN returns a DSN of a migrated PostgreSQL database.
//
// DB_ADDR (если задан) используется как есть, для CI/CD.
// Otherwise a postgres:16-alpine testcontainer is started and terminated on cleanup.
// The test is skipped when Docker is unavailable.
func PostgresDSN(tb testing.TB) string {
	tb.Helper()
	ctx := context.Background()

	dsn := os.Getenv("DB_ADDR")
	if dsn == "" {
		dsn = startPostgres(tb)
	}

	if err := ledger.RunMigrations(ctx, dsn); err != nil {
		tb.Fatalf("running migrations: %v", err)
	}
	return dsn
}

func startPostgres(tb testing.TB) string {
	tb.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		// Нет Docker, не валим весь прогон
		tb.Skipf("starting postgres container: %v", err)
	}

	tb.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			tb.Logf("terminating postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tb.Fatalf("getting connection string: %v", err)
	}
	return dsn
}
