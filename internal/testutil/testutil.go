// Package testutil provides PostgreSQL databases for integration tests.
//
// A single PostgreSQL container is started on first use and shared by every
// test in the process. Each EmptyDB call creates its own database in that
// container and drops it when the test completes. Set DATABASE_URL to use an
// existing server instead of a container.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Driver is the database/sql driver used by integration tests.
const Driver = "pgx"

var (
	singletonOnce sync.Once
	singletonDSN  string
	singletonErr  error
)

// adminDSN returns DATABASE_URL or lazily starts the shared container.
func adminDSN() (string, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn, nil
	}

	singletonOnce.Do(func() {
		ctx := context.Background()

		container, err := postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("postgres"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			singletonErr = fmt.Errorf("failed to start PostgreSQL container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
			return
		}

		singletonDSN = dsn
		// Container is not stored - ryuk will handle cleanup automatically
	})

	return singletonDSN, singletonErr
}

// EmptyDB returns a connection to a new, empty database.
// Tests calling it are skipped under -short.
func EmptyDB(tb testing.TB) *sql.DB {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping PostgreSQL integration test in short mode")
	}

	admin, err := adminDSN()
	require.NoError(tb, err, "failed to reach PostgreSQL")

	name := uniqueDBName("relnorm")
	require.NoError(tb, execAdmin(context.Background(), admin, "CREATE DATABASE "+pq.QuoteIdentifier(name)),
		"failed to create test database")

	dsn, err := replaceDBName(admin, name)
	require.NoError(tb, err)

	db, err := sql.Open(Driver, dsn)
	require.NoError(tb, err, "failed to connect to test database")
	require.NoError(tb, db.Ping(), "failed to ping test database")

	tb.Cleanup(func() {
		_ = db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = execAdmin(ctx, admin, "DROP DATABASE IF EXISTS "+pq.QuoteIdentifier(name)+" WITH (FORCE)")
	})

	return db
}

func execAdmin(ctx context.Context, dsn, stmt string) error {
	db, err := sql.Open(Driver, dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, stmt)
	return err
}

// uniqueDBName generates a unique database name with the given prefix.
func uniqueDBName(prefix string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

// replaceDBName replaces the database name in a postgres:// URL.
func replaceDBName(dsn, name string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing DSN: %w", err)
	}
	u.Path = "/" + name
	return u.String(), nil
}
