package main

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/pthm/relnorm/internal/cli"
)

// resolveDSN gets the database DSN from flag or config.
func resolveDSN() (string, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return "", cli.ConfigError("database configuration", err)
	}
	if dsn == "" {
		return "", cli.ConfigError("database URL is required (use --db or set in config)", nil)
	}
	return dsn, nil
}

// openDB connects with the configured driver and checks the connection.
func openDB(ctx context.Context) (*sql.DB, error) {
	dsn, err := resolveDSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, cli.DBConnectError("connecting to database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, cli.DBConnectError("connecting to database", err)
	}
	logger.Debug("database connected", "driver", cfg.Database.Driver)
	return db, nil
}
