// Package migrator applies rendered decompositions to PostgreSQL.
//
// The migrator is idempotent: every run is recorded in the relnorm_migrations
// table with a checksum of its statements, and a run whose checksum matches
// the newest record is skipped.
//
// # Usage
//
//	relations := result.Relations
//	res, err := migrator.MigrateRelations(ctx, db, relations, migrator.MigrateOptions{})
//
// Use the Migrator directly to apply arbitrary statements or check status:
//
//	m := migrator.NewMigrator(db)
//	status, err := m.GetStatus(ctx)
package migrator

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/pthm/relnorm/pkg/analysis"
	"github.com/pthm/relnorm/pkg/ddl"
)

// MigrateOptions controls migration behavior.
type MigrateOptions struct {
	// DryRun writes the migration SQL to the writer instead of applying it.
	DryRun io.Writer

	// Force applies the statements even when the newest record has the same
	// checksum.
	Force bool

	// TableNames are recorded with the run and checked by GetStatus.
	TableNames []string

	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger
}

func (o MigrateOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// MigrationRecord is a row in the relnorm_migrations table.
type MigrationRecord struct {
	ID         int64
	RunID      uuid.UUID
	Checksum   string
	TableNames []string
	AppliedAt  time.Time
}

// Result describes one Migrate call.
type Result struct {
	RunID    uuid.UUID
	Checksum string

	// Skipped is true when the newest record already has Checksum.
	Skipped bool

	// Applied is the number of statements executed, zero for skipped and
	// dry runs.
	Applied int
}

// Migrator applies CREATE TABLE statements and tracks what it applied.
// The Execer is typically *sql.DB but can be *sql.Tx for testing.
type Migrator struct {
	db Execer
}

// NewMigrator creates a new migrator.
func NewMigrator(db Execer) *Migrator {
	return &Migrator{db: db}
}

// ComputeChecksum returns the SHA256 of the statements joined by newlines.
func ComputeChecksum(statements []string) string {
	h := sha256.Sum256([]byte(strings.Join(statements, "\n")))
	return hex.EncodeToString(h[:])
}

// MigrateRelations renders relations with ddl.Statements and applies them.
// The rendered table names are recorded unless opts.TableNames is set.
func MigrateRelations(ctx context.Context, db Execer, relations []analysis.Relation, opts MigrateOptions, renderOpts ...ddl.Option) (*Result, error) {
	if len(opts.TableNames) == 0 {
		opts.TableNames = ddl.TableNames(relations, renderOpts...)
	}
	return NewMigrator(db).Migrate(ctx, ddl.Statements(relations, renderOpts...), opts)
}

// Migrate applies statements in order.
//
// The method:
//  1. Computes the checksum of statements
//  2. Skips when the newest record has the same checksum (unless Force or DryRun)
//  3. Writes the SQL to DryRun and returns, when set
//  4. Creates the tracking table, applies statements and records the run
//
// Step 4 runs in a transaction if the db supports BeginTx (*sql.DB), so the
// tables are created together or not at all.
func (m *Migrator) Migrate(ctx context.Context, statements []string, opts MigrateOptions) (*Result, error) {
	log := opts.logger()
	res := &Result{
		RunID:    uuid.New(),
		Checksum: ComputeChecksum(statements),
	}

	if !opts.Force && opts.DryRun == nil {
		last, err := m.getLastMigration(ctx, m.db)
		if err != nil {
			return nil, fmt.Errorf("checking last migration: %w", err)
		}
		if shouldSkipMigration(last, res.Checksum) {
			log.Info("decomposition unchanged, skipping", "checksum", res.Checksum, "last_run", last.RunID)
			res.Skipped = true
			return res, nil
		}
	}

	if opts.DryRun != nil {
		m.outputDryRun(opts.DryRun, res, statements, opts.TableNames)
		return res, nil
	}

	// Run in a transaction when db can begin one. A *sql.Tx applies the
	// statements directly inside the caller's transaction.
	if txer, ok := m.db.(txBeginner); ok {
		tx, err := txer.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("starting transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := m.apply(ctx, tx, res, statements, opts.TableNames); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing migration: %w", err)
		}
	} else if err := m.apply(ctx, m.db, res, statements, opts.TableNames); err != nil {
		return nil, err
	}

	res.Applied = len(statements)
	log.Info("decomposition applied", "run_id", res.RunID, "statements", res.Applied)
	return res, nil
}

func (m *Migrator) apply(ctx context.Context, db Execer, res *Result, statements, tables []string) error {
	if _, err := db.ExecContext(ctx, trackingDDL); err != nil {
		return fmt.Errorf("creating %s: %w", TrackingTable, err)
	}
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying statement %d: %w", i+1, err)
		}
	}
	return m.insertMigrationRecord(ctx, db, res, tables)
}

// insertMigrationRecord records the run in relnorm_migrations.
func (m *Migrator) insertMigrationRecord(ctx context.Context, db Execer, res *Result, tables []string) error {
	if tables == nil {
		tables = []string{}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO relnorm_migrations (run_id, checksum, table_names)
		VALUES ($1, $2, $3)
	`, res.RunID.String(), res.Checksum, pq.Array(tables))
	if err != nil {
		return fmt.Errorf("inserting migration record: %w", err)
	}
	return nil
}

// shouldSkipMigration returns true if the statements are unchanged.
func shouldSkipMigration(last *MigrationRecord, checksum string) bool {
	return last != nil && last.Checksum == checksum
}

// GetLastMigration returns the most recent migration record, or nil if none exists.
func (m *Migrator) GetLastMigration(ctx context.Context) (*MigrationRecord, error) {
	return m.getLastMigration(ctx, m.db)
}

func (m *Migrator) getLastMigration(ctx context.Context, db Execer) (*MigrationRecord, error) {
	exists, err := relationExists(ctx, db, TrackingTable)
	if err != nil {
		return nil, fmt.Errorf("checking %s table: %w", TrackingTable, err)
	}
	if !exists {
		return nil, nil
	}

	var rec MigrationRecord
	err = db.QueryRowContext(ctx, `
		SELECT id, run_id, checksum, table_names, applied_at
		FROM relnorm_migrations
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&rec.ID, &rec.RunID, &rec.Checksum, pq.Array(&rec.TableNames), &rec.AppliedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying last migration: %w", err)
	}
	return &rec, nil
}

// relationExists reports whether a table or view named name exists in the
// current schema. Unquoted identifiers are folded to lower case by
// PostgreSQL, so the lower-cased name also matches.
func relationExists(ctx context.Context, db Execer, name string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_class c
			JOIN pg_namespace n ON n.oid = c.relnamespace
			WHERE (c.relname = $1 OR c.relname = lower($1))
			AND n.nspname = current_schema()
			AND c.relkind IN ('r', 'v', 'm', 'p')
		)
	`, name).Scan(&exists)
	return exists, err
}

// Status represents the current migration state.
type Status struct {
	// TrackingExists indicates if the relnorm_migrations table exists.
	TrackingExists bool

	// Last is the newest record, nil when nothing was applied.
	Last *MigrationRecord

	// MissingTables lists tables recorded by Last that no longer exist.
	MissingTables []string
}

// GetStatus returns the current migration status.
// Useful for health checks or migration diagnostics.
func (m *Migrator) GetStatus(ctx context.Context) (*Status, error) {
	exists, err := relationExists(ctx, m.db, TrackingTable)
	if err != nil {
		return nil, fmt.Errorf("checking %s table: %w", TrackingTable, err)
	}
	status := &Status{TrackingExists: exists}
	if !exists {
		return status, nil
	}

	if status.Last, err = m.getLastMigration(ctx, m.db); err != nil {
		return nil, err
	}
	if status.Last == nil {
		return status, nil
	}

	for _, name := range status.Last.TableNames {
		ok, err := relationExists(ctx, m.db, name)
		if err != nil {
			return nil, fmt.Errorf("checking table %s: %w", name, err)
		}
		if !ok {
			status.MissingTables = append(status.MissingTables, name)
		}
	}
	return status, nil
}

// outputDryRun writes the migration SQL to the provided writer.
func (m *Migrator) outputDryRun(w io.Writer, res *Result, statements, tables []string) {
	_, _ = fmt.Fprintf(w, "-- relnorm migration (dry-run)\n")
	_, _ = fmt.Fprintf(w, "-- Run ID: %s\n", res.RunID)
	_, _ = fmt.Fprintf(w, "-- Checksum: %s\n", res.Checksum)
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "-- ============================================================\n")
	_, _ = fmt.Fprintf(w, "-- DDL: Migration Tracking Table\n")
	_, _ = fmt.Fprintf(w, "-- ============================================================\n\n")
	_, _ = fmt.Fprintf(w, "%s\n\n", trackingDDL)

	_, _ = fmt.Fprintf(w, "-- ============================================================\n")
	_, _ = fmt.Fprintf(w, "-- Relations (%d tables)\n", len(statements))
	_, _ = fmt.Fprintf(w, "-- ============================================================\n\n")
	for _, stmt := range statements {
		_, _ = fmt.Fprintf(w, "%s\n\n", stmt)
	}

	_, _ = fmt.Fprintf(w, "-- ============================================================\n")
	_, _ = fmt.Fprintf(w, "-- Migration Record\n")
	_, _ = fmt.Fprintf(w, "-- ============================================================\n\n")

	quoted := make([]string, len(tables))
	for i, t := range tables {
		quoted[i] = pq.QuoteLiteral(t)
	}
	_, _ = fmt.Fprintf(w, "INSERT INTO relnorm_migrations (run_id, checksum, table_names)\n")
	_, _ = fmt.Fprintf(w, "VALUES ('%s', '%s', ARRAY[%s]::TEXT[]);\n", res.RunID, res.Checksum, strings.Join(quoted, ", "))
}
