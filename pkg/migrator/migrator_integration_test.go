package migrator_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/relnorm/internal/testutil"
	"github.com/pthm/relnorm/pkg/analysis"
	"github.com/pthm/relnorm/pkg/ddl"
	"github.com/pthm/relnorm/pkg/migrator"
	"github.com/pthm/relnorm/pkg/schema"
)

func decomposition(t *testing.T) []analysis.Relation {
	t.Helper()
	u := schema.NewUniverse(schema.NewAttributeSet("A", "B", "C"))
	fds := []schema.FunctionalDependency{
		schema.NewDependency([]schema.Attribute{"A"}, []schema.Attribute{"B"}),
		schema.NewDependency([]schema.Attribute{"B"}, []schema.Attribute{"C"}),
	}
	res, err := analysis.Analyze(context.Background(), u, fds)
	require.NoError(t, err)
	return res.Relations
}

func TestMigrateRelations_Postgres(t *testing.T) {
	db := testutil.EmptyDB(t)
	ctx := context.Background()
	rels := decomposition(t)

	m := migrator.NewMigrator(db)
	status, err := m.GetStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.TrackingExists)

	res, err := migrator.MigrateRelations(ctx, db, rels, migrator.MigrateOptions{})
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 3, res.Applied)

	last, err := m.GetLastMigration(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, res.RunID, last.RunID)
	assert.Equal(t, res.Checksum, last.Checksum)
	assert.Equal(t, []string{"R1", "R2", "R3"}, last.TableNames)

	// Unquoted names fold to lower case; the key of R1 spans both columns.
	var keyCols int
	require.NoError(t, db.QueryRowContext(ctx, `
		SELECT count(*) FROM information_schema.key_column_usage
		WHERE table_name = 'r1'
	`).Scan(&keyCols))
	assert.Equal(t, 2, keyCols)

	status, err = m.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.TrackingExists)
	assert.Empty(t, status.MissingTables)

	// Same statements again: skipped.
	again, err := migrator.MigrateRelations(ctx, db, rels, migrator.MigrateOptions{})
	require.NoError(t, err)
	assert.True(t, again.Skipped)

	_, err = db.ExecContext(ctx, "DROP TABLE r2")
	require.NoError(t, err)
	status, err = m.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"R2"}, status.MissingTables)
}

func TestMigrateRelations_ForceAndQuoted(t *testing.T) {
	db := testutil.EmptyDB(t)
	ctx := context.Background()
	rels := decomposition(t)
	render := []ddl.Option{ddl.WithQuotedIdentifiers(), ddl.WithIfNotExists(), ddl.WithTablePrefix("Norm")}

	_, err := migrator.MigrateRelations(ctx, db, rels, migrator.MigrateOptions{}, render...)
	require.NoError(t, err)

	forced, err := migrator.MigrateRelations(ctx, db, rels, migrator.MigrateOptions{Force: true}, render...)
	require.NoError(t, err)
	assert.False(t, forced.Skipped)

	var runs int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT count(*) FROM relnorm_migrations").Scan(&runs))
	assert.Equal(t, 2, runs)

	var exists bool
	require.NoError(t, db.QueryRowContext(ctx, `SELECT to_regclass('"Norm1"') IS NOT NULL`).Scan(&exists))
	assert.True(t, exists)
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	db := testutil.EmptyDB(t)
	ctx := context.Background()

	_, err := migrator.NewMigrator(db).Migrate(ctx, []string{
		"CREATE TABLE ok_table (a TEXT PRIMARY KEY);",
		"CREATE TABLE broken (",
	}, migrator.MigrateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "applying statement 2")

	var exists bool
	require.NoError(t, db.QueryRowContext(ctx, "SELECT to_regclass('ok_table') IS NOT NULL").Scan(&exists))
	assert.False(t, exists)
}

func TestMigrate_DryRunAgainstDatabase(t *testing.T) {
	db := testutil.EmptyDB(t)
	ctx := context.Background()

	var buf bytes.Buffer
	_, err := migrator.MigrateRelations(ctx, db, decomposition(t), migrator.MigrateOptions{DryRun: &buf})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "CREATE TABLE R1")

	status, err := migrator.NewMigrator(db).GetStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.TrackingExists)
}

func TestMigrate_CallerTransaction(t *testing.T) {
	db := testutil.EmptyDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	res, err := migrator.MigrateRelations(ctx, tx, decomposition(t), migrator.MigrateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Applied)

	var exists bool
	require.NoError(t, tx.QueryRowContext(ctx, "SELECT to_regclass('r1') IS NOT NULL").Scan(&exists))
	assert.True(t, exists)

	// The caller owns the transaction, so rolling it back undoes the run.
	require.NoError(t, tx.Rollback())
	require.NoError(t, db.QueryRowContext(ctx, "SELECT to_regclass('r1') IS NOT NULL").Scan(&exists))
	assert.False(t, exists)
}
