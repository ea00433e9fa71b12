package migrator

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeChecksum(t *testing.T) {
	a := ComputeChecksum([]string{"CREATE TABLE R1 (A VARCHAR(255));"})
	b := ComputeChecksum([]string{"CREATE TABLE R1 (A VARCHAR(255));"})
	c := ComputeChecksum([]string{"CREATE TABLE R1 (B VARCHAR(255));"})

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestShouldSkipMigration(t *testing.T) {
	assert.False(t, shouldSkipMigration(nil, "abc"))
	assert.True(t, shouldSkipMigration(&MigrationRecord{Checksum: "abc"}, "abc"))
	assert.False(t, shouldSkipMigration(&MigrationRecord{Checksum: "abc"}, "def"))
}

func TestMigrate_DryRunDoesNotTouchDatabase(t *testing.T) {
	var buf bytes.Buffer
	stmts := []string{
		"CREATE TABLE R1 (\n    A VARCHAR(255),\n    PRIMARY KEY (A)\n);",
		"CREATE TABLE R2 (\n    B VARCHAR(255),\n    PRIMARY KEY (B)\n);",
	}

	// A nil Execer panics on use, so a dry run must not query it.
	res, err := NewMigrator(nil).Migrate(context.Background(), stmts, MigrateOptions{
		DryRun:     &buf,
		TableNames: []string{"R1", "o'brien"},
	})
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Zero(t, res.Applied)
	assert.Equal(t, ComputeChecksum(stmts), res.Checksum)

	out := buf.String()
	assert.Contains(t, out, "-- relnorm migration (dry-run)")
	assert.Contains(t, out, "-- Run ID: "+res.RunID.String())
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS relnorm_migrations")
	assert.Contains(t, out, "-- Relations (2 tables)")
	assert.Contains(t, out, stmts[0])
	assert.Contains(t, out, stmts[1])
	assert.Contains(t, out, `ARRAY['R1', 'o''brien']::TEXT[]`)
}
