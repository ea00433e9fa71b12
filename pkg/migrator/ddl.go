package migrator

// TrackingTable records every applied decomposition.
const TrackingTable = "relnorm_migrations"

// trackingDDL creates the tracking table.
//
// Each row is one applied run:
//   - run_id: unique per Migrate call
//   - checksum: SHA256 of the applied statements
//   - table_names: the tables the statements create
//
// The migrator compares the newest row's checksum with the statements it is
// about to apply and skips the run when they match, unless forced.
const trackingDDL = `CREATE TABLE IF NOT EXISTS relnorm_migrations (
    id BIGSERIAL PRIMARY KEY,
    run_id UUID NOT NULL,
    checksum VARCHAR(64) NOT NULL,
    table_names TEXT[] NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_relnorm_migrations_checksum
ON relnorm_migrations (checksum);`
