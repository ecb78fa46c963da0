//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema creates every table the postgres stores expect.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS verifications (
		id              UUID PRIMARY KEY,
		document_id     UUID NOT NULL UNIQUE,
		status          TEXT NOT NULL,
		checks          JSONB NOT NULL,
		deficiencies    JSONB NOT NULL,
		confidence      DOUBLE PRECISION NOT NULL,
		extracted       JSONB NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS coverage_requirements (
		id                         UUID PRIMARY KEY,
		project_id                 UUID NOT NULL,
		coverage_type              TEXT NOT NULL,
		minimum_limit              BIGINT,
		limit_type                 TEXT NOT NULL DEFAULT 'per_occurrence',
		maximum_excess             BIGINT,
		principal_indemnity_req    BOOLEAN NOT NULL DEFAULT FALSE,
		cross_liability_req        BOOLEAN NOT NULL DEFAULT FALSE,
		waiver_of_subrogation_req  BOOLEAN NOT NULL DEFAULT FALSE,
		principal_naming_req       BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_coverage_requirements_project ON coverage_requirements (project_id)`,
	`CREATE TABLE IF NOT EXISTS compliance_exceptions (
		id                UUID PRIMARY KEY,
		project_id        UUID NOT NULL,
		subcontractor_id  UUID NOT NULL,
		status            TEXT NOT NULL,
		reason            TEXT NOT NULL,
		granted_by        TEXT NOT NULL DEFAULT '',
		expires_at        TIMESTAMPTZ,
		resolution        TEXT NOT NULL DEFAULT '',
		resolution_notes  TEXT NOT NULL DEFAULT '',
		resolved_at       TIMESTAMPTZ,
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_compliance_exceptions_pair ON compliance_exceptions (project_id, subcontractor_id)`,
	`CREATE TABLE IF NOT EXISTS project_subcontractors (
		project_id          UUID NOT NULL,
		subcontractor_id    UUID NOT NULL,
		project_name        TEXT NOT NULL DEFAULT '',
		subcontractor_name  TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL,
		broker_email        TEXT NOT NULL DEFAULT '',
		contact_email       TEXT NOT NULL DEFAULT '',
		registered_abn      TEXT NOT NULL DEFAULT '',
		project_state       TEXT NOT NULL DEFAULT '',
		project_end_date    TIMESTAMPTZ,
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (project_id, subcontractor_id)
	)`,
}

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// application schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container, applies the schema, and
// returns an open connection. The container terminates with the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("certguard_test"),
		tcpostgres.WithUsername("certguard"),
		tcpostgres.WithPassword("certguard"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping postgres: %v", err)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("failed to apply schema: %v", err)
		}
	}

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// Truncate clears the given tables. Use between tests to ensure isolation.
func (p *PostgresContainer) Truncate(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
			return err
		}
	}
	return nil
}
