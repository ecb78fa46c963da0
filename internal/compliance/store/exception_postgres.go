package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"certguard/internal/compliance"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/requestcontext"
)

// uniqueViolation is the postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// PostgresExceptionStore persists exceptions in PostgreSQL. Lifecycle moves
// are single conditional updates, so concurrent transitions race safely: one
// wins, the rest see not_found.
//
// Schema:
//
//	CREATE TABLE compliance_exceptions (
//	    id                UUID PRIMARY KEY,
//	    project_id        UUID NOT NULL,
//	    subcontractor_id  UUID NOT NULL,
//	    status            TEXT NOT NULL,
//	    reason            TEXT NOT NULL,
//	    granted_by        TEXT NOT NULL DEFAULT '',
//	    expires_at        TIMESTAMPTZ,
//	    resolution        TEXT NOT NULL DEFAULT '',
//	    resolution_notes  TEXT NOT NULL DEFAULT '',
//	    resolved_at       TIMESTAMPTZ,
//	    created_at        TIMESTAMPTZ NOT NULL,
//	    updated_at        TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX idx_compliance_exceptions_pair ON compliance_exceptions (project_id, subcontractor_id);
type PostgresExceptionStore struct {
	db *sql.DB
}

func NewPostgresExceptions(db *sql.DB) *PostgresExceptionStore {
	return &PostgresExceptionStore{db: db}
}

func (s *PostgresExceptionStore) Create(ctx context.Context, exception *compliance.Exception) error {
	if exception == nil {
		return dErrors.New(dErrors.CodeBadRequest, "exception is required")
	}

	now := requestcontext.Now(ctx)
	createdAt := exception.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compliance_exceptions (
			id, project_id, subcontractor_id, status, reason, granted_by,
			expires_at, resolution, resolution_notes, resolved_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`,
		uuid.UUID(exception.ID),
		uuid.UUID(exception.ProjectID),
		uuid.UUID(exception.SubcontractorID),
		string(exception.Status),
		exception.Reason,
		exception.GrantedBy,
		exception.ExpiresAt,
		string(exception.Resolution),
		exception.ResolutionNotes,
		exception.ResolvedAt,
		createdAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return dErrors.Newf(dErrors.CodeConflict, "exception %s already exists", exception.ID)
		}
		return fmt.Errorf("create exception: %w", err)
	}
	return nil
}

func (s *PostgresExceptionStore) Get(ctx context.Context, exceptionID id.ExceptionID) (*compliance.Exception, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, subcontractor_id, status, reason, granted_by,
			expires_at, resolution, resolution_notes, resolved_at, created_at, updated_at
		FROM compliance_exceptions
		WHERE id = $1
	`, uuid.UUID(exceptionID))

	exception, err := scanException(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "exception %s not found", exceptionID)
		}
		return nil, fmt.Errorf("get exception: %w", err)
	}
	return exception, nil
}

func (s *PostgresExceptionStore) ListByProjectSubcontractor(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID) ([]compliance.Exception, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, subcontractor_id, status, reason, granted_by,
			expires_at, resolution, resolution_notes, resolved_at, created_at, updated_at
		FROM compliance_exceptions
		WHERE project_id = $1 AND subcontractor_id = $2
		ORDER BY created_at DESC
	`, uuid.UUID(projectID), uuid.UUID(subcontractorID))
	if err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}
	defer rows.Close()

	out := make([]compliance.Exception, 0)
	for rows.Next() {
		exception, err := scanException(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exception: %w", err)
		}
		out = append(out, *exception)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}
	return out, nil
}

func (s *PostgresExceptionStore) Transition(ctx context.Context, exceptionID id.ExceptionID, from, to compliance.ExceptionStatus, resolution compliance.ResolutionType) (*compliance.Exception, error) {
	if !compliance.CanTransitionException(from, to) {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "exception cannot move from %s to %s", from, to)
	}

	now := requestcontext.Now(ctx)
	var resolvedAt *time.Time
	if resolution != "" {
		resolvedAt = &now
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE compliance_exceptions
		SET status = $3,
			resolution = COALESCE(NULLIF($4, ''), resolution),
			resolved_at = COALESCE($5, resolved_at),
			updated_at = $6
		WHERE id = $1 AND status = $2
		RETURNING id, project_id, subcontractor_id, status, reason, granted_by,
			expires_at, resolution, resolution_notes, resolved_at, created_at, updated_at
	`, uuid.UUID(exceptionID), string(from), string(to), string(resolution), resolvedAt, now)

	exception, err := scanException(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no %s exception %s", from, exceptionID)
		}
		return nil, fmt.Errorf("transition exception: %w", err)
	}
	return exception, nil
}

func (s *PostgresExceptionStore) ResolveActive(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID, resolution compliance.ResolutionType, notes string) (int, error) {
	now := requestcontext.Now(ctx)

	res, err := s.db.ExecContext(ctx, `
		UPDATE compliance_exceptions
		SET status = $4, resolution = $5, resolution_notes = $6, resolved_at = $3, updated_at = $3
		WHERE project_id = $1 AND subcontractor_id = $2 AND status = $7
	`,
		uuid.UUID(projectID),
		uuid.UUID(subcontractorID),
		now,
		string(compliance.ExceptionResolved),
		string(resolution),
		notes,
		string(compliance.ExceptionActive),
	)
	if err != nil {
		return 0, fmt.Errorf("resolve exceptions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resolve exceptions: %w", err)
	}
	return int(affected), nil
}

func (s *PostgresExceptionStore) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE compliance_exceptions
		SET status = $2, updated_at = $1
		WHERE status = $3 AND expires_at IS NOT NULL AND expires_at < $1
	`, now, string(compliance.ExceptionExpired), string(compliance.ExceptionActive))
	if err != nil {
		return 0, fmt.Errorf("expire exceptions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire exceptions: %w", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanException(row rowScanner) (*compliance.Exception, error) {
	var exception compliance.Exception
	var exceptionID, projectID, subcontractorID uuid.UUID
	var status, resolution string
	var expiresAt, resolvedAt sql.NullTime
	if err := row.Scan(&exceptionID, &projectID, &subcontractorID, &status,
		&exception.Reason, &exception.GrantedBy, &expiresAt, &resolution,
		&exception.ResolutionNotes, &resolvedAt, &exception.CreatedAt,
		&exception.UpdatedAt); err != nil {
		return nil, err
	}
	exception.ID = id.ExceptionID(exceptionID)
	exception.ProjectID = id.ProjectID(projectID)
	exception.SubcontractorID = id.SubcontractorID(subcontractorID)
	exception.Status = compliance.ExceptionStatus(status)
	exception.Resolution = compliance.ResolutionType(resolution)
	if expiresAt.Valid {
		exception.ExpiresAt = &expiresAt.Time
	}
	if resolvedAt.Valid {
		exception.ResolvedAt = &resolvedAt.Time
	}
	return &exception, nil
}
