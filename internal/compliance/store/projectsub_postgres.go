package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"certguard/internal/compliance"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/requestcontext"
)

// PostgresProjectSubcontractorStore persists registrations in PostgreSQL.
// The upsert deliberately leaves status out of its update list: standing is
// owned by SetStatus, and re-registering details must not reset it.
//
// Schema:
//
//	CREATE TABLE project_subcontractors (
//	    project_id          UUID NOT NULL,
//	    subcontractor_id    UUID NOT NULL,
//	    project_name        TEXT NOT NULL DEFAULT '',
//	    subcontractor_name  TEXT NOT NULL DEFAULT '',
//	    status              TEXT NOT NULL,
//	    broker_email        TEXT NOT NULL DEFAULT '',
//	    contact_email       TEXT NOT NULL DEFAULT '',
//	    registered_abn      TEXT NOT NULL DEFAULT '',
//	    project_state       TEXT NOT NULL DEFAULT '',
//	    project_end_date    TIMESTAMPTZ,
//	    created_at          TIMESTAMPTZ NOT NULL,
//	    updated_at          TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (project_id, subcontractor_id)
//	);
type PostgresProjectSubcontractorStore struct {
	db *sql.DB
}

func NewPostgresProjectSubcontractors(db *sql.DB) *PostgresProjectSubcontractorStore {
	return &PostgresProjectSubcontractorStore{db: db}
}

func (s *PostgresProjectSubcontractorStore) Upsert(ctx context.Context, reg *compliance.ProjectSubcontractor) error {
	if reg == nil {
		return dErrors.New(dErrors.CodeBadRequest, "registration is required")
	}

	now := requestcontext.Now(ctx)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_subcontractors (
			project_id, subcontractor_id, project_name, subcontractor_name, status,
			broker_email, contact_email, registered_abn, project_state, project_end_date,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (project_id, subcontractor_id) DO UPDATE SET
			project_name = EXCLUDED.project_name,
			subcontractor_name = EXCLUDED.subcontractor_name,
			broker_email = EXCLUDED.broker_email,
			contact_email = EXCLUDED.contact_email,
			registered_abn = EXCLUDED.registered_abn,
			project_state = EXCLUDED.project_state,
			project_end_date = EXCLUDED.project_end_date,
			updated_at = EXCLUDED.updated_at
	`,
		uuid.UUID(reg.ProjectID),
		uuid.UUID(reg.SubcontractorID),
		reg.ProjectName,
		reg.SubcontractorName,
		string(reg.Status),
		reg.BrokerEmail,
		reg.ContactEmail,
		reg.RegisteredABN,
		reg.ProjectState,
		reg.ProjectEndDate,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert registration: %w", err)
	}
	return nil
}

func (s *PostgresProjectSubcontractorStore) Get(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID) (*compliance.ProjectSubcontractor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT project_id, subcontractor_id, project_name, subcontractor_name, status,
			broker_email, contact_email, registered_abn, project_state, project_end_date,
			created_at, updated_at
		FROM project_subcontractors
		WHERE project_id = $1 AND subcontractor_id = $2
	`, uuid.UUID(projectID), uuid.UUID(subcontractorID))

	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "subcontractor %s is not registered on project %s", subcontractorID, projectID)
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func (s *PostgresProjectSubcontractorStore) SetStatus(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID, status compliance.Status) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE project_subcontractors
		SET status = $3, updated_at = $4
		WHERE project_id = $1 AND subcontractor_id = $2
	`, uuid.UUID(projectID), uuid.UUID(subcontractorID), string(status), requestcontext.Now(ctx))
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if affected == 0 {
		return dErrors.Newf(dErrors.CodeNotFound, "subcontractor %s is not registered on project %s", subcontractorID, projectID)
	}
	return nil
}

func (s *PostgresProjectSubcontractorStore) ListByProject(ctx context.Context, projectID id.ProjectID) ([]compliance.ProjectSubcontractor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, subcontractor_id, project_name, subcontractor_name, status,
			broker_email, contact_email, registered_abn, project_state, project_end_date,
			created_at, updated_at
		FROM project_subcontractors
		WHERE project_id = $1
		ORDER BY subcontractor_name
	`, uuid.UUID(projectID))
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	out := make([]compliance.ProjectSubcontractor, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

func scanRegistration(row rowScanner) (*compliance.ProjectSubcontractor, error) {
	var reg compliance.ProjectSubcontractor
	var projectID, subcontractorID uuid.UUID
	var status string
	var projectEndDate sql.NullTime
	if err := row.Scan(&projectID, &subcontractorID, &reg.ProjectName, &reg.SubcontractorName,
		&status, &reg.BrokerEmail, &reg.ContactEmail, &reg.RegisteredABN, &reg.ProjectState,
		&projectEndDate, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
		return nil, err
	}
	reg.ProjectID = id.ProjectID(projectID)
	reg.SubcontractorID = id.SubcontractorID(subcontractorID)
	reg.Status = compliance.Status(status)
	if projectEndDate.Valid {
		reg.ProjectEndDate = &projectEndDate.Time
	}
	return &reg, nil
}
