package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
)

// PostgresStore persists coverage requirements in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE coverage_requirements (
//	    id                         UUID PRIMARY KEY,
//	    project_id                 UUID NOT NULL,
//	    coverage_type              TEXT NOT NULL,
//	    minimum_limit              BIGINT,
//	    limit_type                 TEXT NOT NULL DEFAULT 'per_occurrence',
//	    maximum_excess             BIGINT,
//	    principal_indemnity_req    BOOLEAN NOT NULL DEFAULT FALSE,
//	    cross_liability_req        BOOLEAN NOT NULL DEFAULT FALSE,
//	    waiver_of_subrogation_req  BOOLEAN NOT NULL DEFAULT FALSE,
//	    principal_naming_req       BOOLEAN NOT NULL DEFAULT FALSE
//	);
//	CREATE INDEX idx_coverage_requirements_project ON coverage_requirements (project_id);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, req *verification.CoverageRequirement) error {
	if req == nil {
		return dErrors.New(dErrors.CodeBadRequest, "requirement is required")
	}
	if req.ID.IsNil() {
		req.ID = id.NewRequirementID()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coverage_requirements (
			id, project_id, coverage_type, minimum_limit, limit_type, maximum_excess,
			principal_indemnity_req, cross_liability_req, waiver_of_subrogation_req, principal_naming_req
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			project_id = EXCLUDED.project_id,
			coverage_type = EXCLUDED.coverage_type,
			minimum_limit = EXCLUDED.minimum_limit,
			limit_type = EXCLUDED.limit_type,
			maximum_excess = EXCLUDED.maximum_excess,
			principal_indemnity_req = EXCLUDED.principal_indemnity_req,
			cross_liability_req = EXCLUDED.cross_liability_req,
			waiver_of_subrogation_req = EXCLUDED.waiver_of_subrogation_req,
			principal_naming_req = EXCLUDED.principal_naming_req
	`,
		uuid.UUID(req.ID),
		uuid.UUID(req.ProjectID),
		string(req.CoverageType),
		nullableInt64(req.MinimumLimit),
		string(req.LimitType),
		nullableInt64(req.MaximumExcess),
		req.PrincipalIndemnityReq,
		req.CrossLiabilityReq,
		req.WaiverOfSubrogationReq,
		req.PrincipalNamingReq,
	)
	if err != nil {
		return fmt.Errorf("upsert requirement: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByProject(ctx context.Context, projectID id.ProjectID) ([]verification.CoverageRequirement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, coverage_type, minimum_limit, limit_type, maximum_excess,
			principal_indemnity_req, cross_liability_req, waiver_of_subrogation_req, principal_naming_req
		FROM coverage_requirements
		WHERE project_id = $1
		ORDER BY coverage_type
	`, uuid.UUID(projectID))
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()

	out := make([]verification.CoverageRequirement, 0)
	for rows.Next() {
		var req verification.CoverageRequirement
		var reqID, projID uuid.UUID
		var coverageType, limitType string
		var minLimit, maxExcess sql.NullInt64
		if err := rows.Scan(&reqID, &projID, &coverageType, &minLimit, &limitType, &maxExcess,
			&req.PrincipalIndemnityReq, &req.CrossLiabilityReq, &req.WaiverOfSubrogationReq, &req.PrincipalNamingReq); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		req.ID = id.RequirementID(reqID)
		req.ProjectID = id.ProjectID(projID)
		req.CoverageType = verification.CoverageType(coverageType)
		req.LimitType = verification.LimitType(limitType)
		if minLimit.Valid {
			req.MinimumLimit = &minLimit.Int64
		}
		if maxExcess.Valid {
			req.MaximumExcess = &maxExcess.Int64
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, projectID id.ProjectID, requirementID id.RequirementID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM coverage_requirements WHERE id = $1 AND project_id = $2
	`, uuid.UUID(requirementID), uuid.UUID(projectID))
	if err != nil {
		return fmt.Errorf("delete requirement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete requirement: %w", err)
	}
	if affected == 0 {
		return dErrors.Newf(dErrors.CodeNotFound, "requirement %s not found", requirementID)
	}
	return nil
}

func nullableInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
