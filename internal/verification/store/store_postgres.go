package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/requestcontext"
)

// uniqueViolation is the postgres error code raised by the unique index on
// document_id; it is what turns a racing duplicate create into a conflict.
const uniqueViolation = "23505"

// PostgresStore persists verification records in PostgreSQL. Pure I/O -
// result shaping and rule logic belong to the verification package.
//
// Schema:
//
//	CREATE TABLE verifications (
//	    id              UUID PRIMARY KEY,
//	    document_id     UUID NOT NULL UNIQUE,
//	    status          TEXT NOT NULL,
//	    checks          JSONB NOT NULL,
//	    deficiencies    JSONB NOT NULL,
//	    confidence      DOUBLE PRECISION NOT NULL,
//	    extracted       JSONB NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL,
//	    updated_at      TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record *verification.Record) error {
	if record == nil {
		return dErrors.New(dErrors.CodeBadRequest, "verification record is required")
	}

	recordID := record.ID
	if recordID.IsNil() {
		recordID = id.NewVerificationID()
	}
	now := requestcontext.Now(ctx)

	checks, deficiencies, extracted, err := marshalFields(record)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verifications (id, document_id, status, checks, deficiencies, confidence, extracted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`,
		uuid.UUID(recordID),
		uuid.UUID(record.DocumentID),
		string(record.Result.Status),
		checks,
		deficiencies,
		record.Result.ConfidenceScore,
		extracted,
		now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return dErrors.Wrap(err, dErrors.CodeConflict,
				fmt.Sprintf("verification already exists for document %s", record.DocumentID))
		}
		return fmt.Errorf("create verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, record *verification.Record) (id.VerificationID, error) {
	if record == nil {
		return id.VerificationID{}, dErrors.New(dErrors.CodeBadRequest, "verification record is required")
	}

	recordID := record.ID
	if recordID.IsNil() {
		recordID = id.NewVerificationID()
	}
	now := requestcontext.Now(ctx)

	checks, deficiencies, extracted, err := marshalFields(record)
	if err != nil {
		return id.VerificationID{}, err
	}

	var returned uuid.UUID
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO verifications (id, document_id, status, checks, deficiencies, confidence, extracted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (document_id) DO UPDATE SET
			status = EXCLUDED.status,
			checks = EXCLUDED.checks,
			deficiencies = EXCLUDED.deficiencies,
			confidence = EXCLUDED.confidence,
			extracted = EXCLUDED.extracted,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`,
		uuid.UUID(recordID),
		uuid.UUID(record.DocumentID),
		string(record.Result.Status),
		checks,
		deficiencies,
		record.Result.ConfidenceScore,
		extracted,
		now,
	).Scan(&returned)
	if err != nil {
		return id.VerificationID{}, fmt.Errorf("upsert verification: %w", err)
	}
	return id.VerificationID(returned), nil
}

func (s *PostgresStore) GetByDocument(ctx context.Context, documentID id.DocumentID) (*verification.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, status, checks, deficiencies, confidence, extracted, created_at, updated_at
		FROM verifications
		WHERE document_id = $1
	`, uuid.UUID(documentID))

	var record verification.Record
	var recordID, docID uuid.UUID
	var status string
	var checks, deficiencies, extracted []byte
	if err := row.Scan(&recordID, &docID, &status, &checks, &deficiencies,
		&record.Result.ConfidenceScore, &extracted, &record.CreatedAt, &record.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no verification for document %s", documentID)
		}
		return nil, fmt.Errorf("get verification: %w", err)
	}

	record.ID = id.VerificationID(recordID)
	record.DocumentID = id.DocumentID(docID)
	record.Result.Status = verification.Status(status)
	if err := json.Unmarshal(checks, &record.Result.Checks); err != nil {
		return nil, fmt.Errorf("decode checks: %w", err)
	}
	if err := json.Unmarshal(deficiencies, &record.Result.Deficiencies); err != nil {
		return nil, fmt.Errorf("decode deficiencies: %w", err)
	}
	if err := json.Unmarshal(extracted, &record.Extracted); err != nil {
		return nil, fmt.Errorf("decode extracted data: %w", err)
	}
	return &record, nil
}

func marshalFields(record *verification.Record) (checks, deficiencies, extracted []byte, err error) {
	if checks, err = json.Marshal(record.Result.Checks); err != nil {
		return nil, nil, nil, fmt.Errorf("encode checks: %w", err)
	}
	if deficiencies, err = json.Marshal(record.Result.Deficiencies); err != nil {
		return nil, nil, nil, fmt.Errorf("encode deficiencies: %w", err)
	}
	if extracted, err = json.Marshal(record.Extracted); err != nil {
		return nil, nil, nil, fmt.Errorf("encode extracted data: %w", err)
	}
	return checks, deficiencies, extracted, nil
}
