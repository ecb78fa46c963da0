//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/requestcontext"
	"certguard/pkg/testutil/containers"
)

// =============================================================================
// Postgres Verification Store Integration Test Suite
// =============================================================================

type PostgresStoreIntegrationSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	postgres *containers.PostgresContainer
	store    *PostgresStore
}

func TestPostgresStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreIntegrationSuite))
}

func (s *PostgresStoreIntegrationSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreIntegrationSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.Require().NoError(s.postgres.Truncate(context.Background(), "verifications"))
}

func (s *PostgresStoreIntegrationSuite) record(documentID id.DocumentID) *verification.Record {
	return &verification.Record{
		DocumentID: documentID,
		Result: verification.VerificationResult{
			Status: verification.StatusFail,
			Checks: []verification.Check{{
				Type:        verification.CheckPolicyValidity,
				Status:      verification.CheckFail,
				Description: "Policy has expired",
			}},
			Deficiencies: []verification.Deficiency{{
				Type:        verification.DeficiencyExpiredPolicy,
				Severity:    verification.SeverityCritical,
				Description: "Policy has expired",
			}},
			ConfidenceScore: 0.91,
		},
		Extracted: verification.ExtractedPolicyData{
			InsuredName:     "Apex Formwork Pty Ltd",
			PolicyNumber:    "PL-2026-00421",
			PeriodEnd:       time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			ConfidenceScore: 0.91,
			Coverages: []verification.Coverage{{
				Type:  verification.CoveragePublicLiability,
				Limit: 20_000_000,
				Details: verification.LiabilityDetails{
					PrincipalIndemnity: true,
				},
			}},
		},
	}
}

func (s *PostgresStoreIntegrationSuite) TestCreateAndGet() {
	documentID := id.NewDocumentID()
	s.Require().NoError(s.store.Create(s.ctx, s.record(documentID)))

	got, err := s.store.GetByDocument(s.ctx, documentID)
	s.Require().NoError(err)
	s.Equal(verification.StatusFail, got.Result.Status)
	s.Require().Len(got.Result.Checks, 1)
	s.Equal(verification.CheckPolicyValidity, got.Result.Checks[0].Type)
	s.Require().Len(got.Result.Deficiencies, 1)
	s.InDelta(0.91, got.Result.ConfidenceScore, 0.0001)
	s.Equal("Apex Formwork Pty Ltd", got.Extracted.InsuredName)

	// Tagged-union details survive the JSONB round trip.
	s.Require().Len(got.Extracted.Coverages, 1)
	details, ok := got.Extracted.Coverages[0].Liability()
	s.Require().True(ok)
	s.True(details.PrincipalIndemnity)
}

func (s *PostgresStoreIntegrationSuite) TestCreateConflictsOnDuplicateDocument() {
	documentID := id.NewDocumentID()
	s.Require().NoError(s.store.Create(s.ctx, s.record(documentID)))

	err := s.store.Create(s.ctx, s.record(documentID))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *PostgresStoreIntegrationSuite) TestUpsertReplacesInPlace() {
	documentID := id.NewDocumentID()

	first, err := s.store.Upsert(s.ctx, s.record(documentID))
	s.Require().NoError(err)

	replacement := s.record(documentID)
	replacement.Result.Status = verification.StatusPass
	replacement.Result.Deficiencies = nil

	second, err := s.store.Upsert(s.ctx, replacement)
	s.Require().NoError(err)
	s.Equal(first, second, "re-processing keeps the verification id")

	got, err := s.store.GetByDocument(s.ctx, documentID)
	s.Require().NoError(err)
	s.Equal(verification.StatusPass, got.Result.Status)
	s.Empty(got.Result.Deficiencies)
}

func (s *PostgresStoreIntegrationSuite) TestGetMissingDocument() {
	_, err := s.store.GetByDocument(s.ctx, id.NewDocumentID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
