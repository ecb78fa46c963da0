package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
)

// =============================================================================
// Test Doubles
// =============================================================================

type stubService struct {
	verifyResult  verification.VerificationResult
	verifyErr     error
	processResult *verification.ProcessOutcome
	processErr    error
	record        *verification.Record
	recordErr     error
	upsertID      id.VerificationID
	upsertErr     error

	lastProcess  verification.ProcessRequest
	lastUpsertID id.DocumentID
}

func (s *stubService) Verify(context.Context, verification.VerifyInput) (verification.VerificationResult, error) {
	return s.verifyResult, s.verifyErr
}

func (s *stubService) ProcessDocument(_ context.Context, req verification.ProcessRequest) (*verification.ProcessOutcome, error) {
	s.lastProcess = req
	return s.processResult, s.processErr
}

func (s *stubService) UpsertVerification(_ context.Context, documentID id.DocumentID, _ verification.VerificationResult, _ verification.ExtractedPolicyData) (id.VerificationID, error) {
	s.lastUpsertID = documentID
	return s.upsertID, s.upsertErr
}

func (s *stubService) GetByDocument(context.Context, id.DocumentID) (*verification.Record, error) {
	return s.record, s.recordErr
}

// =============================================================================
// Verification Handler Test Suite
// =============================================================================

type VerificationHandlerSuite struct {
	suite.Suite
	service *stubService
	router  chi.Router
}

func TestVerificationHandlerSuite(t *testing.T) {
	suite.Run(t, new(VerificationHandlerSuite))
}

func (s *VerificationHandlerSuite) SetupTest() {
	s.service = &stubService{}
	s.router = chi.NewRouter()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	New(s.service, logger).Register(s.router)
}

func (s *VerificationHandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *VerificationHandlerSuite) TestVerify() {
	s.Run("returns the result", func() {
		s.service.verifyResult = verification.VerificationResult{
			Status: verification.StatusPass,
			Checks: []verification.Check{{
				Type:        verification.CheckPolicyValidity,
				Status:      verification.CheckPass,
				Description: "Policy valid until 1 December 2026",
			}},
			ConfidenceScore: 0.95,
		}

		rec := s.do(http.MethodPost, "/verify", `{
			"extracted": {
				"period_of_insurance_end": "2026-12-01T00:00:00Z",
				"confidence_score": 0.95
			}
		}`)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp VerifyResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal("pass", resp.Status)
		s.Require().Len(resp.Checks, 1)
		s.Equal("policy_validity", resp.Checks[0].Type)
	})

	s.Run("missing period end is a validation error", func() {
		rec := s.do(http.MethodPost, "/verify", `{"extracted": {}}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "period_of_insurance_end is required")
	})

	s.Run("malformed body is a bad request", func() {
		rec := s.do(http.MethodPost, "/verify", `{`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown requirement coverage type rejected", func() {
		rec := s.do(http.MethodPost, "/verify", `{
			"extracted": {"period_of_insurance_end": "2026-12-01T00:00:00Z"},
			"requirements": [{"coverage_type": "flood"}]
		}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *VerificationHandlerSuite) TestProcessDocument() {
	documentID := id.NewDocumentID()
	projectID := id.NewProjectID()
	subcontractorID := id.NewSubcontractorID()

	body := `{"project_id": "` + projectID.String() + `", "subcontractor_id": "` + subcontractorID.String() + `"}`

	s.Run("returns the outcome", func() {
		verificationID := id.NewVerificationID()
		s.service.processResult = &verification.ProcessOutcome{
			VerificationID: verificationID,
			Result:         verification.VerificationResult{Status: verification.StatusReview},
		}

		rec := s.do(http.MethodPost, "/documents/"+documentID.String()+"/process", body)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp ProcessResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal(verificationID.String(), resp.VerificationID)
		s.Equal("review", resp.Result.Status)

		s.Equal(documentID, s.service.lastProcess.DocumentID)
		s.Equal(projectID, s.service.lastProcess.ProjectID)
		s.Equal(subcontractorID, s.service.lastProcess.SubcontractorID)
	})

	s.Run("invalid document id rejected", func() {
		rec := s.do(http.MethodPost, "/documents/not-a-uuid/process", body)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("missing pair ids rejected", func() {
		rec := s.do(http.MethodPost, "/documents/"+documentID.String()+"/process", `{}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("service errors map to status codes", func() {
		s.service.processErr = dErrors.New(dErrors.CodeInternal, "extraction service failed")
		rec := s.do(http.MethodPost, "/documents/"+documentID.String()+"/process", body)
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.NotContains(rec.Body.String(), "extraction service failed", "internal detail stays server-side")
		s.service.processErr = nil
	})
}

func (s *VerificationHandlerSuite) TestUpsertVerification() {
	documentID := id.NewDocumentID()
	body := `{
		"extracted": {
			"period_of_insurance_end": "2026-12-01T00:00:00Z",
			"confidence_score": 0.95
		}
	}`

	s.Run("evaluates and stores under the document", func() {
		s.service.verifyResult = verification.VerificationResult{Status: verification.StatusPass}
		s.service.upsertID = id.NewVerificationID()

		rec := s.do(http.MethodPost, "/documents/"+documentID.String()+"/verification", body)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp ProcessResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal(s.service.upsertID.String(), resp.VerificationID)
		s.Equal("pass", resp.Result.Status)
		s.Equal(documentID, s.service.lastUpsertID)
	})

	s.Run("invalid document id rejected", func() {
		rec := s.do(http.MethodPost, "/documents/not-a-uuid/verification", body)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("store failures map to status codes", func() {
		s.service.upsertErr = dErrors.New(dErrors.CodeInternal, "write failed")
		rec := s.do(http.MethodPost, "/documents/"+documentID.String()+"/verification", body)
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.service.upsertErr = nil
	})
}

func (s *VerificationHandlerSuite) TestGetVerification() {
	documentID := id.NewDocumentID()

	s.Run("returns the stored record", func() {
		s.service.record = &verification.Record{
			ID:         id.NewVerificationID(),
			DocumentID: documentID,
			Result:     verification.VerificationResult{Status: verification.StatusPass},
			CreatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			UpdatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		}

		rec := s.do(http.MethodGet, "/documents/"+documentID.String()+"/verification", "")
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp RecordResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal(documentID.String(), resp.DocumentID)
		s.Equal("pass", resp.Result.Status)
	})

	s.Run("unknown document reports not found", func() {
		s.service.record = nil
		s.service.recordErr = dErrors.Newf(dErrors.CodeNotFound, "no verification for document %s", documentID)

		rec := s.do(http.MethodGet, "/documents/"+documentID.String()+"/verification", "")
		s.Equal(http.StatusNotFound, rec.Code)
	})
}
