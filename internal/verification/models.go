package verification

import (
	"encoding/json"
	"time"

	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
)

// CoverageType enumerates the insurance lines a certificate can carry and a
// project can require.
type CoverageType string

const (
	CoveragePublicLiability       CoverageType = "public_liability"
	CoverageProductsLiability     CoverageType = "products_liability"
	CoverageWorkersComp           CoverageType = "workers_comp"
	CoverageProfessionalIndemnity CoverageType = "professional_indemnity"
	CoverageMotorVehicle          CoverageType = "motor_vehicle"
	CoverageContractWorks         CoverageType = "contract_works"
)

// IsValid checks if the coverage type is one of the supported enum values.
func (t CoverageType) IsValid() bool {
	switch t {
	case CoveragePublicLiability, CoverageProductsLiability, CoverageWorkersComp,
		CoverageProfessionalIndemnity, CoverageMotorVehicle, CoverageContractWorks:
		return true
	}
	return false
}

// ParseCoverageType validates a wire string into a CoverageType.
func ParseCoverageType(s string) (CoverageType, error) {
	t := CoverageType(s)
	if !t.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown coverage type %q", s)
	}
	return t, nil
}

// LimitType qualifies how a coverage limit applies.
type LimitType string

const (
	LimitPerOccurrence LimitType = "per_occurrence"
	LimitAggregate     LimitType = "aggregate"
	LimitPerClaim      LimitType = "per_claim"
)

// CheckStatus is the outcome of a single evaluated rule.
type CheckStatus string

const (
	CheckPass    CheckStatus = "pass"
	CheckFail    CheckStatus = "fail"
	CheckWarning CheckStatus = "warning"
)

// CheckType names the rule a check row came from.
type CheckType string

const (
	CheckPolicyValidity  CheckType = "policy_validity"
	CheckProjectCoverage CheckType = "project_coverage"
	CheckABN             CheckType = "abn_verification"
	CheckCoverageLimit   CheckType = "coverage_limit"
	CheckCoverageExcess  CheckType = "coverage_excess"
	CheckEndorsement     CheckType = "endorsement"
	CheckStateMatch      CheckType = "state_match"
	CheckCoveragePresent CheckType = "coverage_present"
	CheckConfidence      CheckType = "extraction_confidence"
)

// Check records one evaluated rule. Checks are produced once and never
// mutated; the result set is order-independent.
type Check struct {
	Type        CheckType   `json:"check_type"`
	Status      CheckStatus `json:"status"`
	Description string      `json:"description"`
	Details     string      `json:"details,omitempty"`
}

// Severity ranks a deficiency: critical blocks compliance outright, major is
// a serious gap, minor is cosmetic or excess-related.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// DeficiencyType enumerates the ways a certificate can fall short of a
// requirement set.
type DeficiencyType string

const (
	DeficiencyExpiredPolicy        DeficiencyType = "expired_policy"
	DeficiencyExpiresBeforeProject DeficiencyType = "policy_expires_before_project"
	DeficiencyMissingCoverage      DeficiencyType = "missing_coverage"
	DeficiencyInsufficientLimit    DeficiencyType = "insufficient_limit"
	DeficiencyExcessTooHigh        DeficiencyType = "excess_too_high"
	DeficiencyMissingEndorsement   DeficiencyType = "missing_endorsement"
	DeficiencyStateMismatch        DeficiencyType = "state_mismatch"
)

// Deficiency is a structured record of one violated rule. There is no
// deficiency for a passing check.
type Deficiency struct {
	Type          DeficiencyType `json:"type"`
	Severity      Severity       `json:"severity"`
	Description   string         `json:"description"`
	RequiredValue string         `json:"required_value"`
	ActualValue   string         `json:"actual_value"`
}

// Status is the aggregate verification outcome.
type Status string

const (
	StatusPass   Status = "pass"
	StatusFail   Status = "fail"
	StatusReview Status = "review"
)

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	return s == StatusPass || s == StatusFail || s == StatusReview
}

// CoverageDetails carries the fields valid for a particular coverage type.
// Modeling per-type fields as a closed set of detail structs keeps invalid
// combinations (a state on a liability line, an endorsement on workers comp)
// unrepresentable.
type CoverageDetails interface {
	coverageDetails()
}

// LiabilityDetails applies to public/products liability, professional
// indemnity, motor vehicle, and contract works lines.
type LiabilityDetails struct {
	PrincipalIndemnity  bool `json:"principal_indemnity"`
	CrossLiability      bool `json:"cross_liability"`
	WaiverOfSubrogation bool `json:"waiver_of_subrogation"`
}

// WorkersCompDetails applies to workers compensation lines.
type WorkersCompDetails struct {
	State             string `json:"state,omitempty"`
	EmployerIndemnity bool   `json:"employer_indemnity"`
}

func (LiabilityDetails) coverageDetails()   {}
func (WorkersCompDetails) coverageDetails() {}

// Coverage is one line of insurance protection extracted from a certificate.
// Amounts are whole dollars.
type Coverage struct {
	Type      CoverageType    `json:"type"`
	Limit     int64           `json:"limit"`
	LimitType LimitType       `json:"limit_type,omitempty"`
	Excess    int64           `json:"excess"`
	Details   CoverageDetails `json:"details,omitempty"`
}

// UnmarshalJSON decodes the per-type details into the matching concrete
// struct: workers-comp lines get WorkersCompDetails, everything else gets
// LiabilityDetails. Absent details stay nil.
func (c *Coverage) UnmarshalJSON(data []byte) error {
	type alias struct {
		Type      CoverageType    `json:"type"`
		Limit     int64           `json:"limit"`
		LimitType LimitType       `json:"limit_type"`
		Excess    int64           `json:"excess"`
		Details   json.RawMessage `json:"details"`
	}
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Type = raw.Type
	c.Limit = raw.Limit
	c.LimitType = raw.LimitType
	c.Excess = raw.Excess
	c.Details = nil

	if len(raw.Details) == 0 || string(raw.Details) == "null" {
		return nil
	}

	if raw.Type == CoverageWorkersComp {
		var d WorkersCompDetails
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return err
		}
		c.Details = d
		return nil
	}

	var d LiabilityDetails
	if err := json.Unmarshal(raw.Details, &d); err != nil {
		return err
	}
	c.Details = d
	return nil
}

// Liability returns the liability details when present on this line.
func (c Coverage) Liability() (LiabilityDetails, bool) {
	d, ok := c.Details.(LiabilityDetails)
	return d, ok
}

// WorkersComp returns the workers-comp details when present on this line.
func (c Coverage) WorkersComp() (WorkersCompDetails, bool) {
	d, ok := c.Details.(WorkersCompDetails)
	return d, ok
}

// ExtractedPolicyData is the AI-extraction output for one certificate.
// Immutable once produced; owned by the caller for the duration of one
// verification call.
type ExtractedPolicyData struct {
	InsuredName     string     `json:"insured_name"`
	InsuredABN      string     `json:"insured_abn,omitempty"`
	InsurerName     string     `json:"insurer_name"`
	PolicyNumber    string     `json:"policy_number"`
	PeriodStart     time.Time  `json:"period_of_insurance_start"`
	PeriodEnd       time.Time  `json:"period_of_insurance_end"`
	Coverages       []Coverage `json:"coverages"`
	ConfidenceScore float64    `json:"confidence_score"`
}

// Validate enforces the minimal shape the engine needs. A zero period end is
// an input error, not a data outcome: silently passing an undated policy
// would defeat the expiry rules.
func (e ExtractedPolicyData) Validate() error {
	if e.PeriodEnd.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "period_of_insurance_end is required")
	}
	if e.ConfidenceScore < 0 || e.ConfidenceScore > 1 {
		return dErrors.New(dErrors.CodeValidation, "confidence_score must be within [0,1]")
	}
	for _, c := range e.Coverages {
		if !c.Type.IsValid() {
			return dErrors.Newf(dErrors.CodeValidation, "unknown coverage type %q", string(c.Type))
		}
	}
	return nil
}

// CoverageRequirement is a project-defined minimum standard one coverage line
// must meet. Nil amounts mean the dimension is not constrained.
type CoverageRequirement struct {
	ID                     id.RequirementID `json:"id,omitempty"`
	ProjectID              id.ProjectID     `json:"project_id,omitempty"`
	CoverageType           CoverageType     `json:"coverage_type"`
	MinimumLimit           *int64           `json:"minimum_limit,omitempty"`
	LimitType              LimitType        `json:"limit_type,omitempty"`
	MaximumExcess          *int64           `json:"maximum_excess,omitempty"`
	PrincipalIndemnityReq  bool             `json:"principal_indemnity_required"`
	CrossLiabilityReq      bool             `json:"cross_liability_required"`
	WaiverOfSubrogationReq bool             `json:"waiver_of_subrogation_required"`
	PrincipalNamingReq     bool             `json:"principal_naming_required"`
}

// VerificationResult is the engine's sole output: a pure function of its
// inputs, reproducible and testable in isolation.
type VerificationResult struct {
	Status          Status       `json:"status"`
	Checks          []Check      `json:"checks"`
	Deficiencies    []Deficiency `json:"deficiencies"`
	ConfidenceScore float64      `json:"confidence_score"`
}

// Record is the persisted form of a verification result. Exactly one record
// exists per document at any time.
type Record struct {
	ID         id.VerificationID   `json:"id"`
	DocumentID id.DocumentID       `json:"document_id"`
	Result     VerificationResult  `json:"result"`
	Extracted  ExtractedPolicyData `json:"extracted"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}
