package verification

import (
	"math"
	"strings"
	"time"
)

// expiryWarningDays is the horizon inside which a still-valid policy yields a
// warning check. A warning alone never forces a fail.
const expiryWarningDays = 30

// VerifyInput carries everything the engine needs for one evaluation. The
// clock is injected so results are reproducible.
type VerifyInput struct {
	Extracted      ExtractedPolicyData
	Requirements   []CoverageRequirement
	Now            time.Time
	ProjectEndDate *time.Time
	ProjectState   string
	RegisteredABN  string
	MinConfidence  float64
}

// Verify evaluates extracted certificate data against a project's
// requirement set and produces the aggregate verification result.
//
// This is pure domain logic - no I/O, no side effects, no clock reads. A
// missing coverage or expired policy is a data outcome represented as a
// deficiency, never an error. Requirement order carries no meaning; the
// checks and deficiencies form a set.
func Verify(in VerifyInput) VerificationResult {
	var checks []Check
	var deficiencies []Deficiency

	add := func(cs []Check, ds []Deficiency) {
		checks = append(checks, cs...)
		deficiencies = append(deficiencies, ds...)
	}

	add(evaluatePolicyValidity(in.Extracted.PeriodEnd, in.Now))
	if in.ProjectEndDate != nil {
		add(evaluateProjectCoverage(in.Extracted.PeriodEnd, *in.ProjectEndDate))
	}
	add(evaluateABN(in.Extracted.InsuredABN, in.RegisteredABN))

	for _, req := range in.Requirements {
		add(evaluateRequirement(req, in.Extracted.Coverages, in.ProjectState))
	}

	status := resolveStatus(checks, deficiencies)

	// Low extraction confidence floors a clean pass at review so a human
	// confirms the read. It never downgrades a fail and never adds a
	// deficiency: the certificate itself may be fine.
	if in.MinConfidence > 0 && in.Extracted.ConfidenceScore < in.MinConfidence && status == StatusPass {
		checks = append(checks, Check{
			Type:        CheckConfidence,
			Status:      CheckWarning,
			Description: "Extraction confidence below review threshold",
			Details:     printer.Sprintf("confidence %.2f < %.2f", in.Extracted.ConfidenceScore, in.MinConfidence),
		})
		status = StatusReview
	}

	return VerificationResult{
		Status:          status,
		Checks:          checks,
		Deficiencies:    deficiencies,
		ConfidenceScore: in.Extracted.ConfidenceScore,
	}
}

// resolveStatus aggregates checks and deficiencies into one status. The
// ordering is a strict priority chain: fail dominates review dominates pass;
// nothing can downgrade a fail.
func resolveStatus(checks []Check, deficiencies []Deficiency) Status {
	hasFailures := false
	hasWarnings := false
	for _, c := range checks {
		switch c.Status {
		case CheckFail:
			hasFailures = true
		case CheckWarning:
			hasWarnings = true
		}
	}

	hasCritical := false
	for _, d := range deficiencies {
		if d.Severity == SeverityCritical {
			hasCritical = true
			break
		}
	}

	switch {
	case hasFailures || hasCritical:
		return StatusFail
	case hasWarnings:
		return StatusReview
	default:
		return StatusPass
	}
}

// evaluatePolicyValidity applies the expiry rule chain:
//  1. already expired - hard fail with a critical deficiency
//  2. expiring within the warning horizon - warning, no deficiency
//  3. otherwise - pass
func evaluatePolicyValidity(policyEnd, now time.Time) ([]Check, []Deficiency) {
	daysUntilExpiry := int(math.Ceil(policyEnd.Sub(now).Hours() / 24))

	if policyEnd.Before(now) {
		return []Check{{
				Type:        CheckPolicyValidity,
				Status:      CheckFail,
				Description: "Policy has expired",
				Details:     "Expired on " + formatDate(policyEnd),
			}}, []Deficiency{{
				Type:          DeficiencyExpiredPolicy,
				Severity:      SeverityCritical,
				Description:   "Policy has expired",
				RequiredValue: "Valid policy",
				ActualValue:   "Expired on " + formatDate(policyEnd),
			}}
	}

	if daysUntilExpiry <= expiryWarningDays {
		return []Check{{
			Type:        CheckPolicyValidity,
			Status:      CheckWarning,
			Description: "Policy expires " + pluralDays(daysUntilExpiry),
		}}, nil
	}

	return []Check{{
		Type:        CheckPolicyValidity,
		Status:      CheckPass,
		Description: "Policy valid until " + formatDate(policyEnd),
	}}, nil
}

// evaluateProjectCoverage checks the policy covers the whole project period.
func evaluateProjectCoverage(policyEnd, projectEnd time.Time) ([]Check, []Deficiency) {
	if policyEnd.Before(projectEnd) {
		return []Check{{
				Type:        CheckProjectCoverage,
				Status:      CheckFail,
				Description: "Policy expires before project completion",
				Details:     "Project runs until " + formatDate(projectEnd),
			}}, []Deficiency{{
				Type:          DeficiencyExpiresBeforeProject,
				Severity:      SeverityCritical,
				Description:   "Policy expires before project completion",
				RequiredValue: "Valid until " + formatDate(projectEnd),
				ActualValue:   "Expires " + formatDate(policyEnd),
			}}
	}

	return []Check{{
		Type:        CheckProjectCoverage,
		Status:      CheckPass,
		Description: "Policy covers project period",
	}}, nil
}

// evaluateABN compares the extracted ABN with the subcontractor's registered
// ABN. Either side missing is a pass with a detail note: an unreadable ABN is
// not evidence of a problem, but a mismatch is.
func evaluateABN(extractedABN, registeredABN string) ([]Check, []Deficiency) {
	extracted := normalizeABN(extractedABN)
	registered := normalizeABN(registeredABN)

	switch {
	case registered == "":
		return []Check{{
			Type:        CheckABN,
			Status:      CheckPass,
			Description: "ABN check skipped",
			Details:     "No registered ABN on file",
		}}, nil
	case extracted == "":
		return []Check{{
			Type:        CheckABN,
			Status:      CheckWarning,
			Description: "ABN not found on certificate",
			Details:     "Registered ABN " + registeredABN,
		}}, nil
	case extracted != registered:
		return []Check{{
			Type:        CheckABN,
			Status:      CheckFail,
			Description: "Certificate ABN does not match registered ABN",
			Details:     "Certificate " + extractedABN + ", registered " + registeredABN,
		}}, nil
	}

	return []Check{{
		Type:        CheckABN,
		Status:      CheckPass,
		Description: "ABN matches registered ABN",
	}}, nil
}

func normalizeABN(abn string) string {
	return strings.ReplaceAll(strings.TrimSpace(abn), " ", "")
}

// evaluateRequirement runs the per-requirement rule chain against the
// extracted coverage lines. The first line matching the requirement's type
// wins; duplicates are not deduplicated by the engine.
func evaluateRequirement(req CoverageRequirement, coverages []Coverage, projectState string) ([]Check, []Deficiency) {
	label := req.CoverageType.Label()

	coverage, found := findCoverage(coverages, req.CoverageType)
	if !found {
		requiredValue := "Required"
		if req.MinimumLimit != nil {
			requiredValue = FormatCurrency(*req.MinimumLimit)
		}
		return []Check{{
				Type:        CheckCoveragePresent,
				Status:      CheckFail,
				Description: label + " coverage not found",
			}}, []Deficiency{{
				Type:          DeficiencyMissingCoverage,
				Severity:      SeverityCritical,
				Description:   label + " coverage not found on certificate",
				RequiredValue: requiredValue,
				ActualValue:   "Not found",
			}}
	}

	var checks []Check
	var deficiencies []Deficiency

	// Limit check.
	if req.MinimumLimit != nil {
		if coverage.Limit < *req.MinimumLimit {
			checks = append(checks, Check{
				Type:        CheckCoverageLimit,
				Status:      CheckFail,
				Description: label + " limit below required minimum",
				Details:     FormatCurrency(coverage.Limit) + " < " + FormatCurrency(*req.MinimumLimit),
			})
			deficiencies = append(deficiencies, Deficiency{
				Type:          DeficiencyInsufficientLimit,
				Severity:      SeverityMajor,
				Description:   label + " limit below required minimum",
				RequiredValue: FormatCurrency(*req.MinimumLimit),
				ActualValue:   FormatCurrency(coverage.Limit),
			})
		} else {
			checks = append(checks, Check{
				Type:        CheckCoverageLimit,
				Status:      CheckPass,
				Description: label + " limit meets requirement",
				Details:     FormatCurrency(coverage.Limit),
			})
		}
	}

	// Excess check. No pass row is emitted when the excess is within
	// bounds; only the violation surfaces.
	if req.MaximumExcess != nil && coverage.Excess > *req.MaximumExcess {
		checks = append(checks, Check{
			Type:        CheckCoverageExcess,
			Status:      CheckFail,
			Description: label + " excess above allowed maximum",
		})
		deficiencies = append(deficiencies, Deficiency{
			Type:          DeficiencyExcessTooHigh,
			Severity:      SeverityMinor,
			Description:   label + " excess above allowed maximum",
			RequiredValue: "Max " + FormatCurrency(*req.MaximumExcess),
			ActualValue:   FormatCurrency(coverage.Excess),
		})
	}

	liability, hasLiability := coverage.Liability()

	if req.PrincipalIndemnityReq {
		checks, deficiencies = appendEndorsement(checks, deficiencies, label,
			"principal indemnity", hasLiability && liability.PrincipalIndemnity)
	}
	if req.CrossLiabilityReq {
		checks, deficiencies = appendEndorsement(checks, deficiencies, label,
			"cross liability", hasLiability && liability.CrossLiability)
	}
	if req.WaiverOfSubrogationReq {
		checks, deficiencies = appendEndorsement(checks, deficiencies, label,
			"waiver of subrogation", hasLiability && liability.WaiverOfSubrogation)
	}

	// Principal naming cannot be read off the extracted data; route it to a
	// human instead of guessing either way.
	if req.PrincipalNamingReq {
		checks = append(checks, Check{
			Type:        CheckEndorsement,
			Status:      CheckWarning,
			Description: label + " principal naming requires manual confirmation",
		})
	}

	// Workers-comp registrations are state-scoped; a certificate for the
	// wrong state is no coverage at all.
	if req.CoverageType == CoverageWorkersComp && projectState != "" {
		if wc, ok := coverage.WorkersComp(); ok && wc.State != "" {
			if !strings.EqualFold(wc.State, projectState) {
				checks = append(checks, Check{
					Type:        CheckStateMatch,
					Status:      CheckFail,
					Description: "Workers' Compensation registered in wrong state",
					Details:     wc.State + " does not cover " + projectState,
				})
				deficiencies = append(deficiencies, Deficiency{
					Type:          DeficiencyStateMismatch,
					Severity:      SeverityCritical,
					Description:   "Workers' Compensation registered in wrong state",
					RequiredValue: projectState,
					ActualValue:   wc.State,
				})
			} else {
				checks = append(checks, Check{
					Type:        CheckStateMatch,
					Status:      CheckPass,
					Description: "Workers' Compensation state matches project state",
				})
			}
		}
	}

	return checks, deficiencies
}

func appendEndorsement(checks []Check, deficiencies []Deficiency, label, endorsement string, present bool) ([]Check, []Deficiency) {
	if present {
		return append(checks, Check{
			Type:        CheckEndorsement,
			Status:      CheckPass,
			Description: label + " includes " + endorsement,
		}), deficiencies
	}
	return append(checks, Check{
			Type:        CheckEndorsement,
			Status:      CheckFail,
			Description: label + " missing " + endorsement + " endorsement",
		}), append(deficiencies, Deficiency{
			Type:          DeficiencyMissingEndorsement,
			Severity:      SeverityMajor,
			Description:   label + " missing " + endorsement + " endorsement",
			RequiredValue: endorsement + " endorsement",
			ActualValue:   "Not present",
		})
}

func findCoverage(coverages []Coverage, t CoverageType) (Coverage, bool) {
	for _, c := range coverages {
		if c.Type == t {
			return c, true
		}
	}
	return Coverage{}, false
}
