package verification

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatting helpers for human-readable check and deficiency strings.
// Output must be deterministic and locale-stable: golden tests depend on it,
// and the same strings end up in broker-facing emails. The printer is pinned
// to English regardless of host locale.
var printer = message.NewPrinter(language.English)

var coverageLabels = map[CoverageType]string{
	CoveragePublicLiability:       "Public Liability",
	CoverageProductsLiability:     "Products Liability",
	CoverageWorkersComp:           "Workers' Compensation",
	CoverageProfessionalIndemnity: "Professional Indemnity",
	CoverageMotorVehicle:          "Motor Vehicle",
	CoverageContractWorks:         "Contract Works",
}

// Label returns the display name for a coverage type. Unknown types fall back
// to the raw enum string so nothing renders empty.
func (t CoverageType) Label() string {
	if label, ok := coverageLabels[t]; ok {
		return label
	}
	return string(t)
}

// FormatCurrency renders a whole-dollar amount as "$" plus a
// thousands-grouped integer, e.g. 20000000 -> "$20,000,000".
func FormatCurrency(amount int64) string {
	return printer.Sprintf("$%d", amount)
}

// formatDate renders dates for human-readable descriptions. ISO 8601 is kept
// for computation and wire formats; descriptions use the certificate
// convention common on Australian COCs.
func formatDate(t time.Time) string {
	return t.Format("2 January 2006")
}

// pluralDays phrases an expiry horizon for the warning-band check.
func pluralDays(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "in 1 day"
	default:
		return printer.Sprintf("in %d days", days)
	}
}
