package communication

import (
	"fmt"
	"strings"
	"time"

	"certguard/internal/verification"
)

// ResponseDays is how long a broker has to supply an updated certificate
// after a deficiency notice.
const ResponseDays = 14

// DeficiencyNoticeInput carries everything needed to render a deficiency
// notice.
type DeficiencyNoticeInput struct {
	Recipient         string
	SubcontractorName string
	ProjectName       string
	Deficiencies      []verification.Deficiency
	IssuedAt          time.Time
}

// BuildDeficiencyNotice renders a deficiency notice. Rendering is
// deterministic: deficiencies appear in input order and the due date is
// IssuedAt plus the response window.
func BuildDeficiencyNotice(in DeficiencyNoticeInput) Request {
	due := in.IssuedAt.AddDate(0, 0, ResponseDays)

	var b strings.Builder
	fmt.Fprintf(&b, "The certificate of currency submitted for %s on %s does not meet the project's insurance requirements.\n\n",
		orUnknown(in.SubcontractorName), orUnknown(in.ProjectName))
	b.WriteString("The following deficiencies were identified:\n\n")
	for _, d := range in.Deficiencies {
		fmt.Fprintf(&b, "  - [%s] %s", d.Severity, d.Description)
		if d.RequiredValue != "" || d.ActualValue != "" {
			fmt.Fprintf(&b, " (required: %s, provided: %s)", orUnknown(d.RequiredValue), orUnknown(d.ActualValue))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nPlease provide an updated certificate of currency by %s.\n", due.Format("2 January 2006"))

	return Request{
		Type:      TypeDeficiencyNotice,
		Recipient: in.Recipient,
		Subject:   fmt.Sprintf("Action required: insurance certificate for %s", orUnknown(in.SubcontractorName)),
		Body:      b.String(),
		DueDate:   &due,
	}
}

// ConfirmationInput carries everything needed to render a compliance
// confirmation.
type ConfirmationInput struct {
	Recipient         string
	SubcontractorName string
	ProjectName       string
}

// BuildConfirmation renders the note sent when a certificate passes
// verification and the subcontractor becomes compliant.
func BuildConfirmation(in ConfirmationInput) Request {
	var b strings.Builder
	fmt.Fprintf(&b, "The certificate of currency submitted for %s on %s has been verified and meets all project insurance requirements.\n\n",
		orUnknown(in.SubcontractorName), orUnknown(in.ProjectName))
	b.WriteString("No further action is required.\n")

	return Request{
		Type:      TypeConfirmation,
		Recipient: in.Recipient,
		Subject:   fmt.Sprintf("Insurance compliance confirmed for %s", orUnknown(in.SubcontractorName)),
		Body:      b.String(),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "(not specified)"
	}
	return s
}
