// Package communication generates and dispatches outbound messages raised by
// compliance outcomes: deficiency notices to brokers and confirmation notes
// to subcontractors.
package communication

import "time"

// Type classifies an outbound communication.
type Type string

const (
	TypeDeficiencyNotice Type = "deficiency_notice"
	TypeConfirmation     Type = "confirmation"
)

// Request is a fully rendered communication ready for dispatch. Building one
// is pure; only dispatching touches the network.
type Request struct {
	Type      Type
	Recipient string
	Subject   string
	Body      string

	// DueDate is set on deficiency notices: the date by which an updated
	// certificate must be provided.
	DueDate *time.Time
}
