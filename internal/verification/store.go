package verification

import (
	"context"

	id "certguard/pkg/domain"
)

// Store persists verification records. Exactly one record may exist per
// document; implementations must enforce the uniqueness (unique index or
// equivalent) so concurrent calls cannot produce two rows for one document.
type Store interface {
	// Create inserts a new record and fails with a conflict code when a
	// record already exists for the document. Callers re-processing a
	// document must use Upsert instead.
	Create(ctx context.Context, record *Record) error

	// Upsert replaces the mutable fields of an existing record (result,
	// extracted data, updated-at) or inserts a new one. Returns the
	// record's verification ID either way.
	Upsert(ctx context.Context, record *Record) (id.VerificationID, error)

	// GetByDocument returns the record for a document, or a not-found
	// coded error.
	GetByDocument(ctx context.Context, documentID id.DocumentID) (*Record, error)
}
