package repositories

import (
	"context"
	"time"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FeeRepositoryFacade persists fee collections, waivers, and fee payments.
type FeeRepositoryFacade interface {
	SaveCollection(ctx context.Context, collection domain.FeeCollection) error
	FindCollectionByID(ctx context.Context, collectionID string) (*domain.FeeCollection, error)
	ListCollectionsByStudent(ctx context.Context, studentID string, limit int, offset int) ([]domain.FeeCollection, error)
	// ListDefaulters returns unpaid, uncancelled collections whose due date
	// precedes asOf.
	ListDefaulters(ctx context.Context, asOf time.Time, limit int, offset int) ([]domain.FeeCollection, error)

	// RecordPayment locks the collection row, verifies under the lock that the
	// payment does not exceed the remaining balance and the collection is
	// payable, inserts the ledger income transaction with its balance effect,
	// updates paid amount and status, and commits as one unit. Returns the
	// refreshed collection. Overpayment and double-submit surface as
	// ErrConflict.
	RecordPayment(ctx context.Context, collectionID string, payment decimal.Decimal, txn domain.LedgerTransaction, asOf time.Time) (*domain.FeeCollection, error)

	// CancelCollection locks the collection and cancels it only while nothing
	// has been paid; otherwise ErrConflict. The receipt number stays burned.
	CancelCollection(ctx context.Context, collectionID string, userID string, now time.Time) (*domain.FeeCollection, error)

	SaveWaiver(ctx context.Context, waiver domain.FeeWaiver) error
	FindWaiverByID(ctx context.Context, waiverID string) (*domain.FeeWaiver, error)
	// FindWaiversForStudent returns the student's active waivers; callers
	// filter by validity window and fee type via domain.FeeWaiver.AppliesOn.
	FindWaiversForStudent(ctx context.Context, studentID string) ([]domain.FeeWaiver, error)
}
