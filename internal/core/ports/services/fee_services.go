package services

import (
	"context"
	"time"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/edusuite/school_finance_app/internal/dto"
)

// FeeSvcFacade tracks student fee receivables with partial payment, waivers,
// and cancellation.
type FeeSvcFacade interface {
	// BillFee allocates a receipt number, snapshots any active waiver into
	// the total, and creates the collection with status pending.
	BillFee(ctx context.Context, req dto.BillFeeRequest, creatorUserID string) (*domain.FeeCollection, error)
	// RecordPayment applies a ledger income transaction for the amount and
	// reconciles the collection status. Amounts exceeding the remaining
	// balance are rejected with ErrConflict.
	RecordPayment(ctx context.Context, collectionID string, req dto.RecordFeePaymentRequest, userID string) (*domain.FeeCollection, error)
	// CancelCollection cancels an unpaid collection. The receipt number is
	// never reallocated.
	CancelCollection(ctx context.Context, collectionID string, userID string) (*domain.FeeCollection, error)
	GetCollectionByID(ctx context.Context, collectionID string) (*domain.FeeCollection, error)
	ListCollectionsByStudent(ctx context.Context, studentID string, limit int, offset int) ([]domain.FeeCollection, error)
	ListDefaulters(ctx context.Context, asOf time.Time, limit int, offset int) ([]domain.FeeCollection, error)
	CreateWaiver(ctx context.Context, req dto.CreateWaiverRequest, creatorUserID string) (*domain.FeeWaiver, error)
}
