package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edusuite/school_finance_app/internal/apperrors"
	"github.com/edusuite/school_finance_app/internal/core/domain"
	portsrepo "github.com/edusuite/school_finance_app/internal/core/ports/repositories"
	portssvc "github.com/edusuite/school_finance_app/internal/core/ports/services"
	"github.com/edusuite/school_finance_app/internal/dto"
	"github.com/edusuite/school_finance_app/internal/middleware"
	"github.com/edusuite/school_finance_app/internal/utils/finmath"
	"github.com/shopspring/decimal"
)

const feeIncomeCategory = "STUDENT_FEES"

// feeService tracks student fee receivables: billing with waiver snapshots,
// partial payments against the remaining balance, and cancellation.
type feeService struct {
	feeRepo     portsrepo.FeeRepositoryFacade
	txnRepo     portsrepo.TransactionRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	sequenceSvc portssvc.SequenceSvcFacade
}

// NewFeeService creates a new FeeService.
func NewFeeService(feeRepo portsrepo.FeeRepositoryFacade, txnRepo portsrepo.TransactionRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, sequenceSvc portssvc.SequenceSvcFacade) portssvc.FeeSvcFacade {
	return &feeService{
		feeRepo:     feeRepo,
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		sequenceSvc: sequenceSvc,
	}
}

var _ portssvc.FeeSvcFacade = (*feeService)(nil)

// BillFee allocates a receipt number and creates the collection. Any waiver
// active for the fee type at billing time is snapshotted into the discount;
// later waiver changes never alter an existing collection.
func (s *feeService) BillFee(ctx context.Context, req dto.BillFeeRequest, creatorUserID string) (*domain.FeeCollection, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: fee amount must be positive", apperrors.ErrValidation)
	}
	if req.LateFee.IsNegative() {
		return nil, fmt.Errorf("%w: late fee cannot be negative", apperrors.ErrValidation)
	}

	billedOn := domain.DateOnly(time.Now())
	discount := decimal.Zero
	waivers, err := s.feeRepo.FindWaiversForStudent(ctx, req.StudentID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	for i := range waivers {
		if waivers[i].AppliesOn(req.FeeType, billedOn) {
			discount = discount.Add(waivers[i].DiscountOn(req.Amount))
		}
	}
	gross := req.Amount.Add(req.LateFee)
	if discount.GreaterThan(gross) {
		discount = gross
	}

	receiptNumber, err := s.sequenceSvc.NextDocNumber(ctx, docPrefixReceipt, time.Now())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	collection := domain.FeeCollection{
		CollectionID:  uuid.NewString(),
		ReceiptNumber: receiptNumber,
		Student:       domain.Payee{Kind: domain.PayeeStudent, ID: req.StudentID},
		FeeType:       req.FeeType,
		Month:         req.Month,
		Year:          req.Year,
		Amount:        req.Amount,
		LateFee:       req.LateFee,
		Discount:      discount,
		Total:         gross.Sub(discount),
		PaidAmount:    decimal.Zero,
		DueDate:       domain.DateOnly(req.DueDate),
		Status:        domain.FeePending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	collection.ReconcileStatus(domain.DateOnly(now))

	if err := s.feeRepo.SaveCollection(ctx, collection); err != nil {
		logger.Error("Failed to save fee collection", "error", err, "receipt_number", receiptNumber)
		return nil, err
	}

	logger.Info("Fee billed", "collection_id", collection.CollectionID, "receipt_number", receiptNumber, "total", collection.Total)
	return &collection, nil
}

// RecordPayment applies a ledger income transaction for the paid amount and
// rolls the collection's status forward. Overpayment is rejected before the
// repository is touched and again under the row lock inside it.
func (s *feeService) RecordPayment(ctx context.Context, collectionID string, req dto.RecordFeePaymentRequest, userID string) (*domain.FeeCollection, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}
	if _, err := requireActiveAccount(ctx, s.accountRepo, req.AccountID); err != nil {
		return nil, err
	}

	collection, err := s.feeRepo.FindCollectionByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if collection.Status == domain.FeeCancelled {
		return nil, fmt.Errorf("%w: collection %s is cancelled", apperrors.ErrConflict, collectionID)
	}
	if req.Amount.GreaterThan(collection.Remaining()) {
		return nil, fmt.Errorf("%w: payment %s exceeds remaining balance %s", apperrors.ErrConflict, req.Amount, collection.Remaining())
	}

	if req.IdempotencyKey != "" {
		existing, err := s.txnRepo.FindTransactionByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: idempotency key %s was already applied by transaction %s", apperrors.ErrDuplicate, req.IdempotencyKey, existing.TransactionID)
		}
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	docNumber, err := s.sequenceSvc.NextDocNumber(ctx, docPrefixReceipt, paymentDate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	txn := domain.LedgerTransaction{
		TransactionID:  uuid.NewString(),
		DocNumber:      docNumber,
		AccountID:      req.AccountID,
		Kind:           domain.Income,
		Category:       feeIncomeCategory,
		Amount:         req.Amount,
		TxnDate:        domain.DateOnly(paymentDate),
		Method:         req.Method,
		Reference:      collection.ReceiptNumber,
		Status:         domain.Posted,
		IdempotencyKey: req.IdempotencyKey,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if _, err := finmath.BalanceEffects(txn); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	updated, err := s.feeRepo.RecordPayment(ctx, collectionID, req.Amount, txn, domain.DateOnly(paymentDate))
	if err != nil {
		logger.Error("Failed to record fee payment", "error", err, "collection_id", collectionID)
		return nil, err
	}

	logger.Info("Fee payment recorded", "collection_id", collectionID, "amount", req.Amount, "status", updated.Status)
	return updated, nil
}

// CancelCollection cancels an unpaid collection. The receipt number stays
// burnt; billing again allocates a fresh one.
func (s *feeService) CancelCollection(ctx context.Context, collectionID string, userID string) (*domain.FeeCollection, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	cancelled, err := s.feeRepo.CancelCollection(ctx, collectionID, userID, time.Now())
	if err != nil {
		return nil, err
	}
	logger.Info("Fee collection cancelled", "collection_id", collectionID)
	return cancelled, nil
}

func (s *feeService) GetCollectionByID(ctx context.Context, collectionID string) (*domain.FeeCollection, error) {
	return s.feeRepo.FindCollectionByID(ctx, collectionID)
}

func (s *feeService) ListCollectionsByStudent(ctx context.Context, studentID string, limit int, offset int) ([]domain.FeeCollection, error) {
	return s.feeRepo.ListCollectionsByStudent(ctx, studentID, limit, offset)
}

func (s *feeService) ListDefaulters(ctx context.Context, asOf time.Time, limit int, offset int) ([]domain.FeeCollection, error) {
	return s.feeRepo.ListDefaulters(ctx, domain.DateOnly(asOf), limit, offset)
}

// CreateWaiver grants a student a discount for a validity window. Waivers
// only influence collections billed while they are active.
func (s *feeService) CreateWaiver(ctx context.Context, req dto.CreateWaiverRequest, creatorUserID string) (*domain.FeeWaiver, error) {
	if !req.Value.IsPositive() {
		return nil, fmt.Errorf("%w: waiver value must be positive", apperrors.ErrValidation)
	}
	if req.WaiverType == domain.WaiverPercentage && req.Value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: percentage waiver cannot exceed 100", apperrors.ErrValidation)
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		return nil, fmt.Errorf("%w: validUntil must be after validFrom", apperrors.ErrValidation)
	}

	now := time.Now()
	waiver := domain.FeeWaiver{
		WaiverID:   uuid.NewString(),
		Student:    domain.Payee{Kind: domain.PayeeStudent, ID: req.StudentID},
		FeeType:    req.FeeType,
		WaiverType: req.WaiverType,
		Value:      req.Value,
		ValidFrom:  domain.DateOnly(req.ValidFrom),
		ValidUntil: domain.DateOnly(req.ValidUntil),
		IsActive:   true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.feeRepo.SaveWaiver(ctx, waiver); err != nil {
		return nil, err
	}
	return &waiver, nil
}
