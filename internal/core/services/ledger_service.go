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

// Document number prefixes per transaction origin.
const (
	docPrefixTransaction = "TXN"
	docPrefixReversal    = "REV"
	docPrefixReceipt     = "RCT"
	docPrefixSalary      = "SAL"
	docPrefixLoan        = "LON"
	docPrefixFund        = "FND"
)

// ledgerService applies and reverses categorized balance mutations. It is the
// only writer of ledger transactions reachable from the API; the fee, payroll,
// loan and fund services compose their rows through the same repository
// primitives so every money movement obeys the same atomicity rules.
type ledgerService struct {
	txnRepo     portsrepo.TransactionRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	sequenceSvc portssvc.SequenceSvcFacade
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(txnRepo portsrepo.TransactionRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, sequenceSvc portssvc.SequenceSvcFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		sequenceSvc: sequenceSvc,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// ApplyTransaction validates the request, allocates a document number, and
// persists the transaction together with its balance effects.
func (s *ledgerService) ApplyTransaction(ctx context.Context, req dto.CreateTransactionRequest, creatorUserID string) (*domain.LedgerTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := requireActiveAccount(ctx, s.accountRepo, req.AccountID); err != nil {
		return nil, err
	}
	if req.Kind == domain.Transfer {
		if _, err := requireActiveAccount(ctx, s.accountRepo, req.CounterAccountID); err != nil {
			return nil, err
		}
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

	docNumber, err := s.sequenceSvc.NextDocNumber(ctx, docPrefixTransaction, req.TxnDate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	txn := domain.LedgerTransaction{
		TransactionID:    uuid.NewString(),
		DocNumber:        docNumber,
		AccountID:        req.AccountID,
		Kind:             req.Kind,
		Category:         req.Category,
		CounterAccountID: req.CounterAccountID,
		Amount:           req.Amount,
		TxnDate:          domain.DateOnly(req.TxnDate),
		Method:           req.Method,
		Reference:        req.Reference,
		Status:           domain.Posted,
		IdempotencyKey:   req.IdempotencyKey,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	effects, err := finmath.BalanceEffects(txn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	if err := s.txnRepo.SaveTransaction(ctx, txn, effects); err != nil {
		logger.Error("Failed to save transaction", "error", err, "doc_number", docNumber)
		return nil, err
	}

	logger.Info("Transaction applied", "transaction_id", txn.TransactionID, "doc_number", docNumber, "kind", txn.Kind)
	return &txn, nil
}

// ReverseTransaction creates a new transaction with the inverted balance
// effect, referencing the original. The original row is claimed atomically;
// a second reversal attempt fails with ErrConflict.
func (s *ledgerService) ReverseTransaction(ctx context.Context, txnID string, userID string) (*domain.LedgerTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.txnRepo.FindTransactionByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if original.Status == domain.Reversed {
		return nil, fmt.Errorf("%w: transaction %s is already reversed", apperrors.ErrConflict, txnID)
	}
	if original.IsReversal() {
		return nil, fmt.Errorf("%w: transaction %s is itself a reversal", apperrors.ErrConflict, txnID)
	}

	reversal, effects, err := buildReversal(ctx, s.sequenceSvc, original, userID)
	if err != nil {
		return nil, err
	}

	if err := s.txnRepo.SaveReversal(ctx, *reversal, effects, original.TransactionID); err != nil {
		logger.Error("Failed to save reversal", "error", err, "original_txn_id", txnID)
		return nil, err
	}

	logger.Info("Transaction reversed", "original_txn_id", txnID, "reversal_txn_id", reversal.TransactionID)
	return reversal, nil
}

func (s *ledgerService) GetTransactionByID(ctx context.Context, txnID string) (*domain.LedgerTransaction, error) {
	return s.txnRepo.FindTransactionByID(ctx, txnID)
}

func (s *ledgerService) ListTransactionsByAccount(ctx context.Context, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, err
	}
	txns, nextToken, err := s.txnRepo.ListTransactionsByAccount(ctx, accountID, params.Limit, params.NextToken)
	if err != nil {
		return nil, err
	}
	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    nextToken,
	}, nil
}

// buildReversal constructs the reversing row and its inverted balance effect
// for an original transaction. Shared with the loan service, which reverses
// disbursements inside its own repository transaction.
func buildReversal(ctx context.Context, sequenceSvc portssvc.SequenceSvcFacade, original *domain.LedgerTransaction, userID string) (*domain.LedgerTransaction, map[string]decimal.Decimal, error) {
	docNumber, err := sequenceSvc.NextDocNumber(ctx, docPrefixReversal, time.Now())
	if err != nil {
		return nil, nil, err
	}

	effects, err := finmath.BalanceEffects(*original)
	if err != nil {
		return nil, nil, fmt.Errorf("stored transaction %s fails effect computation: %w", original.TransactionID, apperrors.ErrIntegrity)
	}

	now := time.Now()
	originalID := original.TransactionID
	reversal := domain.LedgerTransaction{
		TransactionID:    uuid.NewString(),
		DocNumber:        docNumber,
		AccountID:        original.AccountID,
		Kind:             original.Kind,
		Category:         original.Category,
		CounterAccountID: original.CounterAccountID,
		Amount:           original.Amount,
		TxnDate:          domain.DateOnly(now),
		Method:           original.Method,
		Reference:        original.Reference,
		Status:           domain.Posted,
		OriginalTxnID:    &originalID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	return &reversal, finmath.InvertEffects(effects), nil
}
