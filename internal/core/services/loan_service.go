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

const (
	loanExpenseCategory   = "STAFF_WELFARE_LOAN"
	loanRepaymentCategory = "LOAN_REPAYMENT"
)

// loanService amortizes staff welfare loans into equal monthly installments
// and tracks repayment. Loans are interest-free; the schedule always sums
// exactly to the principal.
type loanService struct {
	loanRepo    portsrepo.LoanRepositoryFacade
	txnRepo     portsrepo.TransactionRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	sequenceSvc portssvc.SequenceSvcFacade
}

// NewLoanService creates a new LoanService.
func NewLoanService(loanRepo portsrepo.LoanRepositoryFacade, txnRepo portsrepo.TransactionRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, sequenceSvc portssvc.SequenceSvcFacade) portssvc.LoanSvcFacade {
	return &loanService{
		loanRepo:    loanRepo,
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		sequenceSvc: sequenceSvc,
	}
}

var _ portssvc.LoanSvcFacade = (*loanService)(nil)

// buildSchedule amortizes a principal into monthly installments starting at
// firstDue. The last installment absorbs the rounding remainder.
func buildSchedule(loanID string, principal decimal.Decimal, count int, firstDue time.Time, audit domain.AuditFields) ([]domain.LoanInstallment, decimal.Decimal, error) {
	amounts, err := finmath.SplitPrincipal(principal, count)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	installments := make([]domain.LoanInstallment, count)
	for i, amount := range amounts {
		installments[i] = domain.LoanInstallment{
			InstallmentID: uuid.NewString(),
			LoanID:        loanID,
			Number:        i + 1,
			Amount:        amount,
			DueDate:       domain.DateOnly(firstDue.AddDate(0, i, 0)),
			Status:        domain.InstallmentPending,
			AuditFields:   audit,
		}
	}
	return installments, amounts[0], nil
}

// CreateLoan disburses a loan from the funding account and creates its
// installment schedule atomically.
func (s *loanService) CreateLoan(ctx context.Context, req dto.CreateLoanRequest, creatorUserID string) (*domain.StaffWelfareLoan, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive", apperrors.ErrValidation)
	}
	if req.InstallmentCount < 1 {
		return nil, fmt.Errorf("%w: installment count must be at least 1", apperrors.ErrValidation)
	}
	if _, err := requireActiveAccount(ctx, s.accountRepo, req.AccountID); err != nil {
		return nil, err
	}

	docNumber, err := s.sequenceSvc.NextDocNumber(ctx, docPrefixLoan, req.LoanDate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     creatorUserID,
		LastUpdatedAt: now,
		LastUpdatedBy: creatorUserID,
	}
	disbursement := domain.LedgerTransaction{
		TransactionID: uuid.NewString(),
		DocNumber:     docNumber,
		AccountID:     req.AccountID,
		Kind:          domain.Expense,
		Category:      loanExpenseCategory,
		Amount:        req.Principal,
		TxnDate:       domain.DateOnly(req.LoanDate),
		Reference:     req.StaffID,
		Status:        domain.Posted,
		AuditFields:   audit,
	}
	effects, err := finmath.BalanceEffects(disbursement)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	loanID := uuid.NewString()
	installments, installmentAmount, err := buildSchedule(loanID, req.Principal, req.InstallmentCount, req.FirstInstallmentDate, audit)
	if err != nil {
		return nil, err
	}

	loan := domain.StaffWelfareLoan{
		LoanID:               loanID,
		DocNumber:            docNumber,
		StaffID:              req.StaffID,
		AccountID:            req.AccountID,
		Principal:            req.Principal,
		InstallmentCount:     req.InstallmentCount,
		InstallmentAmount:    installmentAmount,
		TotalPaid:            decimal.Zero,
		RemainingAmount:      req.Principal,
		LoanDate:             domain.DateOnly(req.LoanDate),
		FirstInstallmentDate: domain.DateOnly(req.FirstInstallmentDate),
		Status:               domain.LoanActive,
		DisbursementTxnID:    disbursement.TransactionID,
		Reason:               req.Reason,
		AuditFields:          audit,
	}

	if err := s.loanRepo.SaveLoan(ctx, loan, installments, disbursement, effects); err != nil {
		logger.Error("Failed to save loan", "error", err, "staff_id", req.StaffID)
		return nil, err
	}

	logger.Info("Loan disbursed", "loan_id", loanID, "doc_number", docNumber, "principal", req.Principal)
	return &loan, nil
}

func (s *loanService) GetLoanByID(ctx context.Context, loanID string) (*domain.StaffWelfareLoan, []domain.LoanInstallment, error) {
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}
	installments, err := s.loanRepo.ListInstallmentsByLoan(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}
	return loan, installments, nil
}

func (s *loanService) ListLoansByStaff(ctx context.Context, staffID string, limit int, offset int) ([]domain.StaffWelfareLoan, error) {
	return s.loanRepo.ListLoansByStaff(ctx, staffID, limit, offset)
}

// PayInstallment settles one pending installment with an income transaction
// crediting the chosen account.
func (s *loanService) PayInstallment(ctx context.Context, installmentID string, req dto.PayInstallmentRequest, userID string) (*domain.LoanInstallment, *domain.StaffWelfareLoan, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := requireActiveAccount(ctx, s.accountRepo, req.AccountID); err != nil {
		return nil, nil, err
	}

	installment, err := s.loanRepo.FindInstallmentByID(ctx, installmentID)
	if err != nil {
		return nil, nil, err
	}
	if installment.Status != domain.InstallmentPending {
		return nil, nil, fmt.Errorf("%w: installment %s is already %s", apperrors.ErrConflict, installmentID, installment.Status)
	}

	if req.IdempotencyKey != "" {
		existing, err := s.txnRepo.FindTransactionByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, err
		}
		if existing != nil {
			return nil, nil, fmt.Errorf("%w: idempotency key %s was already applied by transaction %s", apperrors.ErrDuplicate, req.IdempotencyKey, existing.TransactionID)
		}
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	docNumber, err := s.sequenceSvc.NextDocNumber(ctx, docPrefixLoan, paymentDate)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	txn := domain.LedgerTransaction{
		TransactionID:  uuid.NewString(),
		DocNumber:      docNumber,
		AccountID:      req.AccountID,
		Kind:           domain.Income,
		Category:       loanRepaymentCategory,
		Amount:         installment.Amount,
		TxnDate:        domain.DateOnly(paymentDate),
		Method:         req.Method,
		Reference:      installment.LoanID,
		Status:         domain.Posted,
		IdempotencyKey: req.IdempotencyKey,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	effects, err := finmath.BalanceEffects(txn)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	paidInstallment, loan, err := s.loanRepo.PayInstallment(ctx, installmentID, txn, effects, domain.DateOnly(paymentDate), req.Method)
	if err != nil {
		logger.Error("Failed to pay installment", "error", err, "installment_id", installmentID)
		return nil, nil, err
	}

	logger.Info("Installment paid", "installment_id", installmentID, "loan_id", loan.LoanID, "loan_status", loan.Status)
	return paidInstallment, loan, nil
}

// CancelLoan reverses the disbursement and deletes the schedule. Only
// permitted while total paid is zero.
func (s *loanService) CancelLoan(ctx context.Context, loanID string, userID string) (*domain.StaffWelfareLoan, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanActive {
		return nil, fmt.Errorf("%w: loan %s is %s", apperrors.ErrConflict, loanID, loan.Status)
	}
	if !loan.TotalPaid.IsZero() {
		return nil, fmt.Errorf("%w: loan %s has recorded repayments and cannot be cancelled", apperrors.ErrConflict, loanID)
	}

	original, err := s.txnRepo.FindTransactionByID(ctx, loan.DisbursementTxnID)
	if err != nil {
		return nil, err
	}
	reversal, effects, err := buildReversal(ctx, s.sequenceSvc, original, userID)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.loanRepo.CancelLoan(ctx, loanID, *reversal, effects)
	if err != nil {
		logger.Error("Failed to cancel loan", "error", err, "loan_id", loanID)
		return nil, err
	}

	logger.Info("Loan cancelled", "loan_id", loanID, "reversal_txn_id", reversal.TransactionID)
	return cancelled, nil
}

// UpdateLoan edits the terms of a loan with no repayments. A principal change
// reverses the original disbursement and issues a fresh one; a pure schedule
// change only rebuilds installments.
func (s *loanService) UpdateLoan(ctx context.Context, loanID string, req dto.UpdateLoanRequest, userID string) (*domain.StaffWelfareLoan, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanActive {
		return nil, fmt.Errorf("%w: loan %s is %s", apperrors.ErrConflict, loanID, loan.Status)
	}
	if !loan.TotalPaid.IsZero() {
		return nil, fmt.Errorf("%w: loan %s has paid installments; terms cannot change", apperrors.ErrConflict, loanID)
	}

	principal := loan.Principal
	if req.Principal != nil {
		principal = *req.Principal
		if !principal.IsPositive() {
			return nil, fmt.Errorf("%w: principal must be positive", apperrors.ErrValidation)
		}
	}
	count := loan.InstallmentCount
	if req.InstallmentCount != nil {
		count = *req.InstallmentCount
		if count < 1 {
			return nil, fmt.Errorf("%w: installment count must be at least 1", apperrors.ErrValidation)
		}
	}
	firstDue := loan.FirstInstallmentDate
	if req.FirstInstallmentDate != nil {
		firstDue = domain.DateOnly(*req.FirstInstallmentDate)
	}

	now := time.Now()
	audit := domain.AuditFields{
		CreatedAt:     loan.CreatedAt,
		CreatedBy:     loan.CreatedBy,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}
	installments, installmentAmount, err := buildSchedule(loanID, principal, count, firstDue, domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	})
	if err != nil {
		return nil, err
	}

	updated := *loan
	updated.Principal = principal
	updated.InstallmentCount = count
	updated.InstallmentAmount = installmentAmount
	updated.RemainingAmount = principal
	updated.FirstInstallmentDate = firstDue
	updated.AuditFields = audit

	var reversal *domain.LedgerTransaction
	var newDisbursement *domain.LedgerTransaction
	var effects map[string]decimal.Decimal
	if !principal.Equal(loan.Principal) {
		original, err := s.txnRepo.FindTransactionByID(ctx, loan.DisbursementTxnID)
		if err != nil {
			return nil, err
		}
		rev, revEffects, err := buildReversal(ctx, s.sequenceSvc, original, userID)
		if err != nil {
			return nil, err
		}
		docNumber, err := s.sequenceSvc.NextDocNumber(ctx, docPrefixLoan, now)
		if err != nil {
			return nil, err
		}
		fresh := domain.LedgerTransaction{
			TransactionID: uuid.NewString(),
			DocNumber:     docNumber,
			AccountID:     loan.AccountID,
			Kind:          domain.Expense,
			Category:      loanExpenseCategory,
			Amount:        principal,
			TxnDate:       domain.DateOnly(now),
			Reference:     loan.StaffID,
			Status:        domain.Posted,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		freshEffects, err := finmath.BalanceEffects(fresh)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		// Net effect on the funding account: restore the old principal,
		// debit the new one.
		effects = map[string]decimal.Decimal{}
		for id, delta := range revEffects {
			effects[id] = effects[id].Add(delta)
		}
		for id, delta := range freshEffects {
			effects[id] = effects[id].Add(delta)
		}
		reversal = rev
		newDisbursement = &fresh
		updated.DisbursementTxnID = fresh.TransactionID
	}

	if err := s.loanRepo.ReplaceLoanTerms(ctx, updated, installments, reversal, newDisbursement, effects); err != nil {
		logger.Error("Failed to update loan", "error", err, "loan_id", loanID)
		return nil, err
	}

	logger.Info("Loan updated", "loan_id", loanID, "principal", principal, "installments", count)
	return &updated, nil
}
