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

const salaryExpenseCategory = "STAFF_SALARIES"

// payrollService computes and records salary disbursements with the provident
// fund split. The PF ledger is a satellite of the salary flow: contributions
// are written in the same unit as the payment, standalone openings and
// withdrawals through RecordPFEntry.
type payrollService struct {
	payrollRepo portsrepo.PayrollRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	sequenceSvc portssvc.SequenceSvcFacade
	pfRate      decimal.Decimal
}

// NewPayrollService creates a new PayrollService. pfRate is the configured
// provident fund rate applied when a request carries no override.
func NewPayrollService(payrollRepo portsrepo.PayrollRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, sequenceSvc portssvc.SequenceSvcFacade, pfRate decimal.Decimal) portssvc.PayrollSvcFacade {
	return &payrollService{
		payrollRepo: payrollRepo,
		accountRepo: accountRepo,
		sequenceSvc: sequenceSvc,
		pfRate:      pfRate,
	}
}

var _ portssvc.PayrollSvcFacade = (*payrollService)(nil)

// PaySalary records one staff member's salary for a period. The expense hits
// the account for base + employer PF; the employee share is withheld, so the
// net never reaches the ledger as a separate movement.
func (s *payrollService) PaySalary(ctx context.Context, req dto.PaySalaryRequest, creatorUserID string) (*domain.SalaryPayment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.BaseSalary.IsPositive() {
		return nil, fmt.Errorf("%w: base salary must be positive", apperrors.ErrValidation)
	}
	rate := s.pfRate
	if req.PFRate != nil {
		rate = *req.PFRate
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("%w: pf rate must be between 0 and 1", apperrors.ErrValidation)
		}
	}

	if _, err := requireActiveAccount(ctx, s.accountRepo, req.AccountID); err != nil {
		return nil, err
	}

	existing, err := s.payrollRepo.FindSalaryPayment(ctx, req.StaffID, req.Month, req.Year)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: salary already paid to staff %s for %d/%d", apperrors.ErrConflict, req.StaffID, req.Month, req.Year)
	}

	docNumber, err := s.sequenceSvc.NextDocNumber(ctx, docPrefixSalary, time.Now())
	if err != nil {
		return nil, err
	}

	employeePF, employerPF, net, total := finmath.PFSplit(req.BaseSalary, rate)

	now := time.Now()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     creatorUserID,
		LastUpdatedAt: now,
		LastUpdatedBy: creatorUserID,
	}
	txn := domain.LedgerTransaction{
		TransactionID: uuid.NewString(),
		DocNumber:     docNumber,
		AccountID:     req.AccountID,
		Kind:          domain.Expense,
		Category:      salaryExpenseCategory,
		Amount:        total,
		TxnDate:       domain.DateOnly(now),
		Reference:     fmt.Sprintf("%s %d/%d", req.StaffID, req.Month, req.Year),
		Status:        domain.Posted,
		AuditFields:   audit,
	}
	effects, err := finmath.BalanceEffects(txn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	payment := domain.SalaryPayment{
		PaymentID:   uuid.NewString(),
		DocNumber:   docNumber,
		StaffID:     req.StaffID,
		Month:       req.Month,
		Year:        req.Year,
		BaseSalary:  req.BaseSalary,
		EmployeePF:  employeePF,
		EmployerPF:  employerPF,
		NetSalary:   net,
		Total:       total,
		AccountID:   req.AccountID,
		TxnID:       txn.TransactionID,
		AuditFields: audit,
	}
	salaryID := payment.PaymentID
	pfTxn := domain.ProvidentFundTransaction{
		PFTxnID:        uuid.NewString(),
		StaffID:        req.StaffID,
		Type:           domain.PFContribution,
		EmployeeAmount: employeePF,
		EmployerAmount: employerPF,
		Month:          req.Month,
		Year:           req.Year,
		SalaryID:       &salaryID,
		AuditFields:    audit,
	}

	if err := s.payrollRepo.SaveSalaryPayment(ctx, payment, pfTxn, txn, effects); err != nil {
		logger.Error("Failed to save salary payment", "error", err, "staff_id", req.StaffID)
		return nil, err
	}

	logger.Info("Salary paid", "payment_id", payment.PaymentID, "staff_id", req.StaffID, "total", total)
	return &payment, nil
}

// PayBulk runs payroll over several staff members with per-item isolation:
// one failure is reported in its result slot and never rolls back the others.
func (s *payrollService) PayBulk(ctx context.Context, req dto.PayBulkSalaryRequest, creatorUserID string) ([]dto.BulkSalaryResult, error) {
	results := make([]dto.BulkSalaryResult, 0, len(req.Items))
	for _, item := range req.Items {
		result := dto.BulkSalaryResult{StaffID: item.StaffID}
		payment, err := s.PaySalary(ctx, dto.PaySalaryRequest{
			StaffID:    item.StaffID,
			Month:      req.Month,
			Year:       req.Year,
			BaseSalary: item.BaseSalary,
			AccountID:  req.AccountID,
			PFRate:     req.PFRate,
		}, creatorUserID)
		if err != nil {
			result.Error = err.Error()
		} else {
			resp := dto.ToSalaryPaymentResponse(payment)
			result.Payment = &resp
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *payrollService) GetSalaryPayment(ctx context.Context, staffID string, month int, year int) (*domain.SalaryPayment, error) {
	return s.payrollRepo.FindSalaryPayment(ctx, staffID, month, year)
}

// RecordPFEntry records a standalone provident fund opening or withdrawal.
// Withdrawals cannot exceed the staff member's accumulated balance.
func (s *payrollService) RecordPFEntry(ctx context.Context, req dto.RecordPFEntryRequest, creatorUserID string) (*domain.ProvidentFundTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.EmployeeAmount.IsNegative() || req.EmployerAmount.IsNegative() {
		return nil, fmt.Errorf("%w: PF amounts cannot be negative", apperrors.ErrValidation)
	}
	amount := req.EmployeeAmount.Add(req.EmployerAmount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: PF entry amount must be positive", apperrors.ErrValidation)
	}

	if req.Type == domain.PFWithdrawal {
		balance, err := s.payrollRepo.GetPFBalance(ctx, req.StaffID)
		if err != nil {
			return nil, err
		}
		if amount.GreaterThan(balance) {
			return nil, fmt.Errorf("%w: withdrawal %s exceeds PF balance %s", apperrors.ErrConflict, amount, balance)
		}
	}

	now := time.Now()
	pfTxn := domain.ProvidentFundTransaction{
		PFTxnID:        uuid.NewString(),
		StaffID:        req.StaffID,
		Type:           req.Type,
		EmployeeAmount: req.EmployeeAmount,
		EmployerAmount: req.EmployerAmount,
		Month:          req.Month,
		Year:           req.Year,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.payrollRepo.SavePFTransaction(ctx, pfTxn); err != nil {
		logger.Error("Failed to save PF entry", "error", err, "staff_id", req.StaffID)
		return nil, err
	}
	return &pfTxn, nil
}

func (s *payrollService) GetPFBalance(ctx context.Context, staffID string) (decimal.Decimal, error) {
	return s.payrollRepo.GetPFBalance(ctx, staffID)
}
