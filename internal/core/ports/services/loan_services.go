package services

import (
	"context"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/edusuite/school_finance_app/internal/dto"
)

// LoanSvcFacade amortizes staff welfare loans into installment schedules and
// tracks repayment with cancellation/reversal semantics.
type LoanSvcFacade interface {
	// CreateLoan splits the principal into monthly installments (last absorbs
	// the rounding remainder) and disburses it from the funding account, all
	// in one atomic unit.
	CreateLoan(ctx context.Context, req dto.CreateLoanRequest, creatorUserID string) (*domain.StaffWelfareLoan, error)
	GetLoanByID(ctx context.Context, loanID string) (*domain.StaffWelfareLoan, []domain.LoanInstallment, error)
	ListLoansByStaff(ctx context.Context, staffID string, limit int, offset int) ([]domain.StaffWelfareLoan, error)
	// PayInstallment settles a pending installment, credits the chosen
	// account, and flips the loan to paid once every installment is settled.
	PayInstallment(ctx context.Context, installmentID string, req dto.PayInstallmentRequest, userID string) (*domain.LoanInstallment, *domain.StaffWelfareLoan, error)
	// CancelLoan reverses the disbursement and deletes the schedule. Only
	// permitted while nothing has been repaid; ErrConflict afterwards.
	CancelLoan(ctx context.Context, loanID string, userID string) (*domain.StaffWelfareLoan, error)
	// UpdateLoan edits the terms of a loan with no payments yet, rebuilding
	// the schedule and adjusting the disbursement when the principal changed.
	UpdateLoan(ctx context.Context, loanID string, req dto.UpdateLoanRequest, userID string) (*domain.StaffWelfareLoan, error)
}
