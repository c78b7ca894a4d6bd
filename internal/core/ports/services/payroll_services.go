package services

import (
	"context"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/edusuite/school_finance_app/internal/dto"
	"github.com/shopspring/decimal"
)

// PayrollSvcFacade computes and records salary disbursements with the
// provident fund split, plus the PF satellite ledger.
type PayrollSvcFacade interface {
	// PaySalary records one staff member's salary for a period. A second call
	// for the same (staff, month, year) is rejected with ErrConflict and
	// leaves the account balance unchanged.
	PaySalary(ctx context.Context, req dto.PaySalaryRequest, creatorUserID string) (*domain.SalaryPayment, error)
	// PayBulk runs PaySalary per item with per-item isolation: one conflict
	// never aborts payments already committed for others.
	PayBulk(ctx context.Context, req dto.PayBulkSalaryRequest, creatorUserID string) ([]dto.BulkSalaryResult, error)
	GetSalaryPayment(ctx context.Context, staffID string, month int, year int) (*domain.SalaryPayment, error)
	// RecordPFEntry records a standalone provident fund opening or withdrawal.
	RecordPFEntry(ctx context.Context, req dto.RecordPFEntryRequest, creatorUserID string) (*domain.ProvidentFundTransaction, error)
	// GetPFBalance returns the staff member's cumulative provident fund
	// balance, independent of account balances.
	GetPFBalance(ctx context.Context, staffID string) (decimal.Decimal, error)
}
