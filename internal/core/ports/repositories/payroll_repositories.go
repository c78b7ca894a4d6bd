package repositories

import (
	"context"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PayrollRepositoryFacade persists salary payments and the provident fund
// satellite ledger.
type PayrollRepositoryFacade interface {
	// SaveSalaryPayment inserts the salary payment, its provident fund
	// contribution entry, and the ledger expense transaction, and applies the
	// balance effect, all in one database transaction. A unique violation on
	// (staff_id, month, year) surfaces as ErrConflict with nothing persisted.
	SaveSalaryPayment(ctx context.Context, payment domain.SalaryPayment, pfTxn domain.ProvidentFundTransaction, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error
	FindSalaryPayment(ctx context.Context, staffID string, month int, year int) (*domain.SalaryPayment, error)
	ListSalaryPaymentsByStaff(ctx context.Context, staffID string, limit int, offset int) ([]domain.SalaryPayment, error)

	// SavePFTransaction records a standalone opening or withdrawal entry.
	SavePFTransaction(ctx context.Context, pfTxn domain.ProvidentFundTransaction) error
	ListPFTransactionsByStaff(ctx context.Context, staffID string) ([]domain.ProvidentFundTransaction, error)
	// GetPFBalance sums the staff member's provident fund ledger
	// (contributions and openings positive, withdrawals negative).
	GetPFBalance(ctx context.Context, staffID string) (decimal.Decimal, error)
}
