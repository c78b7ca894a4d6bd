package repositories

import (
	"context"
	"time"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LoanRepositoryFacade persists staff welfare loans and their installment
// schedules. Every mutating method is one atomic database transaction.
type LoanRepositoryFacade interface {
	// SaveLoan inserts the loan, its full installment schedule, and the
	// disbursement transaction, and debits the funding account, as one unit.
	SaveLoan(ctx context.Context, loan domain.StaffWelfareLoan, installments []domain.LoanInstallment, disbursement domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error
	FindLoanByID(ctx context.Context, loanID string) (*domain.StaffWelfareLoan, error)
	ListLoansByStaff(ctx context.Context, staffID string, limit int, offset int) ([]domain.StaffWelfareLoan, error)
	FindInstallmentByID(ctx context.Context, installmentID string) (*domain.LoanInstallment, error)
	ListInstallmentsByLoan(ctx context.Context, loanID string) ([]domain.LoanInstallment, error)

	// PayInstallment locks the installment and its loan, verifies the
	// installment is still pending (ErrConflict otherwise), inserts the income
	// transaction with its balance effect, marks the installment paid, rolls
	// the loan's totals forward, and flips the loan to PAID once every
	// installment is settled. Returns the refreshed installment and loan.
	PayInstallment(ctx context.Context, installmentID string, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal, paidDate time.Time, method string) (*domain.LoanInstallment, *domain.StaffWelfareLoan, error)

	// CancelLoan locks the loan, verifies under the lock that total_paid is
	// zero (ErrConflict otherwise), inserts the reversal of the disbursement,
	// restores the funding account balance, deletes the installment schedule,
	// and sets the loan CANCELLED, as one unit.
	CancelLoan(ctx context.Context, loanID string, reversal domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) (*domain.StaffWelfareLoan, error)

	// ReplaceLoanTerms rewrites an unpaid loan's terms and schedule. When the
	// principal changed, reversal and newDisbursement adjust the ledger and
	// balanceChanges carries the net account effect; all three are zero-valued
	// for a pure schedule change. ErrConflict once any installment is paid.
	ReplaceLoanTerms(ctx context.Context, loan domain.StaffWelfareLoan, installments []domain.LoanInstallment, reversal *domain.LedgerTransaction, newDisbursement *domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error
}
