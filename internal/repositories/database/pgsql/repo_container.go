package pgsql

import (
	portsrepo "github.com/edusuite/school_finance_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires all pgsql repositories against one pool.
// Repositories that move money share the account repository so balance locks
// go through a single code path.
func NewRepositoryProvider(pool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(pool)
	txnRepo := newPgxTransactionRepository(pool, accountRepo)
	return portsrepo.RepositoryProvider{
		AccountRepo:     accountRepo,
		TransactionRepo: txnRepo,
		SequenceRepo:    newPgxSequenceRepository(pool),
		FeeRepo:         newPgxFeeRepository(pool, accountRepo),
		PayrollRepo:     newPgxPayrollRepository(pool, accountRepo),
		LoanRepo:        newPgxLoanRepository(pool, accountRepo),
		FundRepo:        newPgxFundRepository(pool, accountRepo),
	}
}
