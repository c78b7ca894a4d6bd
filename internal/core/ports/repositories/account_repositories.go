package repositories

import (
	"context"
	"time"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepositoryFacade combines account persistence with the in-transaction
// locking helpers other repositories need when they touch balances.
type AccountRepositoryFacade interface {
	AccountRepository
	AccountTxLocker
}

// AccountRepository persists accounts outside of any shared transaction.
type AccountRepository interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, account domain.Account) error
	DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error
}

// AccountTxLocker provides row-locked access to accounts inside a caller-owned
// pgx transaction. Every mutation that moves money locks the touched accounts
// through these methods so concurrent balance updates serialize.
type AccountTxLocker interface {
	// FindAccountsByIDsForUpdate locks the account rows with SELECT ... FOR UPDATE.
	// Returns ErrNotFound if any requested account is missing.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)
	// UpdateAccountBalancesInTx applies signed balance deltas to locked accounts.
	UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error
}
