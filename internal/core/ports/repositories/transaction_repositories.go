package repositories

import (
	"context"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionRepositoryFacade persists ledger transactions and their balance
// effects as single atomic units of work.
type TransactionRepositoryFacade interface {
	// SaveTransaction inserts the transaction row and applies balanceChanges to
	// the touched accounts inside one database transaction with the account
	// rows locked. Nothing commits if any part fails.
	SaveTransaction(ctx context.Context, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error
	// SaveReversal inserts the reversing transaction, applies the inverted
	// balance effects, and flips the original row's status to REVERSED, all in
	// one database transaction. The original row is never edited otherwise.
	SaveReversal(ctx context.Context, reversing domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal, originalTxnID string) error
	FindTransactionByID(ctx context.Context, txnID string) (*domain.LedgerTransaction, error)
	// FindTransactionByIdempotencyKey returns the transaction previously
	// recorded under the given caller-supplied key, or ErrNotFound.
	FindTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.LedgerTransaction, error)
	// ListTransactionsByAccount returns transactions touching the account
	// (as owner or transfer counterpart), newest first, token-paginated.
	ListTransactionsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerTransaction, *string, error)
	// SumEffectsByAccount recomputes the signed sum of every committed
	// transaction touching the account, straight from the transaction log.
	SumEffectsByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
}
