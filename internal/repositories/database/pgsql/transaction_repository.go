package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/edusuite/school_finance_app/internal/apperrors"
	"github.com/edusuite/school_finance_app/internal/core/domain"
	portsrepo "github.com/edusuite/school_finance_app/internal/core/ports/repositories"
	"github.com/edusuite/school_finance_app/internal/models"
	"github.com/edusuite/school_finance_app/internal/utils/mapping"
	"github.com/edusuite/school_finance_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgxTransactionRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxTransactionRepository creates a new repository for ledger transactions.
func newPgxTransactionRepository(pool DBPool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxTransactionRepository implements portsrepo.TransactionRepositoryFacade
var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

const transactionColumns = `transaction_id, doc_number, account_id, kind, category, counter_account_id, amount, txn_date, method, reference, status, original_txn_id, reversing_txn_id, idempotency_key, created_at, created_by, last_updated_at, last_updated_by`

// insertTransactionInTx inserts one ledger transaction row inside the
// caller's database transaction. Shared by every repository that records a
// money movement so all rows land in the same table the same way.
func insertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.LedgerTransaction) error {
	m := mapping.ToModelTransaction(txn)
	query := `
		INSERT INTO ledger_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12, $13, NULLIF($14, ''), $15, $16, $17, $18);
	`
	_, err := tx.Exec(ctx, query,
		m.TransactionID,
		m.DocNumber,
		m.AccountID,
		m.Kind,
		m.Category,
		m.CounterAccountID,
		m.Amount,
		m.TxnDate,
		m.Method,
		m.Reference,
		m.Status,
		m.OriginalTxnID,
		m.ReversingTxnID,
		m.IdempotencyKey,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", m.TransactionID, mapPgError(err))
	}
	return nil
}

func scanTransaction(row pgx.Row) (*models.LedgerTransaction, error) {
	var m models.LedgerTransaction
	var counterID, idemKey *string
	err := row.Scan(
		&m.TransactionID,
		&m.DocNumber,
		&m.AccountID,
		&m.Kind,
		&m.Category,
		&counterID,
		&m.Amount,
		&m.TxnDate,
		&m.Method,
		&m.Reference,
		&m.Status,
		&m.OriginalTxnID,
		&m.ReversingTxnID,
		&idemKey,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if counterID != nil {
		m.CounterAccountID = *counterID
	}
	if idemKey != nil {
		m.IdempotencyKey = *idemKey
	}
	return &m, nil
}

// SaveTransaction persists the transaction row and applies its balance
// effects inside one database transaction, with all touched account rows
// locked first.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	accountIDs := make([]string, 0, len(balanceChanges))
	for accID := range balanceChanges {
		accountIDs = append(accountIDs, accID)
	}
	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs); err != nil {
		return fmt.Errorf("failed to lock accounts for transaction %s: %w", txn.TransactionID, err)
	}
	if err := insertTransactionInTx(ctx, tx, txn); err != nil {
		return err
	}
	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, txn.CreatedBy, txn.CreatedAt); err != nil {
		return fmt.Errorf("failed to update account balances for transaction %s: %w", txn.TransactionID, err)
	}
	return r.Commit(ctx, tx)
}

// SaveReversal persists the reversing transaction, applies the inverted
// balance effects, and marks the original row REVERSED, all in one unit.
func (r *PgxTransactionRepository) SaveReversal(ctx context.Context, reversing domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal, originalTxnID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	accountIDs := make([]string, 0, len(balanceChanges))
	for accID := range balanceChanges {
		accountIDs = append(accountIDs, accID)
	}
	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs); err != nil {
		return fmt.Errorf("failed to lock accounts for reversal of %s: %w", originalTxnID, err)
	}

	// Claim the original while it is still POSTED; a concurrent reversal of
	// the same transaction loses this race and sees zero rows.
	claim := `
		UPDATE ledger_transactions
		SET status = $2, reversing_txn_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE transaction_id = $1 AND status = $6;
	`
	ct, err := tx.Exec(ctx, claim,
		originalTxnID,
		string(domain.Reversed),
		reversing.TransactionID,
		reversing.CreatedAt,
		reversing.CreatedBy,
		string(domain.Posted),
	)
	if err != nil {
		return fmt.Errorf("failed to mark transaction %s reversed: %w", originalTxnID, mapPgError(err))
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s is not posted", apperrors.ErrConflict, originalTxnID)
	}

	if err := insertTransactionInTx(ctx, tx, reversing); err != nil {
		return err
	}
	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, reversing.CreatedBy, reversing.CreatedAt); err != nil {
		return fmt.Errorf("failed to update account balances for reversal %s: %w", reversing.TransactionID, err)
	}
	return r.Commit(ctx, tx)
}

// FindTransactionByID retrieves a transaction by its ID.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, txnID string) (*domain.LedgerTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE transaction_id = $1;`
	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, txnID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by ID %s: %w", txnID, err)
	}
	txn := mapping.ToDomainTransaction(*m)
	return &txn, nil
}

// FindTransactionByIdempotencyKey retrieves the transaction recorded under a
// caller-supplied idempotency key, if any.
func (r *PgxTransactionRepository) FindTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.LedgerTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE idempotency_key = $1;`
	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by idempotency key: %w", err)
	}
	txn := mapping.ToDomainTransaction(*m)
	return &txn, nil
}

// ListTransactionsByAccount returns transactions touching the account as
// owner or transfer counterpart, newest first, token-paginated on
// (txn_date, created_at).
func (r *PgxTransactionRepository) ListTransactionsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerTransaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	base := `
		SELECT ` + transactionColumns + `
		FROM ledger_transactions
		WHERE (account_id = $1 OR counter_account_id = $1)
	`
	if nextToken != nil && *nextToken != "" {
		txnDate, createdAt, tokenErr := pagination.DecodeToken(*nextToken)
		if tokenErr != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, tokenErr.Error())
		}
		query := base + `
			AND (txn_date, created_at) < ($2, $3)
			ORDER BY txn_date DESC, created_at DESC
			LIMIT $4;
		`
		rows, err = r.Pool.Query(ctx, query, accountID, txnDate, createdAt, limit+1)
	} else {
		query := base + `
			ORDER BY txn_date DESC, created_at DESC
			LIMIT $2;
		`
		rows, err = r.Pool.Query(ctx, query, accountID, limit+1)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transactions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	transactions := []domain.LedgerTransaction{}
	for rows.Next() {
		m, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction row for account %s: %w", accountID, scanErr)
		}
		transactions = append(transactions, mapping.ToDomainTransaction(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating transaction rows for account %s: %w", accountID, err)
	}

	var token *string
	if len(transactions) > limit {
		transactions = transactions[:limit]
		last := transactions[limit-1]
		t := pagination.EncodeToken(last.TxnDate, last.CreatedAt)
		token = &t
	}
	return transactions, token, nil
}

// SumEffectsByAccount recomputes the signed sum of every committed
// transaction touching the account, straight from the transaction log.
// Reversal rows keep the kind of the row they undo and are flagged by
// original_txn_id, so their kind-derived effect is negated here.
func (r *PgxTransactionRepository) SumEffectsByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			(CASE WHEN original_txn_id IS NULL THEN 1 ELSE -1 END) *
			CASE
				WHEN account_id = $1 AND kind = 'INCOME' THEN amount
				WHEN account_id = $1 AND kind IN ('EXPENSE', 'ASSET_PURCHASE', 'TRANSFER') THEN -amount
				WHEN counter_account_id = $1 AND kind = 'TRANSFER' THEN amount
				ELSE 0
			END
		), 0)
		FROM ledger_transactions
		WHERE account_id = $1 OR counter_account_id = $1;
	`
	var sum decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transaction effects for account %s: %w", accountID, err)
	}
	return sum, nil
}
