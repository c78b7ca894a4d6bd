package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/edusuite/school_finance_app/internal/apperrors"
	"github.com/edusuite/school_finance_app/internal/core/domain"
	portsrepo "github.com/edusuite/school_finance_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgxFundRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxFundRepository creates a new repository for investor funds and
// welfare fund donations.
func newPgxFundRepository(pool DBPool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.FundRepositoryFacade {
	return &PgxFundRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.FundRepositoryFacade = (*PgxFundRepository)(nil)

const fundColumns = `fund_id, investor_name, description, total_invested, total_withdrawn, is_active, created_at, created_by, last_updated_at, last_updated_by`

func scanFund(row pgx.Row) (*domain.Fund, error) {
	var f domain.Fund
	err := row.Scan(
		&f.FundID,
		&f.InvestorName,
		&f.Description,
		&f.TotalInvested,
		&f.TotalWithdrawn,
		&f.IsActive,
		&f.CreatedAt,
		&f.CreatedBy,
		&f.LastUpdatedAt,
		&f.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// SaveFund persists a new investor fund.
func (r *PgxFundRepository) SaveFund(ctx context.Context, fund domain.Fund) error {
	query := `
		INSERT INTO funds (` + fundColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		fund.FundID,
		fund.InvestorName,
		fund.Description,
		fund.TotalInvested,
		fund.TotalWithdrawn,
		fund.IsActive,
		fund.CreatedAt,
		fund.CreatedBy,
		fund.LastUpdatedAt,
		fund.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fund %s: %w", fund.FundID, mapPgError(err))
	}
	return nil
}

// FindFundByID retrieves a single fund.
func (r *PgxFundRepository) FindFundByID(ctx context.Context, fundID string) (*domain.Fund, error) {
	query := `SELECT ` + fundColumns + ` FROM funds WHERE fund_id = $1;`
	fund, err := scanFund(r.Pool.QueryRow(ctx, query, fundID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find fund %s: %w", fundID, err)
	}
	return fund, nil
}

// ListFunds lists funds, active first, newest first within each group.
func (r *PgxFundRepository) ListFunds(ctx context.Context, limit int, offset int) ([]domain.Fund, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT ` + fundColumns + `
		FROM funds
		ORDER BY is_active DESC, created_at DESC
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query funds: %w", err)
	}
	defer rows.Close()

	funds := []domain.Fund{}
	for rows.Next() {
		fund, scanErr := scanFund(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan fund row: %w", scanErr)
		}
		funds = append(funds, *fund)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund rows: %w", err)
	}
	return funds, nil
}

// SaveFundTransaction records a fund inflow or withdrawal together with its
// ledger transaction and account balance change. The fund row is locked so
// the running totals stay consistent under concurrent entries.
func (r *PgxFundRepository) SaveFundTransaction(ctx context.Context, fundTxn domain.FundTransaction, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	lockQuery := `SELECT ` + fundColumns + ` FROM funds WHERE fund_id = $1 FOR UPDATE;`
	fund, err := scanFund(tx.QueryRow(ctx, lockQuery, fundTxn.FundID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock fund %s: %w", fundTxn.FundID, mapPgError(err))
	}
	if !fund.IsActive {
		return fmt.Errorf("%w: fund %s is inactive", apperrors.ErrConflict, fund.FundID)
	}

	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, []string{fundTxn.AccountID}); err != nil {
		return fmt.Errorf("failed to lock account for fund transaction: %w", err)
	}

	// The ledger row goes in first: fund_transactions.txn_id references it.
	if err := insertTransactionInTx(ctx, tx, txn); err != nil {
		return err
	}

	insertFundTxn := `
		INSERT INTO fund_transactions (fund_txn_id, fund_id, type, amount, account_id, txn_id, txn_date, reference, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = tx.Exec(ctx, insertFundTxn,
		fundTxn.FundTxnID,
		fundTxn.FundID,
		fundTxn.Type,
		fundTxn.Amount,
		fundTxn.AccountID,
		fundTxn.TxnID,
		fundTxn.TxnDate,
		fundTxn.Reference,
		fundTxn.CreatedAt,
		fundTxn.CreatedBy,
		fundTxn.LastUpdatedAt,
		fundTxn.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fund transaction %s: %w", fundTxn.FundTxnID, mapPgError(err))
	}

	var updateFund string
	if fundTxn.Type == domain.FundInflow {
		updateFund = `UPDATE funds SET total_invested = total_invested + $2, last_updated_at = $3, last_updated_by = $4 WHERE fund_id = $1;`
	} else {
		updateFund = `UPDATE funds SET total_withdrawn = total_withdrawn + $2, last_updated_at = $3, last_updated_by = $4 WHERE fund_id = $1;`
	}
	if _, err := tx.Exec(ctx, updateFund, fundTxn.FundID, fundTxn.Amount, fundTxn.LastUpdatedAt, fundTxn.LastUpdatedBy); err != nil {
		return fmt.Errorf("failed to update fund totals for %s: %w", fundTxn.FundID, mapPgError(err))
	}

	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, txn.CreatedBy, txn.CreatedAt); err != nil {
		return fmt.Errorf("failed to update account balance for fund transaction: %w", err)
	}
	return r.Commit(ctx, tx)
}

// ListFundTransactions lists a fund's entries, newest first.
func (r *PgxFundRepository) ListFundTransactions(ctx context.Context, fundID string, limit int, offset int) ([]domain.FundTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT fund_txn_id, fund_id, type, amount, account_id, txn_id, txn_date, reference, created_at, created_by, last_updated_at, last_updated_by
		FROM fund_transactions
		WHERE fund_id = $1
		ORDER BY txn_date DESC, created_at DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, fundID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund transactions for %s: %w", fundID, err)
	}
	defer rows.Close()

	entries := []domain.FundTransaction{}
	for rows.Next() {
		var ft domain.FundTransaction
		if err := rows.Scan(
			&ft.FundTxnID,
			&ft.FundID,
			&ft.Type,
			&ft.Amount,
			&ft.AccountID,
			&ft.TxnID,
			&ft.TxnDate,
			&ft.Reference,
			&ft.CreatedAt,
			&ft.CreatedBy,
			&ft.LastUpdatedAt,
			&ft.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fund transaction row: %w", err)
		}
		entries = append(entries, ft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund transaction rows: %w", err)
	}
	return entries, nil
}

// SaveDonation records a welfare fund donation with its income transaction
// and account credit.
func (r *PgxFundRepository) SaveDonation(ctx context.Context, donation domain.WelfareFundDonation, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, []string{donation.AccountID}); err != nil {
		return fmt.Errorf("failed to lock account for donation: %w", err)
	}

	// The ledger row goes in first: welfare_fund_donations.txn_id references it.
	if err := insertTransactionInTx(ctx, tx, txn); err != nil {
		return err
	}

	insertDonation := `
		INSERT INTO welfare_fund_donations (donation_id, donor_name, amount, account_id, txn_id, donated_on, note, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = tx.Exec(ctx, insertDonation,
		donation.DonationID,
		donation.DonorName,
		donation.Amount,
		donation.AccountID,
		donation.TxnID,
		donation.DonatedOn,
		donation.Note,
		donation.CreatedAt,
		donation.CreatedBy,
		donation.LastUpdatedAt,
		donation.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert donation %s: %w", donation.DonationID, mapPgError(err))
	}

	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, txn.CreatedBy, txn.CreatedAt); err != nil {
		return fmt.Errorf("failed to update account balance for donation: %w", err)
	}
	return r.Commit(ctx, tx)
}

// ListDonations lists welfare fund donations, newest first.
func (r *PgxFundRepository) ListDonations(ctx context.Context, limit int, offset int) ([]domain.WelfareFundDonation, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT donation_id, donor_name, amount, account_id, txn_id, donated_on, note, created_at, created_by, last_updated_at, last_updated_by
		FROM welfare_fund_donations
		ORDER BY donated_on DESC, created_at DESC
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query donations: %w", err)
	}
	defer rows.Close()

	donations := []domain.WelfareFundDonation{}
	for rows.Next() {
		var d domain.WelfareFundDonation
		if err := rows.Scan(
			&d.DonationID,
			&d.DonorName,
			&d.Amount,
			&d.AccountID,
			&d.TxnID,
			&d.DonatedOn,
			&d.Note,
			&d.CreatedAt,
			&d.CreatedBy,
			&d.LastUpdatedAt,
			&d.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan donation row: %w", err)
		}
		donations = append(donations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating donation rows: %w", err)
	}
	return donations, nil
}
