package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edusuite/school_finance_app/internal/apperrors"
	"github.com/edusuite/school_finance_app/internal/core/domain"
	portsrepo "github.com/edusuite/school_finance_app/internal/core/ports/repositories"
	"github.com/edusuite/school_finance_app/internal/utils/finmath"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgxFeeRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxFeeRepository creates a new repository for fee collections and waivers.
func newPgxFeeRepository(pool DBPool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.FeeRepositoryFacade {
	return &PgxFeeRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.FeeRepositoryFacade = (*PgxFeeRepository)(nil)

const feeColumns = `collection_id, receipt_number, student_id, fee_type, month, year, amount, late_fee, discount, total, paid_amount, due_date, status, last_txn_id, created_at, created_by, last_updated_at, last_updated_by`

func scanFeeCollection(row pgx.Row) (*domain.FeeCollection, error) {
	var c domain.FeeCollection
	var studentID string
	err := row.Scan(
		&c.CollectionID,
		&c.ReceiptNumber,
		&studentID,
		&c.FeeType,
		&c.Month,
		&c.Year,
		&c.Amount,
		&c.LateFee,
		&c.Discount,
		&c.Total,
		&c.PaidAmount,
		&c.DueDate,
		&c.Status,
		&c.LastTxnID,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	c.Student = domain.Payee{Kind: domain.PayeeStudent, ID: studentID}
	return &c, nil
}

// SaveCollection inserts a newly billed fee collection.
func (r *PgxFeeRepository) SaveCollection(ctx context.Context, c domain.FeeCollection) error {
	query := `
		INSERT INTO fee_collections (` + feeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := r.Pool.Exec(ctx, query,
		c.CollectionID,
		c.ReceiptNumber,
		c.Student.ID,
		c.FeeType,
		c.Month,
		c.Year,
		c.Amount,
		c.LateFee,
		c.Discount,
		c.Total,
		c.PaidAmount,
		c.DueDate,
		c.Status,
		c.LastTxnID,
		c.CreatedAt,
		c.CreatedBy,
		c.LastUpdatedAt,
		c.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save fee collection %s: %w", c.CollectionID, mapPgError(err))
	}
	return nil
}

// FindCollectionByID retrieves a fee collection by its ID.
func (r *PgxFeeRepository) FindCollectionByID(ctx context.Context, collectionID string) (*domain.FeeCollection, error) {
	query := `SELECT ` + feeColumns + ` FROM fee_collections WHERE collection_id = $1;`
	c, err := scanFeeCollection(r.Pool.QueryRow(ctx, query, collectionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find fee collection %s: %w", collectionID, err)
	}
	return c, nil
}

// ListCollectionsByStudent lists a student's collections, newest period first.
func (r *PgxFeeRepository) ListCollectionsByStudent(ctx context.Context, studentID string, limit int, offset int) ([]domain.FeeCollection, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT ` + feeColumns + `
		FROM fee_collections
		WHERE student_id = $1
		ORDER BY year DESC, month DESC, created_at DESC
		LIMIT $2 OFFSET $3;
	`
	return r.queryCollections(ctx, query, studentID, limit, offset)
}

// ListDefaulters returns unpaid, uncancelled collections past their due date.
func (r *PgxFeeRepository) ListDefaulters(ctx context.Context, asOf time.Time, limit int, offset int) ([]domain.FeeCollection, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT ` + feeColumns + `
		FROM fee_collections
		WHERE paid_amount < total
		  AND status NOT IN ('PAID', 'CANCELLED')
		  AND due_date < $1
		ORDER BY due_date, created_at
		LIMIT $2 OFFSET $3;
	`
	return r.queryCollections(ctx, query, domain.DateOnly(asOf), limit, offset)
}

func (r *PgxFeeRepository) queryCollections(ctx context.Context, query string, args ...any) ([]domain.FeeCollection, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee collections: %w", err)
	}
	defer rows.Close()

	collections := []domain.FeeCollection{}
	for rows.Next() {
		c, scanErr := scanFeeCollection(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan fee collection row: %w", scanErr)
		}
		collections = append(collections, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fee collection rows: %w", err)
	}
	return collections, nil
}

// RecordPayment applies one payment to a collection as a single unit of work.
// The collection row is locked before the remaining balance is checked, so a
// double-submit serializes and the loser sees the updated paid amount.
func (r *PgxFeeRepository) RecordPayment(ctx context.Context, collectionID string, payment decimal.Decimal, txn domain.LedgerTransaction, asOf time.Time) (*domain.FeeCollection, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	lockQuery := `SELECT ` + feeColumns + ` FROM fee_collections WHERE collection_id = $1 FOR UPDATE;`
	c, err := scanFeeCollection(tx.QueryRow(ctx, lockQuery, collectionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock fee collection %s: %w", collectionID, mapPgError(err))
	}

	if c.Status == domain.FeeCancelled {
		return nil, fmt.Errorf("%w: fee collection %s is cancelled", apperrors.ErrConflict, collectionID)
	}
	remaining := c.Remaining()
	if payment.GreaterThan(remaining) {
		return nil, fmt.Errorf("%w: payment %s exceeds remaining balance %s", apperrors.ErrConflict, payment.String(), remaining.String())
	}

	balanceChanges, err := finmath.BalanceEffects(txn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrIntegrity, err.Error())
	}
	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, []string{txn.AccountID}); err != nil {
		return nil, fmt.Errorf("failed to lock account for fee payment: %w", err)
	}
	if err := insertTransactionInTx(ctx, tx, txn); err != nil {
		return nil, err
	}
	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, txn.CreatedBy, txn.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to update account balance for fee payment: %w", err)
	}

	c.PaidAmount = c.PaidAmount.Add(payment)
	c.LastTxnID = &txn.TransactionID
	c.ReconcileStatus(asOf)
	c.LastUpdatedAt = txn.CreatedAt
	c.LastUpdatedBy = txn.CreatedBy

	update := `
		UPDATE fee_collections
		SET paid_amount = $2, status = $3, last_txn_id = $4, last_updated_at = $5, last_updated_by = $6
		WHERE collection_id = $1;
	`
	if _, err := tx.Exec(ctx, update, c.CollectionID, c.PaidAmount, c.Status, c.LastTxnID, c.LastUpdatedAt, c.LastUpdatedBy); err != nil {
		return nil, fmt.Errorf("failed to update fee collection %s: %w", collectionID, mapPgError(err))
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return c, nil
}

// CancelCollection cancels an unpaid collection under a row lock. The receipt
// number stays burned.
func (r *PgxFeeRepository) CancelCollection(ctx context.Context, collectionID string, userID string, now time.Time) (*domain.FeeCollection, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	lockQuery := `SELECT ` + feeColumns + ` FROM fee_collections WHERE collection_id = $1 FOR UPDATE;`
	c, err := scanFeeCollection(tx.QueryRow(ctx, lockQuery, collectionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock fee collection %s: %w", collectionID, mapPgError(err))
	}

	if c.Status == domain.FeeCancelled {
		return nil, fmt.Errorf("%w: fee collection %s is already cancelled", apperrors.ErrConflict, collectionID)
	}
	if c.PaidAmount.IsPositive() {
		return nil, fmt.Errorf("%w: fee collection %s has payments totalling %s", apperrors.ErrConflict, collectionID, c.PaidAmount.String())
	}

	c.Status = domain.FeeCancelled
	c.LastUpdatedAt = now
	c.LastUpdatedBy = userID

	update := `
		UPDATE fee_collections
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE collection_id = $1;
	`
	if _, err := tx.Exec(ctx, update, c.CollectionID, c.Status, c.LastUpdatedAt, c.LastUpdatedBy); err != nil {
		return nil, fmt.Errorf("failed to cancel fee collection %s: %w", collectionID, mapPgError(err))
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return c, nil
}

// SaveWaiver inserts a fee waiver.
func (r *PgxFeeRepository) SaveWaiver(ctx context.Context, w domain.FeeWaiver) error {
	query := `
		INSERT INTO fee_waivers (waiver_id, student_id, fee_type, waiver_type, value, valid_from, valid_until, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		w.WaiverID,
		w.Student.ID,
		w.FeeType,
		w.WaiverType,
		w.Value,
		w.ValidFrom,
		w.ValidUntil,
		w.IsActive,
		w.CreatedAt,
		w.CreatedBy,
		w.LastUpdatedAt,
		w.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save fee waiver %s: %w", w.WaiverID, mapPgError(err))
	}
	return nil
}

// FindWaiverByID retrieves a waiver by its ID.
func (r *PgxFeeRepository) FindWaiverByID(ctx context.Context, waiverID string) (*domain.FeeWaiver, error) {
	query := `
		SELECT waiver_id, student_id, fee_type, waiver_type, value, valid_from, valid_until, is_active, created_at, created_by, last_updated_at, last_updated_by
		FROM fee_waivers
		WHERE waiver_id = $1;
	`
	w, err := scanWaiver(r.Pool.QueryRow(ctx, query, waiverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find fee waiver %s: %w", waiverID, err)
	}
	return w, nil
}

func scanWaiver(row pgx.Row) (*domain.FeeWaiver, error) {
	var w domain.FeeWaiver
	var studentID string
	err := row.Scan(
		&w.WaiverID,
		&studentID,
		&w.FeeType,
		&w.WaiverType,
		&w.Value,
		&w.ValidFrom,
		&w.ValidUntil,
		&w.IsActive,
		&w.CreatedAt,
		&w.CreatedBy,
		&w.LastUpdatedAt,
		&w.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	w.Student = domain.Payee{Kind: domain.PayeeStudent, ID: studentID}
	return &w, nil
}

// FindWaiversForStudent returns the student's active waivers.
func (r *PgxFeeRepository) FindWaiversForStudent(ctx context.Context, studentID string) ([]domain.FeeWaiver, error) {
	query := `
		SELECT waiver_id, student_id, fee_type, waiver_type, value, valid_from, valid_until, is_active, created_at, created_by, last_updated_at, last_updated_by
		FROM fee_waivers
		WHERE student_id = $1 AND is_active = TRUE
		ORDER BY created_at;
	`
	rows, err := r.Pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query waivers for student %s: %w", studentID, err)
	}
	defer rows.Close()

	waivers := []domain.FeeWaiver{}
	for rows.Next() {
		w, scanErr := scanWaiver(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan waiver row: %w", scanErr)
		}
		waivers = append(waivers, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating waiver rows: %w", err)
	}
	return waivers, nil
}
