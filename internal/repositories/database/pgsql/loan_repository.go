package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edusuite/school_finance_app/internal/apperrors"
	"github.com/edusuite/school_finance_app/internal/core/domain"
	portsrepo "github.com/edusuite/school_finance_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgxLoanRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxLoanRepository creates a new repository for staff welfare loans.
func newPgxLoanRepository(pool DBPool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.LoanRepositoryFacade {
	return &PgxLoanRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.LoanRepositoryFacade = (*PgxLoanRepository)(nil)

const loanColumns = `loan_id, doc_number, staff_id, account_id, principal, installment_count, installment_amount, total_paid, remaining_amount, loan_date, first_installment_date, status, disbursement_txn_id, reason, created_at, created_by, last_updated_at, last_updated_by`

const installmentColumns = `installment_id, loan_id, number, amount, due_date, status, paid_date, payment_txn_id, payment_method, created_at, created_by, last_updated_at, last_updated_by`

func scanLoan(row pgx.Row) (*domain.StaffWelfareLoan, error) {
	var l domain.StaffWelfareLoan
	err := row.Scan(
		&l.LoanID,
		&l.DocNumber,
		&l.StaffID,
		&l.AccountID,
		&l.Principal,
		&l.InstallmentCount,
		&l.InstallmentAmount,
		&l.TotalPaid,
		&l.RemainingAmount,
		&l.LoanDate,
		&l.FirstInstallmentDate,
		&l.Status,
		&l.DisbursementTxnID,
		&l.Reason,
		&l.CreatedAt,
		&l.CreatedBy,
		&l.LastUpdatedAt,
		&l.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanInstallment(row pgx.Row) (*domain.LoanInstallment, error) {
	var inst domain.LoanInstallment
	var paymentTxnID *string
	var paymentMethod *string
	err := row.Scan(
		&inst.InstallmentID,
		&inst.LoanID,
		&inst.Number,
		&inst.Amount,
		&inst.DueDate,
		&inst.Status,
		&inst.PaidDate,
		&paymentTxnID,
		&paymentMethod,
		&inst.CreatedAt,
		&inst.CreatedBy,
		&inst.LastUpdatedAt,
		&inst.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if paymentTxnID != nil {
		inst.PaymentTxnID = paymentTxnID
	}
	if paymentMethod != nil {
		inst.PaymentMethod = *paymentMethod
	}
	return &inst, nil
}

func insertLoanInTx(ctx context.Context, tx pgx.Tx, loan domain.StaffWelfareLoan) error {
	query := `
		INSERT INTO staff_welfare_loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := tx.Exec(ctx, query,
		loan.LoanID,
		loan.DocNumber,
		loan.StaffID,
		loan.AccountID,
		loan.Principal,
		loan.InstallmentCount,
		loan.InstallmentAmount,
		loan.TotalPaid,
		loan.RemainingAmount,
		loan.LoanDate,
		loan.FirstInstallmentDate,
		loan.Status,
		loan.DisbursementTxnID,
		loan.Reason,
		loan.CreatedAt,
		loan.CreatedBy,
		loan.LastUpdatedAt,
		loan.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert loan %s: %w", loan.LoanID, mapPgError(err))
	}
	return nil
}

func insertInstallmentsInTx(ctx context.Context, tx pgx.Tx, installments []domain.LoanInstallment) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO loan_installments (` + installmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10, $11, $12, $13);
	`
	for _, inst := range installments {
		var paymentTxnID string
		if inst.PaymentTxnID != nil {
			paymentTxnID = *inst.PaymentTxnID
		}
		batch.Queue(query,
			inst.InstallmentID,
			inst.LoanID,
			inst.Number,
			inst.Amount,
			inst.DueDate,
			inst.Status,
			inst.PaidDate,
			paymentTxnID,
			inst.PaymentMethod,
			inst.CreatedAt,
			inst.CreatedBy,
			inst.LastUpdatedAt,
			inst.LastUpdatedBy,
		)
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for range installments {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert loan installment: %w", mapPgError(err))
		}
	}
	return nil
}

// SaveLoan persists the loan, its installment schedule, the disbursement
// transaction and the account debit as one unit.
func (r *PgxLoanRepository) SaveLoan(ctx context.Context, loan domain.StaffWelfareLoan, installments []domain.LoanInstallment, disbursement domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, []string{loan.AccountID}); err != nil {
		return fmt.Errorf("failed to lock account for loan disbursement: %w", err)
	}
	// Disbursement row first: staff_welfare_loans.disbursement_txn_id
	// references it.
	if err := insertTransactionInTx(ctx, tx, disbursement); err != nil {
		return err
	}
	if err := insertLoanInTx(ctx, tx, loan); err != nil {
		return err
	}
	if err := insertInstallmentsInTx(ctx, tx, installments); err != nil {
		return err
	}
	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, disbursement.CreatedBy, disbursement.CreatedAt); err != nil {
		return fmt.Errorf("failed to update account balance for loan disbursement: %w", err)
	}
	return r.Commit(ctx, tx)
}

// FindLoanByID retrieves a single loan.
func (r *PgxLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.StaffWelfareLoan, error) {
	query := `SELECT ` + loanColumns + ` FROM staff_welfare_loans WHERE loan_id = $1;`
	loan, err := scanLoan(r.Pool.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find loan %s: %w", loanID, err)
	}
	return loan, nil
}

// ListLoansByStaff lists a staff member's loans, newest first.
func (r *PgxLoanRepository) ListLoansByStaff(ctx context.Context, staffID string, limit int, offset int) ([]domain.StaffWelfareLoan, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT ` + loanColumns + `
		FROM staff_welfare_loans
		WHERE staff_id = $1
		ORDER BY loan_date DESC, created_at DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, staffID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans for staff %s: %w", staffID, err)
	}
	defer rows.Close()

	loans := []domain.StaffWelfareLoan{}
	for rows.Next() {
		loan, scanErr := scanLoan(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", scanErr)
		}
		loans = append(loans, *loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loan rows: %w", err)
	}
	return loans, nil
}

// FindInstallmentByID retrieves a single installment.
func (r *PgxLoanRepository) FindInstallmentByID(ctx context.Context, installmentID string) (*domain.LoanInstallment, error) {
	query := `SELECT ` + installmentColumns + ` FROM loan_installments WHERE installment_id = $1;`
	inst, err := scanInstallment(r.Pool.QueryRow(ctx, query, installmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find installment %s: %w", installmentID, err)
	}
	return inst, nil
}

// ListInstallmentsByLoan lists a loan's installments in schedule order.
func (r *PgxLoanRepository) ListInstallmentsByLoan(ctx context.Context, loanID string) ([]domain.LoanInstallment, error) {
	query := `SELECT ` + installmentColumns + ` FROM loan_installments WHERE loan_id = $1 ORDER BY number;`
	rows, err := r.Pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query installments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	installments := []domain.LoanInstallment{}
	for rows.Next() {
		inst, scanErr := scanInstallment(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan installment row: %w", scanErr)
		}
		installments = append(installments, *inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating installment rows: %w", err)
	}
	return installments, nil
}

// PayInstallment marks one pending installment paid and records the income
// transaction and account credit in the same database transaction. The
// installment and its loan are locked first so a double submit observes the
// PAID status and fails with ErrConflict.
func (r *PgxLoanRepository) PayInstallment(ctx context.Context, installmentID string, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal, paidDate time.Time, method string) (*domain.LoanInstallment, *domain.StaffWelfareLoan, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer r.Rollback(ctx, tx)

	lockQuery := `SELECT ` + installmentColumns + ` FROM loan_installments WHERE installment_id = $1 FOR UPDATE;`
	inst, err := scanInstallment(tx.QueryRow(ctx, lockQuery, installmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to lock installment %s: %w", installmentID, mapPgError(err))
	}
	if inst.Status != domain.InstallmentPending {
		return nil, nil, fmt.Errorf("%w: installment %s is already %s", apperrors.ErrConflict, installmentID, inst.Status)
	}

	loanLockQuery := `SELECT ` + loanColumns + ` FROM staff_welfare_loans WHERE loan_id = $1 FOR UPDATE;`
	loan, err := scanLoan(tx.QueryRow(ctx, loanLockQuery, inst.LoanID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock loan %s: %w", inst.LoanID, mapPgError(err))
	}
	if loan.Status != domain.LoanActive {
		return nil, nil, fmt.Errorf("%w: loan %s is %s", apperrors.ErrConflict, loan.LoanID, loan.Status)
	}

	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, []string{txn.AccountID}); err != nil {
		return nil, nil, fmt.Errorf("failed to lock account for installment payment: %w", err)
	}
	if err := insertTransactionInTx(ctx, tx, txn); err != nil {
		return nil, nil, err
	}

	updateInst := `
		UPDATE loan_installments
		SET status = $2, paid_date = $3, payment_txn_id = $4, payment_method = $5, last_updated_at = $6, last_updated_by = $7
		WHERE installment_id = $1;
	`
	if _, err := tx.Exec(ctx, updateInst, installmentID, domain.InstallmentPaid, paidDate, txn.TransactionID, method, txn.CreatedAt, txn.CreatedBy); err != nil {
		return nil, nil, fmt.Errorf("failed to update installment %s: %w", installmentID, mapPgError(err))
	}

	newTotalPaid := loan.TotalPaid.Add(inst.Amount)
	newRemaining := loan.RemainingAmount.Sub(inst.Amount)
	newStatus := loan.Status
	if newRemaining.IsZero() {
		newStatus = domain.LoanPaid
	}
	updateLoan := `
		UPDATE staff_welfare_loans
		SET total_paid = $2, remaining_amount = $3, status = $4, last_updated_at = $5, last_updated_by = $6
		WHERE loan_id = $1;
	`
	if _, err := tx.Exec(ctx, updateLoan, loan.LoanID, newTotalPaid, newRemaining, newStatus, txn.CreatedAt, txn.CreatedBy); err != nil {
		return nil, nil, fmt.Errorf("failed to update loan %s: %w", loan.LoanID, mapPgError(err))
	}

	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, txn.CreatedBy, txn.CreatedAt); err != nil {
		return nil, nil, fmt.Errorf("failed to update account balance for installment payment: %w", err)
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, nil, err
	}

	paid := *inst
	paid.Status = domain.InstallmentPaid
	paid.PaidDate = &paidDate
	txnID := txn.TransactionID
	paid.PaymentTxnID = &txnID
	paid.PaymentMethod = method
	loan.TotalPaid = newTotalPaid
	loan.RemainingAmount = newRemaining
	loan.Status = newStatus
	return &paid, loan, nil
}

// CancelLoan reverses the disbursement and removes the schedule. Only a loan
// with no recorded repayments can be cancelled.
func (r *PgxLoanRepository) CancelLoan(ctx context.Context, loanID string, reversal domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) (*domain.StaffWelfareLoan, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	lockQuery := `SELECT ` + loanColumns + ` FROM staff_welfare_loans WHERE loan_id = $1 FOR UPDATE;`
	loan, err := scanLoan(tx.QueryRow(ctx, lockQuery, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock loan %s: %w", loanID, mapPgError(err))
	}
	if loan.Status != domain.LoanActive {
		return nil, fmt.Errorf("%w: loan %s is %s", apperrors.ErrConflict, loanID, loan.Status)
	}
	if !loan.TotalPaid.IsZero() {
		return nil, fmt.Errorf("%w: loan %s has recorded repayments and cannot be cancelled", apperrors.ErrConflict, loanID)
	}

	if err := r.claimAndReverseDisbursementInTx(ctx, tx, loan.DisbursementTxnID, reversal, balanceChanges); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM loan_installments WHERE loan_id = $1;`, loanID); err != nil {
		return nil, fmt.Errorf("failed to delete installments for loan %s: %w", loanID, mapPgError(err))
	}

	updateLoan := `
		UPDATE staff_welfare_loans
		SET status = $2, remaining_amount = 0, last_updated_at = $3, last_updated_by = $4
		WHERE loan_id = $1;
	`
	if _, err := tx.Exec(ctx, updateLoan, loanID, domain.LoanCancelled, reversal.CreatedAt, reversal.CreatedBy); err != nil {
		return nil, fmt.Errorf("failed to update loan %s: %w", loanID, mapPgError(err))
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	loan.Status = domain.LoanCancelled
	loan.RemainingAmount = decimal.Zero
	return loan, nil
}

// ReplaceLoanTerms rewrites a loan in place: the old disbursement is reversed,
// the installment schedule replaced, and a fresh disbursement recorded when
// the principal changed. Pending-only schedules guard the replacement; a loan
// with paid installments cannot have its terms rewritten.
func (r *PgxLoanRepository) ReplaceLoanTerms(ctx context.Context, loan domain.StaffWelfareLoan, installments []domain.LoanInstallment, reversal *domain.LedgerTransaction, newDisbursement *domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	lockQuery := `SELECT ` + loanColumns + ` FROM staff_welfare_loans WHERE loan_id = $1 FOR UPDATE;`
	current, err := scanLoan(tx.QueryRow(ctx, lockQuery, loan.LoanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock loan %s: %w", loan.LoanID, mapPgError(err))
	}
	if current.Status != domain.LoanActive {
		return fmt.Errorf("%w: loan %s is %s", apperrors.ErrConflict, loan.LoanID, current.Status)
	}
	if !current.TotalPaid.IsZero() {
		return fmt.Errorf("%w: loan %s has paid installments; terms cannot change", apperrors.ErrConflict, loan.LoanID)
	}

	if reversal != nil && newDisbursement != nil {
		if err := r.claimAndReverseDisbursementInTx(ctx, tx, current.DisbursementTxnID, *reversal, nil); err != nil {
			return err
		}
		if err := insertTransactionInTx(ctx, tx, *newDisbursement); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM loan_installments WHERE loan_id = $1;`, loan.LoanID); err != nil {
		return fmt.Errorf("failed to delete installments for loan %s: %w", loan.LoanID, mapPgError(err))
	}
	if err := insertInstallmentsInTx(ctx, tx, installments); err != nil {
		return err
	}

	updateLoan := `
		UPDATE staff_welfare_loans
		SET account_id = $2, principal = $3, installment_count = $4, installment_amount = $5,
		    remaining_amount = $6, first_installment_date = $7, disbursement_txn_id = $8,
		    reason = $9, last_updated_at = $10, last_updated_by = $11
		WHERE loan_id = $1;
	`
	if _, err := tx.Exec(ctx, updateLoan,
		loan.LoanID,
		loan.AccountID,
		loan.Principal,
		loan.InstallmentCount,
		loan.InstallmentAmount,
		loan.RemainingAmount,
		loan.FirstInstallmentDate,
		loan.DisbursementTxnID,
		loan.Reason,
		loan.LastUpdatedAt,
		loan.LastUpdatedBy,
	); err != nil {
		return fmt.Errorf("failed to update loan %s: %w", loan.LoanID, mapPgError(err))
	}

	if len(balanceChanges) > 0 {
		if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, loan.LastUpdatedBy, loan.LastUpdatedAt); err != nil {
			return fmt.Errorf("failed to update account balances for loan %s: %w", loan.LoanID, err)
		}
	}
	return r.Commit(ctx, tx)
}

// claimAndReverseDisbursementInTx flips the original disbursement to REVERSED
// and inserts the reversing row. locks the touched accounts first when
// balance changes accompany the reversal.
func (r *PgxLoanRepository) claimAndReverseDisbursementInTx(ctx context.Context, tx pgx.Tx, originalTxnID string, reversal domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error {
	if len(balanceChanges) > 0 {
		ids := make([]string, 0, len(balanceChanges))
		for id := range balanceChanges {
			ids = append(ids, id)
		}
		if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, ids); err != nil {
			return fmt.Errorf("failed to lock accounts for disbursement reversal: %w", err)
		}
	}

	claim := `
		UPDATE ledger_transactions
		SET status = $2, reversing_txn_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE transaction_id = $1 AND status = $6;
	`
	tag, err := tx.Exec(ctx, claim, originalTxnID, domain.Reversed, reversal.TransactionID, reversal.CreatedAt, reversal.CreatedBy, domain.Posted)
	if err != nil {
		return fmt.Errorf("failed to reverse disbursement %s: %w", originalTxnID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: disbursement %s is not in POSTED status", apperrors.ErrConflict, originalTxnID)
	}
	if err := insertTransactionInTx(ctx, tx, reversal); err != nil {
		return err
	}
	if len(balanceChanges) > 0 {
		if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, reversal.CreatedBy, reversal.CreatedAt); err != nil {
			return fmt.Errorf("failed to update balances for disbursement reversal: %w", err)
		}
	}
	return nil
}
