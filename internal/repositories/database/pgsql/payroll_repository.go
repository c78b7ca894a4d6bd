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

type PgxPayrollRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxPayrollRepository creates a new repository for salary payments and
// the provident fund ledger.
func newPgxPayrollRepository(pool DBPool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.PayrollRepositoryFacade {
	return &PgxPayrollRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.PayrollRepositoryFacade = (*PgxPayrollRepository)(nil)

const salaryColumns = `payment_id, doc_number, staff_id, month, year, base_salary, employee_pf, employer_pf, net_salary, total, account_id, txn_id, created_at, created_by, last_updated_at, last_updated_by`

func scanSalaryPayment(row pgx.Row) (*domain.SalaryPayment, error) {
	var p domain.SalaryPayment
	err := row.Scan(
		&p.PaymentID,
		&p.DocNumber,
		&p.StaffID,
		&p.Month,
		&p.Year,
		&p.BaseSalary,
		&p.EmployeePF,
		&p.EmployerPF,
		&p.NetSalary,
		&p.Total,
		&p.AccountID,
		&p.TxnID,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveSalaryPayment persists one salary disbursement as a single unit:
// salary row, provident fund contribution, ledger expense, balance debit.
// The unique index on (staff_id, month, year) makes a concurrent duplicate
// run fail the insert, which surfaces as ErrConflict with nothing committed.
func (r *PgxPayrollRepository) SaveSalaryPayment(ctx context.Context, payment domain.SalaryPayment, pfTxn domain.ProvidentFundTransaction, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, []string{payment.AccountID}); err != nil {
		return fmt.Errorf("failed to lock account for salary payment: %w", err)
	}

	// The ledger row goes in first: salary_payments.txn_id references it.
	if err := insertTransactionInTx(ctx, tx, txn); err != nil {
		return err
	}

	insertPayment := `
		INSERT INTO salary_payments (` + salaryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err = tx.Exec(ctx, insertPayment,
		payment.PaymentID,
		payment.DocNumber,
		payment.StaffID,
		payment.Month,
		payment.Year,
		payment.BaseSalary,
		payment.EmployeePF,
		payment.EmployerPF,
		payment.NetSalary,
		payment.Total,
		payment.AccountID,
		payment.TxnID,
		payment.CreatedAt,
		payment.CreatedBy,
		payment.LastUpdatedAt,
		payment.LastUpdatedBy,
	)
	if err != nil {
		if mapped := mapPgError(err); errors.Is(mapped, apperrors.ErrDuplicate) {
			return fmt.Errorf("%w: salary already paid to staff %s for %d/%d", apperrors.ErrConflict, payment.StaffID, payment.Month, payment.Year)
		}
		return fmt.Errorf("failed to insert salary payment %s: %w", payment.PaymentID, err)
	}

	if err := r.insertPFTransactionInTx(ctx, tx, pfTxn); err != nil {
		return err
	}
	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, txn.CreatedBy, txn.CreatedAt); err != nil {
		return fmt.Errorf("failed to update account balance for salary payment: %w", err)
	}
	return r.Commit(ctx, tx)
}

// FindSalaryPayment retrieves the payment for a staff member and period.
func (r *PgxPayrollRepository) FindSalaryPayment(ctx context.Context, staffID string, month int, year int) (*domain.SalaryPayment, error) {
	query := `SELECT ` + salaryColumns + ` FROM salary_payments WHERE staff_id = $1 AND month = $2 AND year = $3;`
	p, err := scanSalaryPayment(r.Pool.QueryRow(ctx, query, staffID, month, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find salary payment for staff %s %d/%d: %w", staffID, month, year, err)
	}
	return p, nil
}

// ListSalaryPaymentsByStaff lists a staff member's payments, newest first.
func (r *PgxPayrollRepository) ListSalaryPaymentsByStaff(ctx context.Context, staffID string, limit int, offset int) ([]domain.SalaryPayment, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT ` + salaryColumns + `
		FROM salary_payments
		WHERE staff_id = $1
		ORDER BY year DESC, month DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, staffID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query salary payments for staff %s: %w", staffID, err)
	}
	defer rows.Close()

	payments := []domain.SalaryPayment{}
	for rows.Next() {
		p, scanErr := scanSalaryPayment(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan salary payment row: %w", scanErr)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating salary payment rows: %w", err)
	}
	return payments, nil
}

func (r *PgxPayrollRepository) insertPFTransactionInTx(ctx context.Context, tx pgx.Tx, pfTxn domain.ProvidentFundTransaction) error {
	query := `
		INSERT INTO provident_fund_transactions (pf_txn_id, staff_id, type, employee_amount, employer_amount, month, year, salary_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := tx.Exec(ctx, query,
		pfTxn.PFTxnID,
		pfTxn.StaffID,
		pfTxn.Type,
		pfTxn.EmployeeAmount,
		pfTxn.EmployerAmount,
		pfTxn.Month,
		pfTxn.Year,
		pfTxn.SalaryID,
		pfTxn.CreatedAt,
		pfTxn.CreatedBy,
		pfTxn.LastUpdatedAt,
		pfTxn.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert PF transaction %s: %w", pfTxn.PFTxnID, mapPgError(err))
	}
	return nil
}

// SavePFTransaction records a standalone opening or withdrawal entry.
func (r *PgxPayrollRepository) SavePFTransaction(ctx context.Context, pfTxn domain.ProvidentFundTransaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)
	if err := r.insertPFTransactionInTx(ctx, tx, pfTxn); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// ListPFTransactionsByStaff lists a staff member's provident fund entries.
func (r *PgxPayrollRepository) ListPFTransactionsByStaff(ctx context.Context, staffID string) ([]domain.ProvidentFundTransaction, error) {
	query := `
		SELECT pf_txn_id, staff_id, type, employee_amount, employer_amount, month, year, salary_id, created_at, created_by, last_updated_at, last_updated_by
		FROM provident_fund_transactions
		WHERE staff_id = $1
		ORDER BY year, month, created_at;
	`
	rows, err := r.Pool.Query(ctx, query, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to query PF transactions for staff %s: %w", staffID, err)
	}
	defer rows.Close()

	entries := []domain.ProvidentFundTransaction{}
	for rows.Next() {
		var p domain.ProvidentFundTransaction
		if err := rows.Scan(
			&p.PFTxnID,
			&p.StaffID,
			&p.Type,
			&p.EmployeeAmount,
			&p.EmployerAmount,
			&p.Month,
			&p.Year,
			&p.SalaryID,
			&p.CreatedAt,
			&p.CreatedBy,
			&p.LastUpdatedAt,
			&p.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan PF transaction row: %w", err)
		}
		entries = append(entries, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating PF transaction rows: %w", err)
	}
	return entries, nil
}

// GetPFBalance sums the staff member's provident fund ledger: contributions
// and openings add, withdrawals subtract.
func (r *PgxPayrollRepository) GetPFBalance(ctx context.Context, staffID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE
				WHEN type = 'WITHDRAWAL' THEN -(employee_amount + employer_amount)
				ELSE employee_amount + employer_amount
			END
		), 0)
		FROM provident_fund_transactions
		WHERE staff_id = $1;
	`
	var balance decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, staffID).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum PF balance for staff %s: %w", staffID, err)
	}
	return balance, nil
}
