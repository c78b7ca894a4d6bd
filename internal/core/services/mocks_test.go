package services_test

import (
	"context"
	"time"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	portsrepo "github.com/edusuite/school_finance_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, balanceChanges, userID, now)
	return args.Error(0)
}

// --- Mock TransactionRepository ---
type MockTransactionRepository struct {
	mock.Mock
}

var _ portsrepo.TransactionRepositoryFacade = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error {
	args := m.Called(ctx, txn, balanceChanges)
	return args.Error(0)
}

func (m *MockTransactionRepository) SaveReversal(ctx context.Context, reversing domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal, originalTxnID string) error {
	args := m.Called(ctx, reversing, balanceChanges, originalTxnID)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, txnID string) (*domain.LedgerTransaction, error) {
	args := m.Called(ctx, txnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerTransaction), args.Error(1)
}

func (m *MockTransactionRepository) FindTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.LedgerTransaction, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerTransaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactionsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerTransaction, *string, error) {
	args := m.Called(ctx, accountID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.LedgerTransaction), returnedNextToken, args.Error(2)
}

func (m *MockTransactionRepository) SumEffectsByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock SequenceRepository ---
type MockSequenceRepository struct {
	mock.Mock
}

var _ portsrepo.SequenceRepositoryFacade = (*MockSequenceRepository)(nil)

func (m *MockSequenceRepository) Next(ctx context.Context, scopeKey string) (int64, error) {
	args := m.Called(ctx, scopeKey)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock FeeRepository ---
type MockFeeRepository struct {
	mock.Mock
}

var _ portsrepo.FeeRepositoryFacade = (*MockFeeRepository)(nil)

func (m *MockFeeRepository) SaveCollection(ctx context.Context, collection domain.FeeCollection) error {
	args := m.Called(ctx, collection)
	return args.Error(0)
}

func (m *MockFeeRepository) FindCollectionByID(ctx context.Context, collectionID string) (*domain.FeeCollection, error) {
	args := m.Called(ctx, collectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeCollection), args.Error(1)
}

func (m *MockFeeRepository) ListCollectionsByStudent(ctx context.Context, studentID string, limit int, offset int) ([]domain.FeeCollection, error) {
	args := m.Called(ctx, studentID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeeCollection), args.Error(1)
}

func (m *MockFeeRepository) ListDefaulters(ctx context.Context, asOf time.Time, limit int, offset int) ([]domain.FeeCollection, error) {
	args := m.Called(ctx, asOf, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeeCollection), args.Error(1)
}

func (m *MockFeeRepository) RecordPayment(ctx context.Context, collectionID string, payment decimal.Decimal, txn domain.LedgerTransaction, asOf time.Time) (*domain.FeeCollection, error) {
	args := m.Called(ctx, collectionID, payment, txn, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeCollection), args.Error(1)
}

func (m *MockFeeRepository) CancelCollection(ctx context.Context, collectionID string, userID string, now time.Time) (*domain.FeeCollection, error) {
	args := m.Called(ctx, collectionID, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeCollection), args.Error(1)
}

func (m *MockFeeRepository) SaveWaiver(ctx context.Context, waiver domain.FeeWaiver) error {
	args := m.Called(ctx, waiver)
	return args.Error(0)
}

func (m *MockFeeRepository) FindWaiverByID(ctx context.Context, waiverID string) (*domain.FeeWaiver, error) {
	args := m.Called(ctx, waiverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeWaiver), args.Error(1)
}

func (m *MockFeeRepository) FindWaiversForStudent(ctx context.Context, studentID string) ([]domain.FeeWaiver, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeeWaiver), args.Error(1)
}

// --- Mock PayrollRepository ---
type MockPayrollRepository struct {
	mock.Mock
}

var _ portsrepo.PayrollRepositoryFacade = (*MockPayrollRepository)(nil)

func (m *MockPayrollRepository) SaveSalaryPayment(ctx context.Context, payment domain.SalaryPayment, pfTxn domain.ProvidentFundTransaction, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error {
	args := m.Called(ctx, payment, pfTxn, txn, balanceChanges)
	return args.Error(0)
}

func (m *MockPayrollRepository) FindSalaryPayment(ctx context.Context, staffID string, month int, year int) (*domain.SalaryPayment, error) {
	args := m.Called(ctx, staffID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SalaryPayment), args.Error(1)
}

func (m *MockPayrollRepository) ListSalaryPaymentsByStaff(ctx context.Context, staffID string, limit int, offset int) ([]domain.SalaryPayment, error) {
	args := m.Called(ctx, staffID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SalaryPayment), args.Error(1)
}

func (m *MockPayrollRepository) SavePFTransaction(ctx context.Context, pfTxn domain.ProvidentFundTransaction) error {
	args := m.Called(ctx, pfTxn)
	return args.Error(0)
}

func (m *MockPayrollRepository) ListPFTransactionsByStaff(ctx context.Context, staffID string) ([]domain.ProvidentFundTransaction, error) {
	args := m.Called(ctx, staffID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProvidentFundTransaction), args.Error(1)
}

func (m *MockPayrollRepository) GetPFBalance(ctx context.Context, staffID string) (decimal.Decimal, error) {
	args := m.Called(ctx, staffID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock LoanRepository ---
type MockLoanRepository struct {
	mock.Mock
}

var _ portsrepo.LoanRepositoryFacade = (*MockLoanRepository)(nil)

func (m *MockLoanRepository) SaveLoan(ctx context.Context, loan domain.StaffWelfareLoan, installments []domain.LoanInstallment, disbursement domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error {
	args := m.Called(ctx, loan, installments, disbursement, balanceChanges)
	return args.Error(0)
}

func (m *MockLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.StaffWelfareLoan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StaffWelfareLoan), args.Error(1)
}

func (m *MockLoanRepository) ListLoansByStaff(ctx context.Context, staffID string, limit int, offset int) ([]domain.StaffWelfareLoan, error) {
	args := m.Called(ctx, staffID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StaffWelfareLoan), args.Error(1)
}

func (m *MockLoanRepository) FindInstallmentByID(ctx context.Context, installmentID string) (*domain.LoanInstallment, error) {
	args := m.Called(ctx, installmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanInstallment), args.Error(1)
}

func (m *MockLoanRepository) ListInstallmentsByLoan(ctx context.Context, loanID string) ([]domain.LoanInstallment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LoanInstallment), args.Error(1)
}

func (m *MockLoanRepository) PayInstallment(ctx context.Context, installmentID string, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal, paidDate time.Time, method string) (*domain.LoanInstallment, *domain.StaffWelfareLoan, error) {
	args := m.Called(ctx, installmentID, txn, balanceChanges, paidDate, method)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.LoanInstallment), args.Get(1).(*domain.StaffWelfareLoan), args.Error(2)
}

func (m *MockLoanRepository) CancelLoan(ctx context.Context, loanID string, reversal domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) (*domain.StaffWelfareLoan, error) {
	args := m.Called(ctx, loanID, reversal, balanceChanges)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StaffWelfareLoan), args.Error(1)
}

func (m *MockLoanRepository) ReplaceLoanTerms(ctx context.Context, loan domain.StaffWelfareLoan, installments []domain.LoanInstallment, reversal *domain.LedgerTransaction, newDisbursement *domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error {
	args := m.Called(ctx, loan, installments, reversal, newDisbursement, balanceChanges)
	return args.Error(0)
}

// --- Mock FundRepository ---
type MockFundRepository struct {
	mock.Mock
}

var _ portsrepo.FundRepositoryFacade = (*MockFundRepository)(nil)

func (m *MockFundRepository) SaveFund(ctx context.Context, fund domain.Fund) error {
	args := m.Called(ctx, fund)
	return args.Error(0)
}

func (m *MockFundRepository) FindFundByID(ctx context.Context, fundID string) (*domain.Fund, error) {
	args := m.Called(ctx, fundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Fund), args.Error(1)
}

func (m *MockFundRepository) ListFunds(ctx context.Context, limit int, offset int) ([]domain.Fund, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Fund), args.Error(1)
}

func (m *MockFundRepository) SaveFundTransaction(ctx context.Context, fundTxn domain.FundTransaction, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error {
	args := m.Called(ctx, fundTxn, txn, balanceChanges)
	return args.Error(0)
}

func (m *MockFundRepository) ListFundTransactions(ctx context.Context, fundID string, limit int, offset int) ([]domain.FundTransaction, error) {
	args := m.Called(ctx, fundID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FundTransaction), args.Error(1)
}

func (m *MockFundRepository) SaveDonation(ctx context.Context, donation domain.WelfareFundDonation, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error {
	args := m.Called(ctx, donation, txn, balanceChanges)
	return args.Error(0)
}

func (m *MockFundRepository) ListDonations(ctx context.Context, limit int, offset int) ([]domain.WelfareFundDonation, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WelfareFundDonation), args.Error(1)
}
