package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/edusuite/school_finance_app/internal/apperrors"
	"github.com/edusuite/school_finance_app/internal/core/domain"
	portssvc "github.com/edusuite/school_finance_app/internal/core/ports/services"
	"github.com/edusuite/school_finance_app/internal/core/services"
	"github.com/edusuite/school_finance_app/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type LoanServiceTestSuite struct {
	suite.Suite
	mockLoanRepo    *MockLoanRepository
	mockTxnRepo     *MockTransactionRepository
	mockAccountRepo *MockAccountRepository
	mockSeqRepo     *MockSequenceRepository
	service         portssvc.LoanSvcFacade
	bankAccount     domain.Account
	staffID         string
	userID          string
}

func (suite *LoanServiceTestSuite) SetupTest() {
	suite.mockLoanRepo = new(MockLoanRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockSeqRepo = new(MockSequenceRepository)
	sequenceSvc := services.NewSequenceService(suite.mockSeqRepo, 3, time.Millisecond)
	suite.service = services.NewLoanService(suite.mockLoanRepo, suite.mockTxnRepo, suite.mockAccountRepo, sequenceSvc)

	suite.staffID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.bankAccount = domain.Account{
		AccountID:   uuid.NewString(),
		AccountType: domain.Bank,
		IsActive:    true,
	}
}

func (suite *LoanServiceTestSuite) activeLoan(principal decimal.Decimal) *domain.StaffWelfareLoan {
	return &domain.StaffWelfareLoan{
		LoanID:            uuid.NewString(),
		DocNumber:         "LON-20250901-1",
		StaffID:           suite.staffID,
		AccountID:         suite.bankAccount.AccountID,
		Principal:         principal,
		InstallmentCount:  3,
		TotalPaid:         decimal.Zero,
		RemainingAmount:   principal,
		Status:            domain.LoanActive,
		DisbursementTxnID: uuid.NewString(),
	}
}

func (suite *LoanServiceTestSuite) TestCreateLoan_ScheduleSumsToPrincipal() {
	ctx := context.Background()
	firstDue := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	req := dto.CreateLoanRequest{
		StaffID:              suite.staffID,
		AccountID:            suite.bankAccount.AccountID,
		Principal:            decimal.NewFromInt(10000),
		InstallmentCount:     3,
		LoanDate:             time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		FirstInstallmentDate: firstDue,
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockSeqRepo.On("Next", ctx, mock.AnythingOfType("string")).Return(int64(1), nil).Once()
	suite.mockLoanRepo.On("SaveLoan", ctx,
		mock.AnythingOfType("domain.StaffWelfareLoan"),
		mock.AnythingOfType("[]domain.LoanInstallment"),
		mock.AnythingOfType("domain.LedgerTransaction"),
		mock.AnythingOfType("map[string]decimal.Decimal"),
	).Run(func(args mock.Arguments) {
		loan := args.Get(1).(domain.StaffWelfareLoan)
		installments := args.Get(2).([]domain.LoanInstallment)
		effects := args.Get(4).(map[string]decimal.Decimal)

		suite.Require().Len(installments, 3)
		suite.True(installments[0].Amount.Equal(decimal.RequireFromString("3333.33")))
		suite.True(installments[1].Amount.Equal(decimal.RequireFromString("3333.33")))
		suite.True(installments[2].Amount.Equal(decimal.RequireFromString("3333.34")))

		sum := decimal.Zero
		for _, inst := range installments {
			sum = sum.Add(inst.Amount)
		}
		suite.True(sum.Equal(loan.Principal))

		// Monthly due dates from the first installment date.
		suite.Equal(firstDue, installments[0].DueDate)
		suite.Equal(firstDue.AddDate(0, 1, 0), installments[1].DueDate)
		suite.Equal(firstDue.AddDate(0, 2, 0), installments[2].DueDate)

		suite.True(effects[suite.bankAccount.AccountID].Equal(decimal.NewFromInt(-10000)))
	}).Return(nil).Once()

	loan, err := suite.service.CreateLoan(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(loan)
	suite.Equal(domain.LoanActive, loan.Status)
	suite.True(loan.RemainingAmount.Equal(decimal.NewFromInt(10000)))
	suite.mockLoanRepo.AssertExpectations(suite.T())
}

func (suite *LoanServiceTestSuite) TestPayInstallment_Success() {
	ctx := context.Background()
	loan := suite.activeLoan(decimal.NewFromInt(10000))
	installment := &domain.LoanInstallment{
		InstallmentID: uuid.NewString(),
		LoanID:        loan.LoanID,
		Number:        1,
		Amount:        decimal.RequireFromString("3333.33"),
		Status:        domain.InstallmentPending,
	}
	paid := *installment
	paid.Status = domain.InstallmentPaid
	updatedLoan := *loan
	updatedLoan.TotalPaid = installment.Amount
	updatedLoan.RemainingAmount = loan.Principal.Sub(installment.Amount)

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockLoanRepo.On("FindInstallmentByID", ctx, installment.InstallmentID).Return(installment, nil).Once()
	suite.mockSeqRepo.On("Next", ctx, mock.AnythingOfType("string")).Return(int64(4), nil).Once()
	suite.mockLoanRepo.On("PayInstallment", ctx, installment.InstallmentID,
		mock.AnythingOfType("domain.LedgerTransaction"),
		mock.AnythingOfType("map[string]decimal.Decimal"),
		mock.AnythingOfType("time.Time"),
		"CASH",
	).Run(func(args mock.Arguments) {
		txn := args.Get(2).(domain.LedgerTransaction)
		effects := args.Get(3).(map[string]decimal.Decimal)
		suite.Equal(domain.Income, txn.Kind)
		suite.True(txn.Amount.Equal(installment.Amount))
		suite.True(effects[suite.bankAccount.AccountID].Equal(installment.Amount))
	}).Return(&paid, &updatedLoan, nil).Once()

	gotInstallment, gotLoan, err := suite.service.PayInstallment(ctx, installment.InstallmentID, dto.PayInstallmentRequest{
		AccountID: suite.bankAccount.AccountID,
		Method:    "CASH",
	}, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.InstallmentPaid, gotInstallment.Status)
	suite.True(gotLoan.TotalPaid.Equal(installment.Amount))
	suite.mockLoanRepo.AssertExpectations(suite.T())
}

func (suite *LoanServiceTestSuite) TestPayInstallment_AlreadyPaid() {
	ctx := context.Background()
	installment := &domain.LoanInstallment{
		InstallmentID: uuid.NewString(),
		LoanID:        uuid.NewString(),
		Amount:        decimal.NewFromInt(500),
		Status:        domain.InstallmentPaid,
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockLoanRepo.On("FindInstallmentByID", ctx, installment.InstallmentID).Return(installment, nil).Once()

	_, _, err := suite.service.PayInstallment(ctx, installment.InstallmentID, dto.PayInstallmentRequest{
		AccountID: suite.bankAccount.AccountID,
		Method:    "CASH",
	}, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrConflict)
	suite.mockLoanRepo.AssertNotCalled(suite.T(), "PayInstallment")
}

func (suite *LoanServiceTestSuite) TestCancelLoan_RestoresBalance() {
	ctx := context.Background()
	loan := suite.activeLoan(decimal.NewFromInt(10000))
	disbursement := &domain.LedgerTransaction{
		TransactionID: loan.DisbursementTxnID,
		AccountID:     suite.bankAccount.AccountID,
		Kind:          domain.Expense,
		Amount:        loan.Principal,
		Status:        domain.Posted,
	}
	cancelled := *loan
	cancelled.Status = domain.LoanCancelled
	cancelled.RemainingAmount = decimal.Zero

	suite.mockLoanRepo.On("FindLoanByID", ctx, loan.LoanID).Return(loan, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, loan.DisbursementTxnID).Return(disbursement, nil).Once()
	suite.mockSeqRepo.On("Next", ctx, mock.AnythingOfType("string")).Return(int64(6), nil).Once()
	suite.mockLoanRepo.On("CancelLoan", ctx, loan.LoanID,
		mock.AnythingOfType("domain.LedgerTransaction"),
		mock.AnythingOfType("map[string]decimal.Decimal"),
	).Run(func(args mock.Arguments) {
		effects := args.Get(3).(map[string]decimal.Decimal)
		// The reversal credits the disbursed principal back.
		suite.True(effects[suite.bankAccount.AccountID].Equal(decimal.NewFromInt(10000)))
	}).Return(&cancelled, nil).Once()

	got, err := suite.service.CancelLoan(ctx, loan.LoanID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.LoanCancelled, got.Status)
	suite.mockLoanRepo.AssertExpectations(suite.T())
}

func (suite *LoanServiceTestSuite) TestCancelLoan_WithRepayments() {
	ctx := context.Background()
	loan := suite.activeLoan(decimal.NewFromInt(10000))
	loan.TotalPaid = decimal.RequireFromString("3333.33")

	suite.mockLoanRepo.On("FindLoanByID", ctx, loan.LoanID).Return(loan, nil).Once()

	_, err := suite.service.CancelLoan(ctx, loan.LoanID, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrConflict)
	suite.mockLoanRepo.AssertNotCalled(suite.T(), "CancelLoan")
}

func (suite *LoanServiceTestSuite) TestUpdateLoan_ScheduleOnlyChange() {
	ctx := context.Background()
	loan := suite.activeLoan(decimal.NewFromInt(9000))
	newCount := 6

	suite.mockLoanRepo.On("FindLoanByID", ctx, loan.LoanID).Return(loan, nil).Once()
	suite.mockLoanRepo.On("ReplaceLoanTerms", ctx,
		mock.AnythingOfType("domain.StaffWelfareLoan"),
		mock.AnythingOfType("[]domain.LoanInstallment"),
		(*domain.LedgerTransaction)(nil),
		(*domain.LedgerTransaction)(nil),
		map[string]decimal.Decimal(nil),
	).Run(func(args mock.Arguments) {
		installments := args.Get(2).([]domain.LoanInstallment)
		suite.Require().Len(installments, 6)
		suite.True(installments[0].Amount.Equal(decimal.NewFromInt(1500)))
	}).Return(nil).Once()

	updated, err := suite.service.UpdateLoan(ctx, loan.LoanID, dto.UpdateLoanRequest{
		InstallmentCount: &newCount,
	}, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(6, updated.InstallmentCount)
	// No ledger adjustment for a pure schedule change.
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "FindTransactionByID")
	suite.mockLoanRepo.AssertExpectations(suite.T())
}

func TestLoanService(t *testing.T) {
	suite.Run(t, new(LoanServiceTestSuite))
}
