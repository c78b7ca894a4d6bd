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

type PayrollServiceTestSuite struct {
	suite.Suite
	mockPayrollRepo *MockPayrollRepository
	mockAccountRepo *MockAccountRepository
	mockSeqRepo     *MockSequenceRepository
	service         portssvc.PayrollSvcFacade
	bankAccount     domain.Account
	staffID         string
	userID          string
}

func (suite *PayrollServiceTestSuite) SetupTest() {
	suite.mockPayrollRepo = new(MockPayrollRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockSeqRepo = new(MockSequenceRepository)
	sequenceSvc := services.NewSequenceService(suite.mockSeqRepo, 3, time.Millisecond)
	suite.service = services.NewPayrollService(suite.mockPayrollRepo, suite.mockAccountRepo, sequenceSvc, decimal.RequireFromString("0.05"))

	suite.staffID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.bankAccount = domain.Account{
		AccountID:   uuid.NewString(),
		AccountType: domain.Bank,
		IsActive:    true,
	}
}

func (suite *PayrollServiceTestSuite) TestPaySalary_PFSplit() {
	ctx := context.Background()
	req := dto.PaySalaryRequest{
		StaffID:    suite.staffID,
		Month:      9,
		Year:       2025,
		BaseSalary: decimal.NewFromInt(50000),
		AccountID:  suite.bankAccount.AccountID,
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockPayrollRepo.On("FindSalaryPayment", ctx, suite.staffID, 9, 2025).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockSeqRepo.On("Next", ctx, mock.AnythingOfType("string")).Return(int64(2), nil).Once()
	suite.mockPayrollRepo.On("SaveSalaryPayment", ctx,
		mock.AnythingOfType("domain.SalaryPayment"),
		mock.AnythingOfType("domain.ProvidentFundTransaction"),
		mock.AnythingOfType("domain.LedgerTransaction"),
		mock.AnythingOfType("map[string]decimal.Decimal"),
	).Run(func(args mock.Arguments) {
		payment := args.Get(1).(domain.SalaryPayment)
		pfTxn := args.Get(2).(domain.ProvidentFundTransaction)
		txn := args.Get(3).(domain.LedgerTransaction)
		effects := args.Get(4).(map[string]decimal.Decimal)

		suite.True(payment.EmployeePF.Equal(decimal.NewFromInt(2500)))
		suite.True(payment.EmployerPF.Equal(decimal.NewFromInt(2500)))
		suite.True(payment.NetSalary.Equal(decimal.NewFromInt(47500)))
		suite.True(payment.Total.Equal(decimal.NewFromInt(52500)))

		suite.Equal(domain.PFContribution, pfTxn.Type)
		suite.Require().NotNil(pfTxn.SalaryID)
		suite.Equal(payment.PaymentID, *pfTxn.SalaryID)

		suite.Equal(domain.Expense, txn.Kind)
		suite.True(txn.Amount.Equal(decimal.NewFromInt(52500)))
		suite.True(effects[suite.bankAccount.AccountID].Equal(decimal.NewFromInt(-52500)))
	}).Return(nil).Once()

	payment, err := suite.service.PaySalary(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(payment)
	suite.mockPayrollRepo.AssertExpectations(suite.T())
}

func (suite *PayrollServiceTestSuite) TestPaySalary_DuplicatePeriod() {
	ctx := context.Background()
	existing := &domain.SalaryPayment{PaymentID: uuid.NewString(), StaffID: suite.staffID, Month: 9, Year: 2025}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockPayrollRepo.On("FindSalaryPayment", ctx, suite.staffID, 9, 2025).Return(existing, nil).Once()

	_, err := suite.service.PaySalary(ctx, dto.PaySalaryRequest{
		StaffID:    suite.staffID,
		Month:      9,
		Year:       2025,
		BaseSalary: decimal.NewFromInt(50000),
		AccountID:  suite.bankAccount.AccountID,
	}, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrConflict)
	suite.mockPayrollRepo.AssertNotCalled(suite.T(), "SaveSalaryPayment")
}

func (suite *PayrollServiceTestSuite) TestPayBulk_PerItemIsolation() {
	ctx := context.Background()
	otherStaffID := uuid.NewString()
	existing := &domain.SalaryPayment{PaymentID: uuid.NewString(), StaffID: suite.staffID, Month: 9, Year: 2025}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil)
	// First staff member already paid, second succeeds.
	suite.mockPayrollRepo.On("FindSalaryPayment", ctx, suite.staffID, 9, 2025).Return(existing, nil).Once()
	suite.mockPayrollRepo.On("FindSalaryPayment", ctx, otherStaffID, 9, 2025).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockSeqRepo.On("Next", ctx, mock.AnythingOfType("string")).Return(int64(9), nil).Once()
	suite.mockPayrollRepo.On("SaveSalaryPayment", ctx,
		mock.AnythingOfType("domain.SalaryPayment"),
		mock.AnythingOfType("domain.ProvidentFundTransaction"),
		mock.AnythingOfType("domain.LedgerTransaction"),
		mock.AnythingOfType("map[string]decimal.Decimal"),
	).Return(nil).Once()

	results, err := suite.service.PayBulk(ctx, dto.PayBulkSalaryRequest{
		Month:     9,
		Year:      2025,
		AccountID: suite.bankAccount.AccountID,
		Items: []dto.BulkSalaryItem{
			{StaffID: suite.staffID, BaseSalary: decimal.NewFromInt(40000)},
			{StaffID: otherStaffID, BaseSalary: decimal.NewFromInt(30000)},
		},
	}, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(results, 2)
	suite.NotEmpty(results[0].Error)
	suite.Nil(results[0].Payment)
	suite.Empty(results[1].Error)
	suite.Require().NotNil(results[1].Payment)
	suite.Equal(otherStaffID, results[1].Payment.StaffID)
	suite.mockPayrollRepo.AssertExpectations(suite.T())
}

func (suite *PayrollServiceTestSuite) TestRecordPFEntry_WithdrawalExceedsBalance() {
	ctx := context.Background()

	suite.mockPayrollRepo.On("GetPFBalance", ctx, suite.staffID).Return(decimal.NewFromInt(1000), nil).Once()

	_, err := suite.service.RecordPFEntry(ctx, dto.RecordPFEntryRequest{
		StaffID:        suite.staffID,
		Type:           domain.PFWithdrawal,
		EmployeeAmount: decimal.NewFromInt(900),
		EmployerAmount: decimal.NewFromInt(900),
		Month:          9,
		Year:           2025,
	}, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrConflict)
	suite.mockPayrollRepo.AssertNotCalled(suite.T(), "SavePFTransaction")
}

func (suite *PayrollServiceTestSuite) TestRecordPFEntry_Opening() {
	ctx := context.Background()

	suite.mockPayrollRepo.On("SavePFTransaction", ctx, mock.AnythingOfType("domain.ProvidentFundTransaction")).
		Run(func(args mock.Arguments) {
			pfTxn := args.Get(1).(domain.ProvidentFundTransaction)
			suite.Equal(domain.PFOpening, pfTxn.Type)
			suite.Nil(pfTxn.SalaryID)
		}).Return(nil).Once()

	entry, err := suite.service.RecordPFEntry(ctx, dto.RecordPFEntryRequest{
		StaffID:        suite.staffID,
		Type:           domain.PFOpening,
		EmployeeAmount: decimal.NewFromInt(12000),
		EmployerAmount: decimal.NewFromInt(12000),
		Month:          1,
		Year:           2025,
	}, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(entry)
	suite.mockPayrollRepo.AssertExpectations(suite.T())
}

func TestPayrollService(t *testing.T) {
	suite.Run(t, new(PayrollServiceTestSuite))
}
