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

type LedgerServiceTestSuite struct {
	suite.Suite
	mockTxnRepo     *MockTransactionRepository
	mockAccountRepo *MockAccountRepository
	mockSeqRepo     *MockSequenceRepository
	service         portssvc.LedgerSvcFacade
	bankAccount     domain.Account
	cashAccount     domain.Account
	userID          string
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockSeqRepo = new(MockSequenceRepository)
	sequenceSvc := services.NewSequenceService(suite.mockSeqRepo, 3, time.Millisecond)
	suite.service = services.NewLedgerService(suite.mockTxnRepo, suite.mockAccountRepo, sequenceSvc)

	suite.userID = uuid.NewString()
	suite.bankAccount = domain.Account{
		AccountID:      uuid.NewString(),
		Name:           "School Bank",
		AccountType:    domain.Bank,
		OpeningBalance: decimal.NewFromInt(100000),
		Balance:        decimal.NewFromInt(100000),
		IsActive:       true,
	}
	suite.cashAccount = domain.Account{
		AccountID:   uuid.NewString(),
		Name:        "Office Cash",
		AccountType: domain.Cash,
		Balance:     decimal.NewFromInt(5000),
		IsActive:    true,
	}
}

func (suite *LedgerServiceTestSuite) TestApplyTransaction_Income() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		Kind:      domain.Income,
		AccountID: suite.bankAccount.AccountID,
		Amount:    decimal.NewFromInt(1500),
		TxnDate:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		Category:  "STUDENT_FEES",
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockSeqRepo.On("Next", ctx, "TXN-20250901").Return(int64(7), nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.LedgerTransaction"), mock.AnythingOfType("map[string]decimal.Decimal")).
		Run(func(args mock.Arguments) {
			txn := args.Get(1).(domain.LedgerTransaction)
			effects := args.Get(2).(map[string]decimal.Decimal)
			suite.Equal("TXN-20250901-7", txn.DocNumber)
			suite.Equal(domain.Posted, txn.Status)
			suite.True(effects[suite.bankAccount.AccountID].Equal(decimal.NewFromInt(1500)))
		}).Return(nil).Once()

	txn, err := suite.service.ApplyTransaction(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(txn)
	suite.Equal(suite.userID, txn.CreatedBy)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockSeqRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestApplyTransaction_TransferEffects() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		Kind:             domain.Transfer,
		AccountID:        suite.bankAccount.AccountID,
		CounterAccountID: suite.cashAccount.AccountID,
		Amount:           decimal.NewFromInt(2000),
		TxnDate:          time.Now(),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.cashAccount.AccountID).Return(&suite.cashAccount, nil).Once()
	suite.mockSeqRepo.On("Next", ctx, mock.AnythingOfType("string")).Return(int64(1), nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.LedgerTransaction"), mock.AnythingOfType("map[string]decimal.Decimal")).
		Run(func(args mock.Arguments) {
			effects := args.Get(2).(map[string]decimal.Decimal)
			suite.True(effects[suite.bankAccount.AccountID].Equal(decimal.NewFromInt(-2000)))
			suite.True(effects[suite.cashAccount.AccountID].Equal(decimal.NewFromInt(2000)))
		}).Return(nil).Once()

	_, err := suite.service.ApplyTransaction(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestApplyTransaction_InactiveAccount() {
	ctx := context.Background()
	inactive := suite.bankAccount
	inactive.IsActive = false

	suite.mockAccountRepo.On("FindAccountByID", ctx, inactive.AccountID).Return(&inactive, nil).Once()

	_, err := suite.service.ApplyTransaction(ctx, dto.CreateTransactionRequest{
		Kind:      domain.Income,
		AccountID: inactive.AccountID,
		Amount:    decimal.NewFromInt(10),
		TxnDate:   time.Now(),
	}, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrConflict)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction")
}

func (suite *LedgerServiceTestSuite) TestApplyTransaction_IdempotencyReplay() {
	ctx := context.Background()
	key := "pay-2025-09-001"
	existing := &domain.LedgerTransaction{TransactionID: uuid.NewString(), IdempotencyKey: key}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByIdempotencyKey", ctx, key).Return(existing, nil).Once()

	_, err := suite.service.ApplyTransaction(ctx, dto.CreateTransactionRequest{
		Kind:           domain.Income,
		AccountID:      suite.bankAccount.AccountID,
		Amount:         decimal.NewFromInt(500),
		TxnDate:        time.Now(),
		IdempotencyKey: key,
	}, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction")
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_Success() {
	ctx := context.Background()
	original := &domain.LedgerTransaction{
		TransactionID: uuid.NewString(),
		AccountID:     suite.bankAccount.AccountID,
		Kind:          domain.Expense,
		Amount:        decimal.NewFromInt(800),
		TxnDate:       time.Now(),
		Status:        domain.Posted,
	}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, original.TransactionID).Return(original, nil).Once()
	suite.mockSeqRepo.On("Next", ctx, mock.AnythingOfType("string")).Return(int64(3), nil).Once()
	suite.mockTxnRepo.On("SaveReversal", ctx, mock.AnythingOfType("domain.LedgerTransaction"), mock.AnythingOfType("map[string]decimal.Decimal"), original.TransactionID).
		Run(func(args mock.Arguments) {
			reversing := args.Get(1).(domain.LedgerTransaction)
			effects := args.Get(2).(map[string]decimal.Decimal)
			suite.Require().NotNil(reversing.OriginalTxnID)
			suite.Equal(original.TransactionID, *reversing.OriginalTxnID)
			// Expense debited the account; the reversal credits it back.
			suite.True(effects[suite.bankAccount.AccountID].Equal(decimal.NewFromInt(800)))
		}).Return(nil).Once()

	reversal, err := suite.service.ReverseTransaction(ctx, original.TransactionID, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(reversal)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_AlreadyReversed() {
	ctx := context.Background()
	original := &domain.LedgerTransaction{
		TransactionID: uuid.NewString(),
		Status:        domain.Reversed,
	}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, original.TransactionID).Return(original, nil).Once()

	_, err := suite.service.ReverseTransaction(ctx, original.TransactionID, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrConflict)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveReversal")
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_OfReversalRejected() {
	ctx := context.Background()
	originalID := uuid.NewString()
	reversalRow := &domain.LedgerTransaction{
		TransactionID: uuid.NewString(),
		Status:        domain.Posted,
		OriginalTxnID: &originalID,
	}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, reversalRow.TransactionID).Return(reversalRow, nil).Once()

	_, err := suite.service.ReverseTransaction(ctx, reversalRow.TransactionID, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrConflict)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveReversal")
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
