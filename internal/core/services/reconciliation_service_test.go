package services_test

import (
	"context"
	"testing"

	"github.com/edusuite/school_finance_app/internal/apperrors"
	"github.com/edusuite/school_finance_app/internal/core/domain"
	portssvc "github.com/edusuite/school_finance_app/internal/core/ports/services"
	"github.com/edusuite/school_finance_app/internal/core/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ReconciliationServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	mockTxnRepo     *MockTransactionRepository
	service         portssvc.ReconciliationSvcFacade
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.service = services.NewReconciliationService(suite.mockAccountRepo, suite.mockTxnRepo)
}

func (suite *ReconciliationServiceTestSuite) TestVerifyAccountBalance_Consistent() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID:      uuid.NewString(),
		OpeningBalance: decimal.NewFromInt(10000),
		Balance:        decimal.NewFromInt(12500),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()
	suite.mockTxnRepo.On("SumEffectsByAccount", ctx, account.AccountID).Return(decimal.NewFromInt(2500), nil).Once()

	resp, err := suite.service.VerifyAccountBalance(ctx, account.AccountID)

	suite.Require().NoError(err)
	suite.True(resp.Consistent)
	suite.True(resp.ComputedBalance.Equal(decimal.NewFromInt(12500)))
}

func (suite *ReconciliationServiceTestSuite) TestVerifyAccountBalance_Drift() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID:      uuid.NewString(),
		OpeningBalance: decimal.NewFromInt(10000),
		Balance:        decimal.NewFromInt(13000),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()
	suite.mockTxnRepo.On("SumEffectsByAccount", ctx, account.AccountID).Return(decimal.NewFromInt(2500), nil).Once()

	resp, err := suite.service.VerifyAccountBalance(ctx, account.AccountID)

	suite.Require().ErrorIs(err, apperrors.ErrIntegrity)
	suite.Require().NotNil(resp)
	suite.False(resp.Consistent)
	suite.True(resp.ComputedBalance.Equal(decimal.NewFromInt(12500)))
	suite.True(resp.StoredBalance.Equal(decimal.NewFromInt(13000)))
}

func TestReconciliationService(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}
