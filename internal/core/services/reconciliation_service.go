package services

import (
	"context"
	"fmt"

	"github.com/edusuite/school_finance_app/internal/apperrors"
	portsrepo "github.com/edusuite/school_finance_app/internal/core/ports/repositories"
	portssvc "github.com/edusuite/school_finance_app/internal/core/ports/services"
	"github.com/edusuite/school_finance_app/internal/dto"
	"github.com/edusuite/school_finance_app/internal/middleware"
)

// reconciliationService recomputes account balances from the transaction log
// and compares them against the stored running balance.
type reconciliationService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	txnRepo     portsrepo.TransactionRepositoryFacade
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(accountRepo portsrepo.AccountRepositoryFacade, txnRepo portsrepo.TransactionRepositoryFacade) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// VerifyAccountBalance checks that stored balance equals opening balance plus
// the signed sum of all committed transactions. A mismatch means a past write
// escaped the atomic path and is reported as ErrIntegrity alongside the
// figures, so operators can inspect the drift.
func (s *reconciliationService) VerifyAccountBalance(ctx context.Context, accountID string) (*dto.BalanceVerificationResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	effectSum, err := s.txnRepo.SumEffectsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	computed := account.OpeningBalance.Add(effectSum)
	resp := &dto.BalanceVerificationResponse{
		AccountID:       accountID,
		OpeningBalance:  account.OpeningBalance,
		StoredBalance:   account.Balance,
		ComputedBalance: computed,
		Consistent:      computed.Equal(account.Balance),
	}
	if !resp.Consistent {
		logger.Error("Account balance drift detected", "account_id", accountID, "stored", account.Balance, "computed", computed)
		return resp, fmt.Errorf("%w: account %s stored balance %s does not match computed %s", apperrors.ErrIntegrity, accountID, account.Balance, computed)
	}
	return resp, nil
}
