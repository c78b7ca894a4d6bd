package services

import (
	"context"

	"github.com/edusuite/school_finance_app/internal/dto"
)

// ReconciliationSvcFacade verifies the core balance invariant: for every
// account, stored balance == opening balance + signed sum of committed
// transactions. A mismatch is reported as ErrIntegrity.
type ReconciliationSvcFacade interface {
	VerifyAccountBalance(ctx context.Context, accountID string) (*dto.BalanceVerificationResponse, error)
}
