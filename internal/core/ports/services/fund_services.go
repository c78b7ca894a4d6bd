package services

import (
	"context"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/edusuite/school_finance_app/internal/dto"
)

// FundSvcFacade tracks external-investor fund flows and welfare fund
// donations, delegating balance mechanics to the ledger primitives.
type FundSvcFacade interface {
	CreateFund(ctx context.Context, req dto.CreateFundRequest, creatorUserID string) (*domain.Fund, error)
	GetFundByID(ctx context.Context, fundID string) (*domain.Fund, error)
	ListFunds(ctx context.Context, limit int, offset int) ([]domain.Fund, error)
	// RecordFundTransaction records an inflow (income to the account) or a
	// withdrawal (expense from the account) against a fund.
	RecordFundTransaction(ctx context.Context, fundID string, req dto.FundTransactionRequest, userID string) (*domain.FundTransaction, error)
	ListFundTransactions(ctx context.Context, fundID string, limit int, offset int) ([]domain.FundTransaction, error)
	// RecordDonation credits a staff welfare fund donation to the given
	// account.
	RecordDonation(ctx context.Context, req dto.DonationRequest, userID string) (*domain.WelfareFundDonation, error)
}
