package repositories

import (
	"context"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FundRepositoryFacade persists investor funds, fund transactions, and staff
// welfare fund donations.
type FundRepositoryFacade interface {
	SaveFund(ctx context.Context, fund domain.Fund) error
	FindFundByID(ctx context.Context, fundID string) (*domain.Fund, error)
	ListFunds(ctx context.Context, limit int, offset int) ([]domain.Fund, error)

	// SaveFundTransaction inserts the fund transaction and its underlying
	// ledger transaction, applies the balance effect, and rolls the fund's
	// invested/withdrawn totals forward, as one unit.
	SaveFundTransaction(ctx context.Context, fundTxn domain.FundTransaction, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error
	ListFundTransactions(ctx context.Context, fundID string, limit int, offset int) ([]domain.FundTransaction, error)

	// SaveDonation inserts the welfare fund donation with its ledger credit.
	SaveDonation(ctx context.Context, donation domain.WelfareFundDonation, txn domain.LedgerTransaction, balanceChanges map[string]decimal.Decimal) error
	ListDonations(ctx context.Context, limit int, offset int) ([]domain.WelfareFundDonation, error)
}
