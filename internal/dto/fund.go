package dto

import (
	"time"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateFundRequest registers an external investor fund.
type CreateFundRequest struct {
	InvestorName string `json:"investorName" binding:"required"`
	Description  string `json:"description"`
}

// FundTransactionRequest records an inflow or withdrawal against a fund.
type FundTransactionRequest struct {
	Type      domain.FundTransactionType `json:"type" binding:"required,oneof=INFLOW WITHDRAWAL"`
	Amount    decimal.Decimal            `json:"amount" binding:"required"`
	AccountID string                     `json:"accountID" binding:"required"`
	TxnDate   time.Time                  `json:"txnDate" binding:"required"`
	Reference string                     `json:"reference"`
}

// DonationRequest records a staff welfare fund donation.
type DonationRequest struct {
	DonorName string          `json:"donorName" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	AccountID string          `json:"accountID" binding:"required"`
	DonatedOn time.Time       `json:"donatedOn" binding:"required"`
	Note      string          `json:"note"`
}

// FundResponse is the API representation of an investor fund.
type FundResponse struct {
	FundID         string          `json:"fundID"`
	InvestorName   string          `json:"investorName"`
	Description    string          `json:"description"`
	TotalInvested  decimal.Decimal `json:"totalInvested"`
	TotalWithdrawn decimal.Decimal `json:"totalWithdrawn"`
	IsActive       bool            `json:"isActive"`
}

// ToFundResponse converts a domain fund.
func ToFundResponse(f *domain.Fund) FundResponse {
	return FundResponse{
		FundID:         f.FundID,
		InvestorName:   f.InvestorName,
		Description:    f.Description,
		TotalInvested:  f.TotalInvested,
		TotalWithdrawn: f.TotalWithdrawn,
		IsActive:       f.IsActive,
	}
}
