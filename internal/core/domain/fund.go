package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundTransactionType classifies external-investor fund movements.
type FundTransactionType string

const (
	FundInflow     FundTransactionType = "INFLOW"
	FundWithdrawal FundTransactionType = "WITHDRAWAL"
)

// Fund is an external investor whose money flows through school accounts.
type Fund struct {
	FundID        string          `json:"fundID"` // Primary key (UUID)
	InvestorName  string          `json:"investorName"`
	Description   string          `json:"description"`
	TotalInvested decimal.Decimal `json:"totalInvested"`
	TotalWithdrawn decimal.Decimal `json:"totalWithdrawn"`
	IsActive      bool            `json:"isActive"`
	AuditFields
}

// FundTransaction records one inflow or withdrawal against a fund, mirrored
// by a ledger transaction on the receiving or paying account.
type FundTransaction struct {
	FundTxnID string              `json:"fundTxnID"` // Primary key (UUID)
	FundID    string              `json:"fundID"`
	Type      FundTransactionType `json:"type"`
	Amount    decimal.Decimal     `json:"amount"`
	AccountID string              `json:"accountID"`
	TxnID     string              `json:"txnID"` // Underlying ledger transaction
	TxnDate   time.Time           `json:"txnDate"`
	Reference string              `json:"reference"`
	AuditFields
}

// WelfareFundDonation is a donation credited to the staff welfare fund
// account, the pool welfare loans are disbursed from.
type WelfareFundDonation struct {
	DonationID string          `json:"donationID"` // Primary key (UUID)
	DonorName  string          `json:"donorName"`
	Amount     decimal.Decimal `json:"amount"`
	AccountID  string          `json:"accountID"` // Welfare fund account
	TxnID      string          `json:"txnID"`
	DonatedOn  time.Time       `json:"donatedOn"`
	Note       string          `json:"note"`
	AuditFields
}
