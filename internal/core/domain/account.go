package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType classifies where an account's money physically sits.
type AccountType string

const (
	Bank        AccountType = "BANK"
	Cash        AccountType = "CASH"
	MobileMoney AccountType = "MOBILE_MONEY"
)

// Account is a named money pool with an authoritative running balance.
// The balance is updated atomically with every committed LedgerTransaction
// touching the account; it is never recomputed lazily.
type Account struct {
	AccountID      string          `json:"accountID"` // Primary key (UUID)
	Name           string          `json:"name"`
	AccountType    AccountType     `json:"accountType"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Balance        decimal.Decimal `json:"balance"` // opening balance + signed sum of committed transactions
	Description    string          `json:"description"`
	IsActive       bool            `json:"isActive"` // soft-retire flag; accounts with transactions are never deleted
	AuditFields
}
