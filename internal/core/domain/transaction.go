package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind categorizes a ledger transaction. Direction is encoded by
// the kind, never by the sign of the amount (amounts are always positive).
type TransactionKind string

const (
	Income        TransactionKind = "INCOME"
	Expense       TransactionKind = "EXPENSE"
	Transfer      TransactionKind = "TRANSFER"
	AssetPurchase TransactionKind = "ASSET_PURCHASE"
)

// TransactionStatus tracks whether a transaction still stands or has been
// reversed by a later compensating transaction. Rows are never edited.
type TransactionStatus string

const (
	Posted   TransactionStatus = "POSTED"
	Reversed TransactionStatus = "REVERSED"
)

// LedgerTransaction is an atomic, categorized balance mutation against one
// account (two for transfers). It is append-only: corrections are modeled as
// a new reversing transaction referencing the original.
type LedgerTransaction struct {
	TransactionID     string            `json:"transactionID"` // Primary key (UUID)
	DocNumber         string            `json:"docNumber"`     // Human-facing document number (sequence-allocated)
	AccountID         string            `json:"accountID"`     // Owning account
	Kind              TransactionKind   `json:"kind"`
	Category          string            `json:"category"` // Optional free-form category
	CounterAccountID  string            `json:"counterAccountID,omitempty"` // Transfer destination; empty otherwise
	Amount            decimal.Decimal   `json:"amount"` // Always positive
	TxnDate           time.Time         `json:"txnDate"`
	Method            string            `json:"method"` // cash, cheque, mobile, ...
	Reference         string            `json:"reference"`
	Status            TransactionStatus `json:"status"`
	OriginalTxnID     *string           `json:"originalTxnID,omitempty"`  // Set on reversing transactions
	ReversingTxnID    *string           `json:"reversingTxnID,omitempty"` // Set on the reversed original
	IdempotencyKey    string            `json:"idempotencyKey,omitempty"` // Caller-supplied replay guard
	AuditFields
}

// IsReversal reports whether this transaction reverses an earlier one.
func (t *LedgerTransaction) IsReversal() bool {
	return t.OriginalTxnID != nil
}
