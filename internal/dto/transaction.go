package dto

import (
	"time"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest is the payload for applying a ledger transaction.
// Amount is always positive; direction comes from Kind. CounterAccountID is
// required for transfers and forbidden otherwise.
type CreateTransactionRequest struct {
	Kind             domain.TransactionKind `json:"kind" binding:"required,oneof=INCOME EXPENSE TRANSFER ASSET_PURCHASE"`
	AccountID        string                 `json:"accountID" binding:"required"`
	CounterAccountID string                 `json:"counterAccountID,omitempty"`
	Amount           decimal.Decimal        `json:"amount" binding:"required"`
	TxnDate          time.Time              `json:"txnDate" binding:"required"`
	Category         string                 `json:"category,omitempty"`
	Method           string                 `json:"method,omitempty"`
	Reference        string                 `json:"reference,omitempty"`
	IdempotencyKey   string                 `json:"idempotencyKey,omitempty"`
}

// TransactionResponse is the API representation of a ledger transaction.
type TransactionResponse struct {
	TransactionID    string                   `json:"transactionID"`
	DocNumber        string                   `json:"docNumber"`
	AccountID        string                   `json:"accountID"`
	Kind             domain.TransactionKind   `json:"kind"`
	Category         string                   `json:"category,omitempty"`
	CounterAccountID string                   `json:"counterAccountID,omitempty"`
	Amount           decimal.Decimal          `json:"amount"`
	TxnDate          time.Time                `json:"txnDate"`
	Method           string                   `json:"method,omitempty"`
	Reference        string                   `json:"reference,omitempty"`
	Status           domain.TransactionStatus `json:"status"`
	OriginalTxnID    *string                  `json:"originalTxnID,omitempty"`
	ReversingTxnID   *string                  `json:"reversingTxnID,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
}

// ToTransactionResponse converts a domain transaction to its API representation.
func ToTransactionResponse(t *domain.LedgerTransaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:    t.TransactionID,
		DocNumber:        t.DocNumber,
		AccountID:        t.AccountID,
		Kind:             t.Kind,
		Category:         t.Category,
		CounterAccountID: t.CounterAccountID,
		Amount:           t.Amount,
		TxnDate:          t.TxnDate,
		Method:           t.Method,
		Reference:        t.Reference,
		Status:           t.Status,
		OriginalTxnID:    t.OriginalTxnID,
		ReversingTxnID:   t.ReversingTxnID,
		CreatedAt:        t.CreatedAt,
	}
}

// ToTransactionResponses converts a slice of domain transactions.
func ToTransactionResponses(txns []domain.LedgerTransaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i := range txns {
		out[i] = ToTransactionResponse(&txns[i])
	}
	return out
}

// ListTransactionsParams holds pagination parameters for statement listings.
type ListTransactionsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse is a token-paginated page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// BalanceVerificationResponse reports a recomputed balance against the stored
// running balance of an account.
type BalanceVerificationResponse struct {
	AccountID       string          `json:"accountID"`
	OpeningBalance  decimal.Decimal `json:"openingBalance"`
	StoredBalance   decimal.Decimal `json:"storedBalance"`
	ComputedBalance decimal.Decimal `json:"computedBalance"`
	Consistent      bool            `json:"consistent"`
}
