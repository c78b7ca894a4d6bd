package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerTransaction is the ledger_transactions table row. Rows are
// append-only; corrections arrive as new reversing rows.
type LedgerTransaction struct {
	TransactionID    string          `db:"transaction_id"`
	DocNumber        string          `db:"doc_number"`
	AccountID        string          `db:"account_id"`
	Kind             string          `db:"kind"`
	Category         string          `db:"category"`
	CounterAccountID string          `db:"counter_account_id"` // Nullable
	Amount           decimal.Decimal `db:"amount"`
	TxnDate          time.Time       `db:"txn_date"`
	Method           string          `db:"method"`
	Reference        string          `db:"reference"`
	Status           string          `db:"status"`
	OriginalTxnID    *string         `db:"original_txn_id"`
	ReversingTxnID   *string         `db:"reversing_txn_id"`
	IdempotencyKey   string          `db:"idempotency_key"` // Nullable, unique when set
	AuditFields
}
