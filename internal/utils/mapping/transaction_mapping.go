package mapping

import (
	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/edusuite/school_finance_app/internal/models"
)

// ToModelTransaction converts a domain ledger transaction to its row form.
func ToModelTransaction(d domain.LedgerTransaction) models.LedgerTransaction {
	return models.LedgerTransaction{
		TransactionID:    d.TransactionID,
		DocNumber:        d.DocNumber,
		AccountID:        d.AccountID,
		Kind:             string(d.Kind),
		Category:         d.Category,
		CounterAccountID: d.CounterAccountID,
		Amount:           d.Amount,
		TxnDate:          d.TxnDate,
		Method:           d.Method,
		Reference:        d.Reference,
		Status:           string(d.Status),
		OriginalTxnID:    d.OriginalTxnID,
		ReversingTxnID:   d.ReversingTxnID,
		IdempotencyKey:   d.IdempotencyKey,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a ledger_transactions row back to the domain form.
func ToDomainTransaction(m models.LedgerTransaction) domain.LedgerTransaction {
	return domain.LedgerTransaction{
		TransactionID:    m.TransactionID,
		DocNumber:        m.DocNumber,
		AccountID:        m.AccountID,
		Kind:             domain.TransactionKind(m.Kind),
		Category:         m.Category,
		CounterAccountID: m.CounterAccountID,
		Amount:           m.Amount,
		TxnDate:          m.TxnDate,
		Method:           m.Method,
		Reference:        m.Reference,
		Status:           domain.TransactionStatus(m.Status),
		OriginalTxnID:    m.OriginalTxnID,
		ReversingTxnID:   m.ReversingTxnID,
		IdempotencyKey:   m.IdempotencyKey,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}
