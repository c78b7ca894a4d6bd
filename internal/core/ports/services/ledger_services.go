package services

import (
	"context"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/edusuite/school_finance_app/internal/dto"
)

// LedgerSvcFacade applies and reverses categorized balance mutations against
// accounts. Every application is a single atomic unit: the transaction row
// and every touched balance commit together or not at all.
type LedgerSvcFacade interface {
	// ApplyTransaction validates, allocates a document number, and persists
	// the transaction with its balance effects. A replayed idempotency key is
	// rejected with ErrDuplicate after the first application.
	ApplyTransaction(ctx context.Context, req dto.CreateTransactionRequest, creatorUserID string) (*domain.LedgerTransaction, error)
	// ReverseTransaction creates a new transaction with the inverted effect,
	// referencing the original. The original row is never edited or deleted.
	ReverseTransaction(ctx context.Context, txnID string, userID string) (*domain.LedgerTransaction, error)
	GetTransactionByID(ctx context.Context, txnID string) (*domain.LedgerTransaction, error)
	ListTransactionsByAccount(ctx context.Context, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}
