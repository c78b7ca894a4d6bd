package services

import (
	"context"
	"time"
)

// SequenceSvcFacade allocates unique, monotonically increasing document
// numbers scoped by a prefix. Numbers are never reused; gaps from failed
// allocations are acceptable burn.
type SequenceSvcFacade interface {
	// Next returns the next integer for the scope, retrying bounded times on
	// contention before surfacing ErrConcurrency.
	Next(ctx context.Context, scopeKey string) (int64, error)
	// NextDocNumber formats a full document number such as RCT-20250901-17
	// from a document prefix and a date-scoped counter.
	NextDocNumber(ctx context.Context, prefix string, on time.Time) (string, error)
}
