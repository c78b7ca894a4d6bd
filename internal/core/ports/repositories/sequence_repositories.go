package repositories

import "context"

// SequenceRepositoryFacade allocates document numbers from per-scope counters.
type SequenceRepositoryFacade interface {
	// Next atomically increments and returns the counter for the scope key,
	// starting at 1 for a fresh scope. Two concurrent calls never observe the
	// same value. Contention surfaces as ErrConcurrency for the caller to retry.
	Next(ctx context.Context, scopeKey string) (int64, error)
}
