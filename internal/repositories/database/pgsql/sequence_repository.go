package pgsql

import (
	"context"
	"fmt"

	portsrepo "github.com/edusuite/school_finance_app/internal/core/ports/repositories"
)

type PgxSequenceRepository struct {
	BaseRepository
}

// newPgxSequenceRepository creates a new repository for document number
// counters.
func newPgxSequenceRepository(pool DBPool) portsrepo.SequenceRepositoryFacade {
	return &PgxSequenceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SequenceRepositoryFacade = (*PgxSequenceRepository)(nil)

// Next atomically increments and returns the counter for the scope key.
// The single upsert statement is the whole read-modify-write: the row lock it
// takes guarantees two concurrent calls never observe the same value, without
// a racy "select max()+1" over issued documents.
func (r *PgxSequenceRepository) Next(ctx context.Context, scopeKey string) (int64, error) {
	query := `
		INSERT INTO sequence_counters (scope_key, last_number)
		VALUES ($1, 1)
		ON CONFLICT (scope_key)
		DO UPDATE SET last_number = sequence_counters.last_number + 1
		RETURNING last_number;
	`
	var next int64
	if err := r.Pool.QueryRow(ctx, query, scopeKey).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to allocate next number for scope %s: %w", scopeKey, mapPgError(err))
	}
	return next, nil
}
