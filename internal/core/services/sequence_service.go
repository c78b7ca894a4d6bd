package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edusuite/school_finance_app/internal/apperrors"
	portsrepo "github.com/edusuite/school_finance_app/internal/core/ports/repositories"
	portssvc "github.com/edusuite/school_finance_app/internal/core/ports/services"
	"github.com/edusuite/school_finance_app/internal/middleware"
)

// sequenceService allocates document numbers from persistent per-scope
// counters. Allocation is atomic at the database level; this layer adds a
// bounded retry on transient contention.
type sequenceService struct {
	sequenceRepo portsrepo.SequenceRepositoryFacade
	maxRetries   int
	retryBackoff time.Duration
}

// NewSequenceService creates a new SequenceService.
func NewSequenceService(sequenceRepo portsrepo.SequenceRepositoryFacade, maxRetries int, retryBackoff time.Duration) portssvc.SequenceSvcFacade {
	if maxRetries < 1 {
		maxRetries = 3
	}
	if retryBackoff <= 0 {
		retryBackoff = 25 * time.Millisecond
	}
	return &sequenceService{
		sequenceRepo: sequenceRepo,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
	}
}

var _ portssvc.SequenceSvcFacade = (*sequenceService)(nil)

// Next allocates the next number for the scope. Numbers burnt by a caller
// that later fails are never reclaimed; gaps are expected.
func (s *sequenceService) Next(ctx context.Context, scopeKey string) (int64, error) {
	if scopeKey == "" {
		return 0, fmt.Errorf("%w: scope key is required", apperrors.ErrValidation)
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		n, err := s.sequenceRepo.Next(ctx, scopeKey)
		if err == nil {
			return n, nil
		}
		if !errors.Is(err, apperrors.ErrConcurrency) {
			return 0, err
		}
		lastErr = err
		logger.Warn("Sequence allocation contention, retrying", "scope_key", scopeKey, "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(s.retryBackoff * time.Duration(attempt+1)):
		}
	}
	return 0, fmt.Errorf("sequence allocation for scope %s exhausted retries: %w", scopeKey, lastErr)
}

// NextDocNumber allocates the next number in a per-prefix, per-day scope and
// formats it as PREFIX-YYYYMMDD-N.
func (s *sequenceService) NextDocNumber(ctx context.Context, prefix string, on time.Time) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: document prefix is required", apperrors.ErrValidation)
	}
	day := on.Format("20060102")
	n, err := s.Next(ctx, fmt.Sprintf("%s-%s", prefix, day))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%d", prefix, day, n), nil
}
