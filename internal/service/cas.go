package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/store"
)

// maxReportAttempts bounds how often a self-report retries after losing a version race.
const maxReportAttempts = 3

// compareAndSwap reads the match, lets mutate change it and writes it back only if
// the version is unchanged. When expected is set the caller's view must still be
// current; otherwise the version just read is used. Conflicts surface as
// *store.VersionConflictError and retry policy is left to the caller.
func compareAndSwap(ctx context.Context, exec sqlx.ExtContext, matches *store.MatchStore, id uuid.UUID, expected *int, mutate func(m *bracket.Match) error) (*bracket.Match, error) {
	m, err := matches.GetMatch(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	if expected != nil && m.Version != *expected {
		return nil, &store.VersionConflictError{Current: m.Version}
	}

	if err := mutate(m); err != nil {
		return nil, err
	}

	if err := matches.UpdateWithVersion(ctx, exec, m, m.Version); err != nil {
		return nil, err
	}
	return m, nil
}

// retryOnConflict runs fn until it succeeds, fails with something other than a
// version conflict, or attempts run out. The last conflict is returned.
func retryOnConflict(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}
