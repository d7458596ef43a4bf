package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smkcup/kart-tournament/internal/bracket"
)

type TimeAttackStore struct {
	db *sqlx.DB
}

func NewTimeAttackStore(db *sqlx.DB) *TimeAttackStore {
	return &TimeAttackStore{db: db}
}

const (
	timeAttackSelect = `SELECT e.id, e.tournament_id, e.player_id, e.times, e.total_time,
		e.courses_completed, e.version, e.updated_at, p.nickname
		FROM ta_entries e JOIN players p ON p.id = e.player_id`

	createEntriesQuery = `INSERT INTO ta_entries (id, tournament_id, player_id, times, total_time, courses_completed)
		VALUES (:id, :tournament_id, :player_id, :times, :total_time, :courses_completed)`
)

func (s *TimeAttackStore) ReplaceEntries(ctx context.Context, tournamentID uuid.UUID, entries []bracket.TimeAttackEntry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ta_entries WHERE tournament_id = ?", tournamentID); err != nil {
		return err
	}
	if len(entries) > 0 {
		if _, err := tx.NamedExecContext(ctx, createEntriesQuery, entries); err != nil {
			return mapError(err)
		}
	}
	return tx.Commit()
}

func (s *TimeAttackStore) ListEntries(ctx context.Context, tournamentID uuid.UUID) ([]bracket.TimeAttackEntry, error) {
	entries := []bracket.TimeAttackEntry{}
	err := s.db.SelectContext(ctx, &entries, timeAttackSelect+" WHERE e.tournament_id = ?", tournamentID)
	return entries, err
}

func (s *TimeAttackStore) GetEntry(ctx context.Context, tournamentID, playerID uuid.UUID) (*bracket.TimeAttackEntry, error) {
	var entry bracket.TimeAttackEntry
	err := s.db.GetContext(ctx, &entry, timeAttackSelect+" WHERE e.tournament_id = ? AND e.player_id = ?", tournamentID, playerID)
	if err != nil {
		return nil, mapError(err)
	}
	return &entry, nil
}

// UpdateTimes stores the entry's times and totals if its version is still expected.
func (s *TimeAttackStore) UpdateTimes(ctx context.Context, entry *bracket.TimeAttackEntry, expected int) error {
	result, err := s.db.ExecContext(ctx, `UPDATE ta_entries
		SET times = ?, total_time = ?, courses_completed = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`,
		entry.Times, entry.TotalTime, entry.CoursesCompleted, entry.ID, expected)
	if err != nil {
		return fmt.Errorf("update time attack entry %s: %w", entry.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		var current int
		if err := s.db.GetContext(ctx, &current, "SELECT version FROM ta_entries WHERE id = ?", entry.ID); err != nil {
			return mapError(err)
		}
		return &VersionConflictError{Current: current}
	}
	entry.Version = expected + 1
	return nil
}
