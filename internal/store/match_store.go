package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smkcup/kart-tournament/internal/bracket"
)

// MatchStore persists qualification and finals matches of every head-to-head mode.
// Methods take an executor so callers can run them inside a transaction.
type MatchStore struct {
	db *sqlx.DB
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

// DB returns the executor to use outside of a transaction.
func (s *MatchStore) DB() *sqlx.DB {
	return s.db
}

const (
	matchColumns = `id, tournament_id, mode, stage, match_number, round, group_name,
		player_1_id, player_2_id, score_1, score_2, races, completed, version,
		player_1_reported_score_1, player_1_reported_score_2, player_1_reported_races,
		player_2_reported_score_1, player_2_reported_score_2, player_2_reported_races,
		created_at, updated_at`

	createMatchesQuery = `INSERT INTO matches (id, tournament_id, mode, stage, match_number, round, group_name,
		player_1_id, player_2_id, score_1, score_2, races, completed, version)
		VALUES (:id, :tournament_id, :mode, :stage, :match_number, :round, :group_name,
		:player_1_id, :player_2_id, :score_1, :score_2, :races, :completed, :version)`

	updateMatchQuery = `UPDATE matches SET
		player_1_id = ?, player_2_id = ?, score_1 = ?, score_2 = ?, races = ?, completed = ?,
		player_1_reported_score_1 = ?, player_1_reported_score_2 = ?, player_1_reported_races = ?,
		player_2_reported_score_1 = ?, player_2_reported_score_2 = ?, player_2_reported_races = ?,
		version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`
)

func (s *MatchStore) CreateMatches(ctx context.Context, exec sqlx.ExtContext, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	for i := range matches {
		if matches[i].Version == 0 {
			matches[i].Version = 1
		}
	}
	_, err := sqlx.NamedExecContext(ctx, exec, createMatchesQuery, matches)
	return mapError(err)
}

func (s *MatchStore) GetMatch(ctx context.Context, exec sqlx.QueryerContext, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	err := sqlx.GetContext(ctx, exec, &match, "SELECT "+matchColumns+" FROM matches WHERE id = ?", id)
	if err != nil {
		return nil, mapError(err)
	}
	return &match, nil
}

func (s *MatchStore) GetMatchByNumber(ctx context.Context, exec sqlx.QueryerContext, tournamentID uuid.UUID, mode bracket.Mode, stage bracket.Stage, number int) (*bracket.Match, error) {
	var match bracket.Match
	err := sqlx.GetContext(ctx, exec, &match, "SELECT "+matchColumns+` FROM matches
		WHERE tournament_id = ? AND mode = ? AND stage = ? AND match_number = ?`, tournamentID, mode, stage, number)
	if err != nil {
		return nil, mapError(err)
	}
	return &match, nil
}

func (s *MatchStore) ListMatches(ctx context.Context, exec sqlx.QueryerContext, tournamentID uuid.UUID, mode bracket.Mode, stage bracket.Stage) ([]bracket.Match, error) {
	matches := []bracket.Match{}
	err := sqlx.SelectContext(ctx, exec, &matches, "SELECT "+matchColumns+` FROM matches
		WHERE tournament_id = ? AND mode = ? AND stage = ?
		ORDER BY match_number ASC`, tournamentID, mode, stage)
	return matches, err
}

// UpdateWithVersion writes every mutable field of m if the stored version still
// equals expected. On success m.Version is advanced by one. A stale version yields
// a *VersionConflictError carrying the stored version and leaves the row untouched.
func (s *MatchStore) UpdateWithVersion(ctx context.Context, exec sqlx.ExtContext, m *bracket.Match, expected int) error {
	result, err := exec.ExecContext(ctx, updateMatchQuery,
		m.Player1ID, m.Player2ID, m.Score1, m.Score2, m.Races, m.Completed,
		m.Player1ReportedScore1, m.Player1ReportedScore2, m.Player1ReportedRaces,
		m.Player2ReportedScore1, m.Player2ReportedScore2, m.Player2ReportedRaces,
		m.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("update match %s: %w", m.ID, mapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		var current int
		if err := sqlx.GetContext(ctx, exec, &current, "SELECT version FROM matches WHERE id = ?", m.ID); err != nil {
			return mapError(err)
		}
		return &VersionConflictError{Current: current}
	}

	m.Version = expected + 1
	return nil
}

func (s *MatchStore) DeleteMatches(ctx context.Context, exec sqlx.ExecerContext, tournamentID uuid.UUID, mode bracket.Mode, stage bracket.Stage) (int64, error) {
	result, err := exec.ExecContext(ctx, "DELETE FROM matches WHERE tournament_id = ? AND mode = ? AND stage = ?", tournamentID, mode, stage)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
