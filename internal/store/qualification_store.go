package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smkcup/kart-tournament/internal/bracket"
)

type QualificationStore struct {
	db *sqlx.DB
}

func NewQualificationStore(db *sqlx.DB) *QualificationStore {
	return &QualificationStore{db: db}
}

const (
	qualificationSelect = `SELECT q.id, q.tournament_id, q.mode, q.player_id, q.group_name,
		q.matches_played, q.wins, q.ties, q.losses, q.points, q.score, q.updated_at, p.nickname
		FROM qualifications q JOIN players p ON p.id = q.player_id`

	createQualificationsQuery = `INSERT INTO qualifications (id, tournament_id, mode, player_id, group_name)
		VALUES (:id, :tournament_id, :mode, :player_id, :group_name)`

	updateQualificationStatsQuery = `UPDATE qualifications SET
		matches_played = :matches_played, wins = :wins, ties = :ties, losses = :losses,
		points = :points, score = :score, updated_at = CURRENT_TIMESTAMP
		WHERE id = :id`
)

func (s *QualificationStore) CreateQualifications(ctx context.Context, exec sqlx.ExtContext, records []bracket.Qualification) error {
	if len(records) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, exec, createQualificationsQuery, records)
	return mapError(err)
}

// ListQualifications returns the records of one mode ordered by (score desc, points desc).
func (s *QualificationStore) ListQualifications(ctx context.Context, exec sqlx.QueryerContext, tournamentID uuid.UUID, mode bracket.Mode) ([]bracket.Qualification, error) {
	records := []bracket.Qualification{}
	err := sqlx.SelectContext(ctx, exec, &records, qualificationSelect+`
		WHERE q.tournament_id = ? AND q.mode = ?
		ORDER BY q.score DESC, q.points DESC, p.nickname ASC`, tournamentID, mode)
	return records, err
}

func (s *QualificationStore) GetQualification(ctx context.Context, exec sqlx.QueryerContext, tournamentID uuid.UUID, mode bracket.Mode, playerID uuid.UUID) (*bracket.Qualification, error) {
	var record bracket.Qualification
	err := sqlx.GetContext(ctx, exec, &record, qualificationSelect+`
		WHERE q.tournament_id = ? AND q.mode = ? AND q.player_id = ?`, tournamentID, mode, playerID)
	if err != nil {
		return nil, mapError(err)
	}
	return &record, nil
}

func (s *QualificationStore) UpdateStats(ctx context.Context, exec sqlx.ExtContext, record *bracket.Qualification) error {
	result, err := sqlx.NamedExecContext(ctx, exec, updateQualificationStatsQuery, record)
	if err != nil {
		return err
	}
	return checkAffectedRows(result)
}

func (s *QualificationStore) DeleteQualifications(ctx context.Context, exec sqlx.ExecerContext, tournamentID uuid.UUID, mode bracket.Mode) error {
	_, err := exec.ExecContext(ctx, "DELETE FROM qualifications WHERE tournament_id = ? AND mode = ?", tournamentID, mode)
	return err
}
