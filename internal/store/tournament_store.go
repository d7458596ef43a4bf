package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smkcup/kart-tournament/internal/bracket"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

const tournamentColumns = `id, name, date, status, created_at, updated_at`

func (s *TournamentStore) CreateTournament(ctx context.Context, tournament *bracket.Tournament) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO tournaments (id, name, date, status)
        VALUES (:id, :name, :date, :status)`, tournament)
	return mapError(err)
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, "SELECT "+tournamentColumns+" FROM tournaments WHERE id = ?", id)
	if err != nil {
		return nil, mapError(err)
	}
	return &tournament, nil
}

func (s *TournamentStore) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	tournaments := []bracket.Tournament{}
	err := s.db.SelectContext(ctx, &tournaments, "SELECT "+tournamentColumns+" FROM tournaments ORDER BY date DESC, created_at DESC")
	return tournaments, err
}

func (s *TournamentStore) UpdateTournament(ctx context.Context, tournament *bracket.Tournament) error {
	result, err := s.db.NamedExecContext(ctx, `UPDATE tournaments
		SET name = :name, date = :date, status = :status, updated_at = CURRENT_TIMESTAMP
		WHERE id = :id`, tournament)
	if err != nil {
		return mapError(err)
	}
	return checkAffectedRows(result)
}

func (s *TournamentStore) DeleteTournament(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tournaments WHERE id = ?", id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result)
}
