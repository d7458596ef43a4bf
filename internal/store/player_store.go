package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	users "github.com/smkcup/kart-tournament/internal/user"
)

type PlayerStore struct {
	db *sqlx.DB
}

func NewPlayerStore(db *sqlx.DB) *PlayerStore {
	return &PlayerStore{db: db}
}

const (
	playerColumns = `id, name, nickname, country, password_hash, created_at, updated_at, deleted_at`

	createPlayerQuery = `
		INSERT INTO players (id, name, nickname, country, password_hash)
		VALUES (:id, :name, :nickname, :country, :password_hash)
	`
	updatePlayerQuery = `
		UPDATE players SET
		name = :name,
		nickname = :nickname,
		country = :country,
		password_hash = :password_hash,
		updated_at = CURRENT_TIMESTAMP
		WHERE id = :id AND deleted_at IS NULL
	`
)

func (s *PlayerStore) CreatePlayer(ctx context.Context, player *users.Player) error {
	_, err := s.db.NamedExecContext(ctx, createPlayerQuery, player)
	return mapError(err)
}

func (s *PlayerStore) GetPlayer(ctx context.Context, id uuid.UUID) (*users.Player, error) {
	var player users.Player
	err := s.db.GetContext(ctx, &player, "SELECT "+playerColumns+" FROM players WHERE id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return nil, mapError(err)
	}
	return &player, nil
}

func (s *PlayerStore) GetPlayerByNickname(ctx context.Context, nickname string) (*users.Player, error) {
	var player users.Player
	err := s.db.GetContext(ctx, &player, "SELECT "+playerColumns+" FROM players WHERE nickname = ? AND deleted_at IS NULL", nickname)
	if err != nil {
		return nil, mapError(err)
	}
	return &player, nil
}

func (s *PlayerStore) ListPlayers(ctx context.Context) ([]users.Player, error) {
	players := []users.Player{}
	err := s.db.SelectContext(ctx, &players, "SELECT "+playerColumns+" FROM players WHERE deleted_at IS NULL ORDER BY nickname ASC")
	return players, err
}

// GetPlayers returns the active players among ids, in no particular order.
func (s *PlayerStore) GetPlayers(ctx context.Context, ids []uuid.UUID) ([]users.Player, error) {
	players := []users.Player{}
	if len(ids) == 0 {
		return players, nil
	}
	query, args, err := sqlx.In("SELECT "+playerColumns+" FROM players WHERE deleted_at IS NULL AND id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	err = s.db.SelectContext(ctx, &players, s.db.Rebind(query), args...)
	return players, err
}

func (s *PlayerStore) UpdatePlayer(ctx context.Context, player *users.Player) error {
	result, err := s.db.NamedExecContext(ctx, updatePlayerQuery, player)
	if err != nil {
		return mapError(err)
	}
	return checkAffectedRows(result)
}

// DeletePlayer soft-deletes the player so historical matches keep their references.
// The nickname is released for reuse.
func (s *PlayerStore) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `UPDATE players
		SET deleted_at = CURRENT_TIMESTAMP, nickname = nickname || '#' || id
		WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result)
}
