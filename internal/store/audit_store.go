package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smkcup/kart-tournament/internal/bracket"
)

// AuditLog records one admin mutation.
type AuditLog struct {
	ID         int64      `db:"id" json:"id"`
	UserID     *uuid.UUID `db:"user_id" json:"userId,omitempty"`
	Action     string     `db:"action" json:"action"`
	TargetType string     `db:"target_type" json:"targetType"`
	TargetID   string     `db:"target_id" json:"targetId"`
	Details    *string    `db:"details" json:"details,omitempty"`
	IPAddress  *string    `db:"ip_address" json:"ipAddress,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

// ScoreEntryLog records one self-reported result, whatever the reconciliation outcome.
type ScoreEntryLog struct {
	ID             int64               `db:"id" json:"id"`
	TournamentID   uuid.UUID           `db:"tournament_id" json:"tournamentId"`
	MatchID        uuid.UUID           `db:"match_id" json:"matchId"`
	PlayerID       uuid.UUID           `db:"player_id" json:"playerId"`
	Mode           bracket.Mode        `db:"mode" json:"mode"`
	ReportedScore1 int                 `db:"reported_score_1" json:"reportedScore1"`
	ReportedScore2 int                 `db:"reported_score_2" json:"reportedScore2"`
	Races          bracket.RaceResults `db:"races" json:"races,omitempty"`
	IPAddress      *string             `db:"ip_address" json:"ipAddress,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"createdAt"`
}

// CharacterUsage records which character a player drove in a match.
type CharacterUsage struct {
	ID        int64        `db:"id" json:"id"`
	MatchID   uuid.UUID    `db:"match_id" json:"matchId"`
	PlayerID  uuid.UUID    `db:"player_id" json:"playerId"`
	Mode      bracket.Mode `db:"mode" json:"mode"`
	Character string       `db:"character_name" json:"character"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
}

type AuditStore struct {
	db *sqlx.DB
}

func NewAuditStore(db *sqlx.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) InsertAuditLog(ctx context.Context, entry *AuditLog) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO audit_logs (user_id, action, target_type, target_id, details, ip_address)
		VALUES (:user_id, :action, :target_type, :target_id, :details, :ip_address)`, entry)
	return err
}

func (s *AuditStore) ListAuditLogs(ctx context.Context, limit int) ([]AuditLog, error) {
	logs := []AuditLog{}
	err := s.db.SelectContext(ctx, &logs, `SELECT id, user_id, action, target_type, target_id, details, ip_address, created_at
		FROM audit_logs ORDER BY id DESC LIMIT ?`, limit)
	return logs, err
}

func (s *AuditStore) InsertScoreEntry(ctx context.Context, entry *ScoreEntryLog) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO score_entry_logs
		(tournament_id, match_id, player_id, mode, reported_score_1, reported_score_2, races, ip_address)
		VALUES (:tournament_id, :match_id, :player_id, :mode, :reported_score_1, :reported_score_2, :races, :ip_address)`, entry)
	return err
}

func (s *AuditStore) ListScoreEntries(ctx context.Context, matchID uuid.UUID) ([]ScoreEntryLog, error) {
	entries := []ScoreEntryLog{}
	err := s.db.SelectContext(ctx, &entries, `SELECT id, tournament_id, match_id, player_id, mode,
		reported_score_1, reported_score_2, races, ip_address, created_at
		FROM score_entry_logs WHERE match_id = ? ORDER BY id ASC`, matchID)
	return entries, err
}

// UpsertCharacterUsage keeps the latest character a player reported for a match.
func (s *AuditStore) UpsertCharacterUsage(ctx context.Context, usage *CharacterUsage) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO match_character_usages (match_id, player_id, mode, character_name)
		VALUES (:match_id, :player_id, :mode, :character_name)
		ON CONFLICT (match_id, player_id) DO UPDATE SET character_name = excluded.character_name`, usage)
	return err
}

func (s *AuditStore) ListCharacterUsages(ctx context.Context, matchID uuid.UUID) ([]CharacterUsage, error) {
	usages := []CharacterUsage{}
	err := s.db.SelectContext(ctx, &usages, `SELECT id, match_id, player_id, mode, character_name, created_at
		FROM match_character_usages WHERE match_id = ? ORDER BY id ASC`, matchID)
	return usages, err
}
