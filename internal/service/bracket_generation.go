package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/cache"
	"github.com/smkcup/kart-tournament/internal/store"
)

// FinalsService manages the double-elimination finals of the head-to-head modes.
type FinalsService struct {
	db      *sqlx.DB
	matches *store.MatchStore
	quals   *QualificationService
	cache   *cache.Standings
	logger  *slog.Logger
}

func NewFinalsService(db *sqlx.DB, matches *store.MatchStore, quals *QualificationService, standings *cache.Standings, logger *slog.Logger) *FinalsService {
	return &FinalsService{db: db, matches: matches, quals: quals, cache: standings, logger: logger}
}

type FinalsView struct {
	Matches    []bracket.Match      `json:"matches"`
	Structure  []bracket.Descriptor `json:"structure"`
	IsComplete bool                 `json:"isComplete"`
	Champion   *uuid.UUID           `json:"champion"`
}

// buildFinalsMatches creates one match per descriptor and seeds the first round
// from ranked, which must be in seeding order.
func buildFinalsMatches(tournamentID uuid.UUID, mode bracket.Mode, descriptors []bracket.Descriptor, ranked []bracket.Qualification) []bracket.Match {
	matches := make([]bracket.Match, 0, len(descriptors))
	for _, d := range descriptors {
		round := d.Round
		m := bracket.Match{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			Mode:         mode,
			Stage:        bracket.StageFinals,
			MatchNumber:  d.MatchNumber,
			Round:        &round,
			Version:      1,
		}
		if d.Seed1 != nil {
			m.SetPlayer(1, ranked[*d.Seed1-1].PlayerID)
		}
		if d.Seed2 != nil {
			m.SetPlayer(2, ranked[*d.Seed2-1].PlayerID)
		}
		matches = append(matches, m)
	}
	return matches
}

// Generate (re)creates the finals bracket from the current qualification ranking.
// Existing finals matches of the mode are discarded in the same transaction.
func (s *FinalsService) Generate(ctx context.Context, tournamentID uuid.UUID, mode bracket.Mode, size int) (*FinalsView, error) {
	if err := requireHeadToHead(mode); err != nil {
		return nil, err
	}
	descriptors, err := bracket.Structure(size)
	if err != nil {
		return nil, invalidErr("size", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ranked, err := s.quals.Ranked(ctx, tx, tournamentID, mode)
	if err != nil {
		return nil, err
	}
	if len(ranked) < size {
		return nil, &InsufficientPlayersError{Need: size, Have: len(ranked)}
	}

	deleted, err := s.matches.DeleteMatches(ctx, tx, tournamentID, mode, bracket.StageFinals)
	if err != nil {
		return nil, fmt.Errorf("failed to delete finals matches: %w", err)
	}
	matches := buildFinalsMatches(tournamentID, mode, descriptors, ranked)
	if err := s.matches.CreateMatches(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to create finals matches: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.InvalidateTournament(tournamentID)
	s.logger.Info("finals bracket generated",
		"operation", "finals.generate",
		"tournament_id", tournamentID,
		"mode", mode,
		"replaced", deleted,
	)
	return s.Get(ctx, tournamentID, mode)
}

func (s *FinalsService) Get(ctx context.Context, tournamentID uuid.UUID, mode bracket.Mode) (*FinalsView, error) {
	if err := requireHeadToHead(mode); err != nil {
		return nil, err
	}
	matches, err := s.matches.ListMatches(ctx, s.db, tournamentID, mode, bracket.StageFinals)
	if err != nil {
		return nil, err
	}
	descriptors, err := bracket.Structure(bracket.FinalsSize)
	if err != nil {
		return nil, err
	}

	view := &FinalsView{Matches: matches, Structure: descriptors}
	for id, place := range bracket.Placements(matches) {
		if place == 1 {
			champion := id
			view.Champion = &champion
			view.IsComplete = true
		}
	}
	return view, nil
}

// Reset deletes the finals bracket of the mode.
func (s *FinalsService) Reset(ctx context.Context, tournamentID uuid.UUID, mode bracket.Mode) error {
	if err := requireHeadToHead(mode); err != nil {
		return err
	}
	deleted, err := s.matches.DeleteMatches(ctx, s.db, tournamentID, mode, bracket.StageFinals)
	if err != nil {
		return err
	}
	s.cache.InvalidateTournament(tournamentID)
	s.logger.Info("finals bracket reset", "tournament_id", tournamentID, "mode", mode, "deleted", deleted)
	return nil
}

// placeInSlot writes a player into a later bracket match.
func (s *FinalsService) placeInSlot(ctx context.Context, exec sqlx.ExtContext, from *bracket.Match, number, slot int, playerID uuid.UUID) (*bracket.Match, error) {
	target, err := s.matches.GetMatchByNumber(ctx, exec, from.TournamentID, from.Mode, bracket.StageFinals, number)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("bracket is missing match %d: %w", number, err)
		}
		return nil, err
	}
	target.SetPlayer(slot, playerID)
	if err := s.matches.UpdateWithVersion(ctx, exec, target, target.Version); err != nil {
		return nil, fmt.Errorf("failed to advance into match %d: %w", number, err)
	}
	return target, nil
}
