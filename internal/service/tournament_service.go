package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/store"
	"github.com/smkcup/kart-tournament/internal/utils"
)

const maxTournamentNameLength = 100

type TournamentService struct {
	store  *store.TournamentStore
	logger *slog.Logger
}

func NewTournamentService(store *store.TournamentStore, logger *slog.Logger) *TournamentService {
	return &TournamentService{store: store, logger: logger}
}

type TournamentInput struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// TournamentUpdate carries the fields to change; nil fields are left alone.
type TournamentUpdate struct {
	Name   *string                   `json:"name"`
	Date   *time.Time                `json:"date"`
	Status *bracket.TournamentStatus `json:"status"`
}

func validTournamentName(raw string) (string, error) {
	name := utils.Sanitize(raw, maxTournamentNameLength)
	if name == "" {
		return "", invalid("name", "name is required")
	}
	return name, nil
}

func (s *TournamentService) Create(ctx context.Context, input TournamentInput) (*bracket.Tournament, error) {
	name, err := validTournamentName(input.Name)
	if err != nil {
		return nil, err
	}
	if input.Date.IsZero() {
		return nil, invalid("date", "date is required")
	}

	tournament := &bracket.Tournament{
		ID:     uuid.New(),
		Name:   name,
		Date:   input.Date.UTC(),
		Status: bracket.TournamentDraft,
	}
	if err := s.store.CreateTournament(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return s.store.GetTournament(ctx, tournament.ID)
}

func (s *TournamentService) List(ctx context.Context) ([]bracket.Tournament, error) {
	return s.store.ListTournaments(ctx)
}

func (s *TournamentService) Get(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return s.store.GetTournament(ctx, id)
}

func (s *TournamentService) Update(ctx context.Context, id uuid.UUID, update TournamentUpdate) (*bracket.Tournament, error) {
	tournament, err := s.store.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name, err := validTournamentName(*update.Name)
		if err != nil {
			return nil, err
		}
		tournament.Name = name
	}
	if update.Date != nil {
		if update.Date.IsZero() {
			return nil, invalid("date", "date must not be empty")
		}
		tournament.Date = update.Date.UTC()
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, invalid("status", fmt.Sprintf("unknown status %q", *update.Status))
		}
		tournament.Status = *update.Status
	}

	if err := s.store.UpdateTournament(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to update tournament: %w", err)
	}
	return s.store.GetTournament(ctx, id)
}

func (s *TournamentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteTournament(ctx, id); err != nil {
		return err
	}
	s.logger.Info("tournament deleted", "tournament_id", id)
	return nil
}
