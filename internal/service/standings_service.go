package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/cache"
	"github.com/smkcup/kart-tournament/internal/metrics"
)

// StandingsService serves ranked qualification tables through the standings cache.
type StandingsService struct {
	quals   *QualificationService
	ta      *TimeAttackService
	cache   *cache.Standings
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewStandingsService(quals *QualificationService, ta *TimeAttackService, standings *cache.Standings, m *metrics.Metrics, logger *slog.Logger) *StandingsService {
	return &StandingsService{quals: quals, ta: ta, cache: standings, metrics: m, logger: logger}
}

// Get returns the cached standings of a mode, computing them on a miss.
func (s *StandingsService) Get(ctx context.Context, tournamentID uuid.UUID, mode bracket.Mode) (cache.Entry, error) {
	key := cache.Key{TournamentID: tournamentID, Mode: mode, Stage: bracket.StageQualification}
	if entry, ok := s.cache.Get(key); ok {
		s.metrics.CacheLookup(true)
		return entry, nil
	}
	s.metrics.CacheLookup(false)
	generation := s.cache.Generation(tournamentID)

	var data any
	if mode == bracket.TimeAttack {
		entries, err := s.ta.Standings(ctx, tournamentID)
		if err != nil {
			return cache.Entry{}, err
		}
		data = entries
	} else {
		records, err := s.quals.Ranked(ctx, s.quals.db, tournamentID, mode)
		if err != nil {
			return cache.Entry{}, err
		}
		data = records
	}

	entry, err := s.cache.Set(key, generation, data)
	if err != nil {
		return cache.Entry{}, err
	}
	s.logger.Debug("standings computed", "tournament_id", tournamentID, "mode", mode)
	return entry, nil
}
