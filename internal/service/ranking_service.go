package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/store"
)

// ModePoints is one player's contribution from one mode.
type ModePoints struct {
	QualificationRank   int `json:"qualificationRank,omitempty"`
	QualificationPoints int `json:"qualificationPoints"`
	FinalsPlace         int `json:"finalsPlace,omitempty"`
	FinalsPoints        int `json:"finalsPoints"`
}

type OverallEntry struct {
	Rank     int                         `json:"rank"`
	PlayerID uuid.UUID                   `json:"playerId"`
	Nickname string                      `json:"nickname"`
	Modes    map[bracket.Mode]ModePoints `json:"modes"`
	Total    int                         `json:"total"`
}

// RankingService combines every mode into the overall leaderboard.
type RankingService struct {
	tournaments *store.TournamentStore
	matches     *store.MatchStore
	quals       *QualificationService
	ta          *TimeAttackService
	logger      *slog.Logger
}

func NewRankingService(tournaments *store.TournamentStore, matches *store.MatchStore, quals *QualificationService, ta *TimeAttackService, logger *slog.Logger) *RankingService {
	return &RankingService{tournaments: tournaments, matches: matches, quals: quals, ta: ta, logger: logger}
}

type modeResult struct {
	ranked    []rankedPlayer
	placement map[uuid.UUID]int
}

type rankedPlayer struct {
	id       uuid.UUID
	nickname string
}

// Overall loads all modes in parallel and totals qualification and finals points.
func (s *RankingService) Overall(ctx context.Context, tournamentID uuid.UUID) ([]OverallEntry, error) {
	if _, err := s.tournaments.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}

	results := make([]modeResult, len(bracket.Modes))
	g, gctx := errgroup.WithContext(ctx)
	for i, mode := range bracket.Modes {
		g.Go(func() error {
			res, err := s.loadMode(gctx, tournamentID, mode)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byPlayer := map[uuid.UUID]*OverallEntry{}
	entryFor := func(p rankedPlayer) *OverallEntry {
		e, ok := byPlayer[p.id]
		if !ok {
			e = &OverallEntry{PlayerID: p.id, Nickname: p.nickname, Modes: map[bracket.Mode]ModePoints{}}
			byPlayer[p.id] = e
		}
		return e
	}

	for i, mode := range bracket.Modes {
		res := results[i]
		for rank, p := range res.ranked {
			e := entryFor(p)
			points := ModePoints{
				QualificationRank:   rank + 1,
				QualificationPoints: bracket.QualificationPoints(rank + 1),
			}
			if place, ok := res.placement[p.id]; ok {
				points.FinalsPlace = place
				points.FinalsPoints = bracket.FinalsPoints(place)
			}
			e.Modes[mode] = points
			e.Total += points.QualificationPoints + points.FinalsPoints
		}
	}

	entries := make([]OverallEntry, 0, len(byPlayer))
	for _, e := range byPlayer {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].Nickname < entries[j].Nickname
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (s *RankingService) loadMode(ctx context.Context, tournamentID uuid.UUID, mode bracket.Mode) (modeResult, error) {
	if mode == bracket.TimeAttack {
		entries, err := s.ta.Standings(ctx, tournamentID)
		if err != nil {
			return modeResult{}, err
		}
		ranked := make([]rankedPlayer, 0, len(entries))
		for _, e := range entries {
			ranked = append(ranked, rankedPlayer{id: e.PlayerID, nickname: e.Nickname})
		}
		return modeResult{ranked: ranked}, nil
	}

	records, err := s.quals.Ranked(ctx, s.quals.db, tournamentID, mode)
	if err != nil {
		return modeResult{}, err
	}
	finals, err := s.matches.ListMatches(ctx, s.quals.db, tournamentID, mode, bracket.StageFinals)
	if err != nil {
		return modeResult{}, err
	}

	ranked := make([]rankedPlayer, 0, len(records))
	for _, r := range records {
		ranked = append(ranked, rankedPlayer{id: r.PlayerID, nickname: r.Nickname})
	}
	return modeResult{ranked: ranked, placement: bracket.Placements(finals)}, nil
}
