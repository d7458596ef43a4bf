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
	"github.com/smkcup/kart-tournament/internal/utils"
)

const (
	defaultGroupName   = "A"
	maxGroupNameLength = 10
)

// QualificationService runs the round-robin stage of the head-to-head modes.
type QualificationService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	players     *store.PlayerStore
	quals       *store.QualificationStore
	matches     *store.MatchStore
	cache       *cache.Standings
	logger      *slog.Logger
}

func NewQualificationService(
	db *sqlx.DB,
	tournaments *store.TournamentStore,
	players *store.PlayerStore,
	quals *store.QualificationStore,
	matches *store.MatchStore,
	standings *cache.Standings,
	logger *slog.Logger,
) *QualificationService {
	return &QualificationService{
		db:          db,
		tournaments: tournaments,
		players:     players,
		quals:       quals,
		matches:     matches,
		cache:       standings,
		logger:      logger,
	}
}

type SetupEntry struct {
	PlayerID uuid.UUID `json:"playerId"`
	Group    string    `json:"group"`
}

type QualificationView struct {
	Records []bracket.Qualification `json:"qualifications"`
	Matches []bracket.Match         `json:"matches"`
}

type ScoreInput struct {
	MatchID uuid.UUID           `json:"-"`
	Score1  int                 `json:"score1"`
	Score2  int                 `json:"score2"`
	Races   bracket.RaceResults `json:"races"`
	Version *int                `json:"version"`
}

func requireHeadToHead(mode bracket.Mode) error {
	if !mode.HeadToHead() {
		return invalid("mode", fmt.Sprintf("mode %q has no head-to-head matches", mode))
	}
	return nil
}

// Setup replaces the qualification stage of a mode: one record per player and a
// round robin inside each group.
func (s *QualificationService) Setup(ctx context.Context, tournamentID uuid.UUID, mode bracket.Mode, entries []SetupEntry) (*QualificationView, error) {
	if err := requireHeadToHead(mode); err != nil {
		return nil, err
	}
	if len(entries) < 2 {
		return nil, invalid("players", "at least 2 players are required")
	}
	if _, err := s.tournaments.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(entries))
	seen := make(map[uuid.UUID]bool, len(entries))
	records := make([]bracket.Qualification, 0, len(entries))
	for _, e := range entries {
		if seen[e.PlayerID] {
			return nil, invalid("players", fmt.Sprintf("player %s is listed twice", e.PlayerID))
		}
		seen[e.PlayerID] = true
		ids = append(ids, e.PlayerID)

		group := utils.Sanitize(e.Group, maxGroupNameLength)
		if group == "" {
			group = defaultGroupName
		}
		records = append(records, bracket.Qualification{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			Mode:         mode,
			PlayerID:     e.PlayerID,
			GroupName:    group,
		})
	}

	found, err := s.players.GetPlayers(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, invalid("players", "one or more players do not exist")
	}

	matches := generateQualificationMatches(tournamentID, mode, records)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := s.matches.DeleteMatches(ctx, tx, tournamentID, mode, bracket.StageQualification); err != nil {
		return nil, fmt.Errorf("failed to delete qualification matches: %w", err)
	}
	if err := s.quals.DeleteQualifications(ctx, tx, tournamentID, mode); err != nil {
		return nil, fmt.Errorf("failed to delete qualifications: %w", err)
	}
	if err := s.quals.CreateQualifications(ctx, tx, records); err != nil {
		return nil, fmt.Errorf("failed to create qualifications: %w", err)
	}
	if err := s.matches.CreateMatches(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to create qualification matches: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.InvalidateTournament(tournamentID)
	s.logger.Info("qualification set up",
		"tournament_id", tournamentID,
		"mode", mode,
		"players", len(records),
		"matches", len(matches),
	)
	return s.Get(ctx, tournamentID, mode)
}

func (s *QualificationService) Get(ctx context.Context, tournamentID uuid.UUID, mode bracket.Mode) (*QualificationView, error) {
	if err := requireHeadToHead(mode); err != nil {
		return nil, err
	}
	records, err := s.Ranked(ctx, s.db, tournamentID, mode)
	if err != nil {
		return nil, err
	}
	matches, err := s.matches.ListMatches(ctx, s.db, tournamentID, mode, bracket.StageQualification)
	if err != nil {
		return nil, err
	}
	return &QualificationView{Records: records, Matches: matches}, nil
}

// Ranked returns the qualification records in seeding order.
func (s *QualificationService) Ranked(ctx context.Context, exec sqlx.QueryerContext, tournamentID uuid.UUID, mode bracket.Mode) ([]bracket.Qualification, error) {
	records, err := s.quals.ListQualifications(ctx, exec, tournamentID, mode)
	if err != nil {
		return nil, err
	}
	bracket.SortQualifications(records)
	return records, nil
}

// qualificationScore validates a qualification result and returns the canonical
// score pair. Grand Prix scores always come from the race positions.
func qualificationScore(mode bracket.Mode, pair bracket.ScorePair, races bracket.RaceResults) (bracket.ScorePair, bracket.RaceResults, error) {
	if mode == bracket.GrandPrix {
		score, err := bracket.ScoreFromRaces(races)
		if err != nil {
			return bracket.ScorePair{}, nil, invalidErr("races", err)
		}
		return score, races, nil
	}
	if err := bracket.ValidateQualificationScore(pair); err != nil {
		return bracket.ScorePair{}, nil, invalidErr("score", err)
	}
	return pair, nil, nil
}

// ScoreMatch records an admin-entered qualification result. It may overwrite an
// earlier result; aggregates are rebuilt from scratch either way.
func (s *QualificationService) ScoreMatch(ctx context.Context, input ScoreInput) (*bracket.Match, error) {
	current, err := s.matches.GetMatch(ctx, s.db, input.MatchID)
	if err != nil {
		return nil, err
	}
	if current.Stage != bracket.StageQualification {
		return nil, invalid("matchId", "match is not a qualification match")
	}
	score, races, err := qualificationScore(current.Mode, bracket.ScorePair{Score1: input.Score1, Score2: input.Score2}, input.Races)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := compareAndSwap(ctx, tx, s.matches, input.MatchID, input.Version, func(m *bracket.Match) error {
		m.Score1, m.Score2 = score.Score1, score.Score2
		m.Races = races
		m.Completed = true
		m.ClearReports()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.recalculate(ctx, tx, match); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.InvalidateTournament(match.TournamentID)
	s.logger.Info("qualification score recorded",
		"operation", "qualification.score",
		"tournament_id", match.TournamentID,
		"match_id", match.ID,
		"mode", match.Mode,
	)
	return match, nil
}

// recalculate rebuilds the aggregates of both players of m from every completed
// qualification match of the mode.
func (s *QualificationService) recalculate(ctx context.Context, exec sqlx.ExtContext, m *bracket.Match) error {
	matches, err := s.matches.ListMatches(ctx, exec, m.TournamentID, m.Mode, bracket.StageQualification)
	if err != nil {
		return fmt.Errorf("failed to load qualification matches: %w", err)
	}

	for _, playerID := range []*uuid.UUID{m.Player1ID, m.Player2ID} {
		if playerID == nil {
			continue
		}
		rec, err := s.quals.GetQualification(ctx, exec, m.TournamentID, m.Mode, *playerID)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("qualification record missing", "tournament_id", m.TournamentID, "mode", m.Mode, "player_id", *playerID)
			continue
		}
		if err != nil {
			return err
		}
		bracket.Aggregate(rec, matches)
		if err := s.quals.UpdateStats(ctx, exec, rec); err != nil {
			return fmt.Errorf("failed to update qualification %s: %w", rec.ID, err)
		}
	}
	return nil
}
