package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/cache"
	"github.com/smkcup/kart-tournament/internal/metrics"
	"github.com/smkcup/kart-tournament/internal/store"
	users "github.com/smkcup/kart-tournament/internal/user"
)

// Characters lists the drivers a player may report having used.
var Characters = []string{"Mario", "Luigi", "Peach", "Toad", "Yoshi", "Bowser", "DK Jr", "Koopa Troopa"}

type ReportStatus string

const (
	ReportWaiting   ReportStatus = "waiting"
	ReportConfirmed ReportStatus = "confirmed"
	ReportMismatch  ReportStatus = "mismatch"
)

type ReportInput struct {
	MatchID   uuid.UUID           `json:"-"`
	Identity  *users.Identity     `json:"-"`
	IP        string              `json:"-"`
	Slot      int                 `json:"slot"`
	Score1    int                 `json:"score1"`
	Score2    int                 `json:"score2"`
	Races     bracket.RaceResults `json:"races"`
	Character string              `json:"character"`
}

// ReportResult tells the reporter where reconciliation stands.
type ReportResult struct {
	Status        ReportStatus       `json:"status"`
	Match         *bracket.Match     `json:"match"`
	PendingSlot   int                `json:"pendingSlot,omitempty"`
	AutoConfirmed bool               `json:"autoConfirmed"`
	Mismatch      bool               `json:"mismatch"`
	Player1Report *bracket.ScorePair `json:"player1Report,omitempty"`
	Player2Report *bracket.ScorePair `json:"player2Report,omitempty"`
	Advance       *AdvanceResult     `json:"advance,omitempty"`
}

// ReportService lets both players of a match report its result independently.
// Agreeing reports complete the match; disagreeing reports wait for an admin.
type ReportService struct {
	db      *sqlx.DB
	matches *store.MatchStore
	audit   *store.AuditStore
	quals   *QualificationService
	finals  *FinalsService
	cache   *cache.Standings
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewReportService(
	db *sqlx.DB,
	matches *store.MatchStore,
	audit *store.AuditStore,
	quals *QualificationService,
	finals *FinalsService,
	standings *cache.Standings,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		db:      db,
		matches: matches,
		audit:   audit,
		quals:   quals,
		finals:  finals,
		cache:   standings,
		metrics: m,
		logger:  logger,
	}
}

// reportedScore validates the reported result for the match's stage and mode.
func reportedScore(m *bracket.Match, input ReportInput) (bracket.ScorePair, bracket.RaceResults, error) {
	pair := bracket.ScorePair{Score1: input.Score1, Score2: input.Score2}
	if m.Stage == bracket.StageFinals {
		if err := bracket.ValidateFinalsScore(pair); err != nil {
			return bracket.ScorePair{}, nil, invalidErr("score", err)
		}
		return pair, nil, nil
	}
	return qualificationScore(m.Mode, pair, input.Races)
}

func (s *ReportService) Report(ctx context.Context, input ReportInput) (*ReportResult, error) {
	if input.Identity == nil {
		return nil, ErrUnauthorized
	}
	if input.Slot != 1 && input.Slot != 2 {
		return nil, invalid("slot", "slot must be 1 or 2")
	}
	if input.Character != "" && !slices.Contains(Characters, input.Character) {
		return nil, invalid("character", fmt.Sprintf("unknown character %q", input.Character))
	}

	current, err := s.matches.GetMatch(ctx, s.db, input.MatchID)
	if err != nil {
		return nil, err
	}
	if current.Completed {
		return nil, &ValidationError{Field: "matchId", Message: ErrMatchCompleted.Error(), Err: ErrMatchCompleted}
	}
	reporter := current.PlayerInSlot(input.Slot)
	if reporter == nil {
		return nil, invalid("slot", "no player is assigned to this slot yet")
	}
	if !input.Identity.CanActFor(*reporter, current.TournamentID) {
		return nil, ErrForbidden
	}
	pair, races, err := reportedScore(current, input)
	if err != nil {
		return nil, err
	}

	err = retryOnConflict(ctx, maxReportAttempts, func() error {
		_, err := compareAndSwap(ctx, s.db, s.matches, input.MatchID, nil, func(m *bracket.Match) error {
			if m.Completed {
				return &ValidationError{Field: "matchId", Message: ErrMatchCompleted.Error(), Err: ErrMatchCompleted}
			}
			m.SetReported(input.Slot, pair, races)
			return nil
		})
		if errors.Is(err, store.ErrVersionConflict) {
			s.metrics.VersionConflict("report")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordSubmission(ctx, current, *reporter, pair, races, input)

	var result *ReportResult
	err = retryOnConflict(ctx, maxReportAttempts, func() error {
		var err error
		result, err = s.reconcile(ctx, input.MatchID)
		if errors.Is(err, store.ErrVersionConflict) {
			s.metrics.VersionConflict("reconcile")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Report(string(current.Mode), string(result.Status))
	s.logger.Info("score reported",
		"operation", "report",
		"tournament_id", current.TournamentID,
		"match_id", current.ID,
		"mode", current.Mode,
		"slot", input.Slot,
		"status", result.Status,
	)
	return result, nil
}

// reconcile re-reads the match and compares both reported slots. Agreeing reports
// are written as the canonical score in one transaction together with the
// aggregate recalculation or bracket advancement they trigger.
func (s *ReportService) reconcile(ctx context.Context, matchID uuid.UUID) (*ReportResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m, err := s.matches.GetMatch(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}

	first, ok1 := m.Reported(1)
	second, ok2 := m.Reported(2)
	result := &ReportResult{Match: m}
	if ok1 {
		result.Player1Report = &first
	}
	if ok2 {
		result.Player2Report = &second
	}

	switch {
	case m.Completed:
		// The other reporter confirmed concurrently.
		result.Status, result.AutoConfirmed = ReportConfirmed, true
		return result, nil
	case !ok1:
		result.Status, result.PendingSlot = ReportWaiting, 1
		return result, nil
	case !ok2:
		result.Status, result.PendingSlot = ReportWaiting, 2
		return result, nil
	case first != second:
		result.Status, result.Mismatch = ReportMismatch, true
		return result, nil
	}

	m.Score1, m.Score2 = first.Score1, first.Score2
	m.Races = m.Player1ReportedRaces
	m.Completed = true
	if err := s.matches.UpdateWithVersion(ctx, tx, m, m.Version); err != nil {
		return nil, err
	}

	if m.Stage == bracket.StageFinals {
		if result.Advance, err = s.finals.advance(ctx, tx, m); err != nil {
			return nil, err
		}
	} else if err := s.quals.recalculate(ctx, tx, m); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.cache.InvalidateTournament(m.TournamentID)

	result.Status, result.AutoConfirmed = ReportConfirmed, true
	return result, nil
}

// recordSubmission appends the score-entry log and character usage. Both are
// bookkeeping only: failures are logged and swallowed.
func (s *ReportService) recordSubmission(ctx context.Context, m *bracket.Match, playerID uuid.UUID, pair bracket.ScorePair, races bracket.RaceResults, input ReportInput) {
	entry := &store.ScoreEntryLog{
		TournamentID:   m.TournamentID,
		MatchID:        m.ID,
		PlayerID:       playerID,
		Mode:           m.Mode,
		ReportedScore1: pair.Score1,
		ReportedScore2: pair.Score2,
		Races:          races,
	}
	if input.IP != "" {
		ip := input.IP
		entry.IPAddress = &ip
	}
	if err := s.audit.InsertScoreEntry(ctx, entry); err != nil {
		s.logger.Warn("failed to write score entry log", "match_id", m.ID, "player_id", playerID, "error", err)
	}

	if input.Character == "" {
		return
	}
	usage := &store.CharacterUsage{MatchID: m.ID, PlayerID: playerID, Mode: m.Mode, Character: input.Character}
	if err := s.audit.UpsertCharacterUsage(ctx, usage); err != nil {
		s.logger.Warn("failed to record character usage", "match_id", m.ID, "player_id", playerID, "error", err)
	}
}
