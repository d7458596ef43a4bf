package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smkcup/kart-tournament/internal/bracket"
)

type UpdateScoreInput struct {
	MatchID uuid.UUID `json:"-"`
	Score1  int       `json:"score1"`
	Score2  int       `json:"score2"`
	Version *int      `json:"version"`
}

// AdvanceResult is the outcome of completing a finals match.
type AdvanceResult struct {
	Match      *bracket.Match `json:"match"`
	WinnerID   *uuid.UUID     `json:"winnerId"`
	LoserID    *uuid.UUID     `json:"loserId"`
	IsComplete bool           `json:"isComplete"`
	Champion   *uuid.UUID     `json:"champion"`
}

// UpdateScore records a finals result and moves both players along the bracket.
func (s *FinalsService) UpdateScore(ctx context.Context, input UpdateScoreInput) (*AdvanceResult, error) {
	score := bracket.ScorePair{Score1: input.Score1, Score2: input.Score2}
	if err := bracket.ValidateFinalsScore(score); err != nil {
		return nil, invalidErr("score", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := compareAndSwap(ctx, tx, s.matches, input.MatchID, input.Version, func(m *bracket.Match) error {
		if m.Stage != bracket.StageFinals {
			return invalid("matchId", "match is not a finals match")
		}
		if m.Player1ID == nil || m.Player2ID == nil {
			return invalid("matchId", "both players must be known before the match can be scored")
		}
		if m.Completed && changesWinner(m, score) {
			if err := s.requireDownstreamOpen(ctx, tx, m); err != nil {
				return err
			}
		}
		m.Score1, m.Score2 = score.Score1, score.Score2
		m.Completed = true
		m.ClearReports()
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.advance(ctx, tx, match)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.InvalidateTournament(match.TournamentID)
	s.logger.Info("finals score recorded",
		"operation", "finals.score",
		"tournament_id", match.TournamentID,
		"match_id", match.ID,
		"mode", match.Mode,
		"round", match.RoundOrEmpty(),
		"complete", result.IsComplete,
	)
	return result, nil
}

// advance applies the bracket wiring for a completed finals match. It must run in
// the same transaction that completed m.
func (s *FinalsService) advance(ctx context.Context, exec sqlx.ExtContext, m *bracket.Match) (*AdvanceResult, error) {
	winner, loser := m.Result()
	if winner == nil || loser == nil {
		return nil, invalidErr("score", bracket.ErrNoWinner)
	}
	result := &AdvanceResult{Match: m, WinnerID: winner, LoserID: loser}

	descriptors, err := bracket.Structure(bracket.FinalsSize)
	if err != nil {
		return nil, err
	}
	d, ok := bracket.Lookup(descriptors, m.MatchNumber)
	if !ok {
		return nil, fmt.Errorf("match number %d is not part of the bracket", m.MatchNumber)
	}

	switch d.Round {
	case bracket.GrandFinal:
		if *winner == *m.Player1ID {
			// The winners-bracket finalist is still unbeaten: no reset needed.
			if err := s.clearReset(ctx, exec, m); err != nil {
				return nil, err
			}
			result.IsComplete, result.Champion = true, winner
			return result, nil
		}
		if err := s.populateReset(ctx, exec, m); err != nil {
			return nil, err
		}
		return result, nil

	case bracket.GrandFinalReset:
		result.IsComplete, result.Champion = true, winner
		return result, nil
	}

	if d.WinnerGoesTo != nil {
		if _, err := s.placeInSlot(ctx, exec, m, *d.WinnerGoesTo, d.WinnerSlot, *winner); err != nil {
			return nil, err
		}
	}
	if d.LoserGoesTo != nil {
		if _, err := s.placeInSlot(ctx, exec, m, *d.LoserGoesTo, d.LoserSlot, *loser); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// changesWinner reports whether score would flip the result already stored on m.
func changesWinner(m *bracket.Match, score bracket.ScorePair) bool {
	winner, _ := m.Result()
	if winner == nil {
		return true
	}
	next := m.Player2ID
	if score.Score1 > score.Score2 {
		next = m.Player1ID
	}
	return *winner != *next
}

// requireDownstreamOpen rejects a corrected result when a match it fed has been
// played, since that match would then credit a player who never played it.
func (s *FinalsService) requireDownstreamOpen(ctx context.Context, exec sqlx.ExtContext, m *bracket.Match) error {
	descriptors, err := bracket.Structure(bracket.FinalsSize)
	if err != nil {
		return err
	}
	d, ok := bracket.Lookup(descriptors, m.MatchNumber)
	if !ok {
		return fmt.Errorf("match number %d is not part of the bracket", m.MatchNumber)
	}

	var targets []int
	if d.WinnerGoesTo != nil {
		targets = append(targets, *d.WinnerGoesTo)
	}
	if d.LoserGoesTo != nil {
		targets = append(targets, *d.LoserGoesTo)
	}
	if d.Round == bracket.GrandFinal {
		number, err := s.resetNumber()
		if err != nil {
			return err
		}
		targets = append(targets, number)
	}

	for _, number := range targets {
		target, err := s.matches.GetMatchByNumber(ctx, exec, m.TournamentID, m.Mode, bracket.StageFinals, number)
		if err != nil {
			return fmt.Errorf("failed to load match %d: %w", number, err)
		}
		if target.Completed {
			return &ValidationError{
				Field:   "matchId",
				Message: fmt.Sprintf("match %d has already been played; reset the bracket to change this result", number),
				Err:     ErrDownstreamPlayed,
			}
		}
	}
	return nil
}

func (s *FinalsService) resetNumber() (int, error) {
	descriptors, err := bracket.Structure(bracket.FinalsSize)
	if err != nil {
		return 0, err
	}
	for _, d := range descriptors {
		if d.Round == bracket.GrandFinalReset {
			return d.MatchNumber, nil
		}
	}
	return 0, fmt.Errorf("bracket has no %s match", bracket.GrandFinalReset)
}

// populateReset seats both grand finalists in the reset match, keeping their slots.
func (s *FinalsService) populateReset(ctx context.Context, exec sqlx.ExtContext, gf *bracket.Match) error {
	number, err := s.resetNumber()
	if err != nil {
		return err
	}
	reset, err := s.matches.GetMatchByNumber(ctx, exec, gf.TournamentID, gf.Mode, bracket.StageFinals, number)
	if err != nil {
		return fmt.Errorf("failed to load reset match: %w", err)
	}
	reset.Player1ID, reset.Player2ID = gf.Player1ID, gf.Player2ID
	reset.Score1, reset.Score2, reset.Completed, reset.Races = 0, 0, false, nil
	reset.ClearReports()
	return s.matches.UpdateWithVersion(ctx, exec, reset, reset.Version)
}

// clearReset empties a reset match left over from a corrected grand final result.
func (s *FinalsService) clearReset(ctx context.Context, exec sqlx.ExtContext, gf *bracket.Match) error {
	number, err := s.resetNumber()
	if err != nil {
		return err
	}
	reset, err := s.matches.GetMatchByNumber(ctx, exec, gf.TournamentID, gf.Mode, bracket.StageFinals, number)
	if err != nil {
		return fmt.Errorf("failed to load reset match: %w", err)
	}
	if reset.Player1ID == nil && reset.Player2ID == nil {
		return nil
	}
	reset.Player1ID, reset.Player2ID = nil, nil
	reset.Score1, reset.Score2, reset.Completed, reset.Races = 0, 0, false, nil
	reset.ClearReports()
	return s.matches.UpdateWithVersion(ctx, exec, reset, reset.Version)
}
