package bracket

import (
	"errors"
	"fmt"
)

const (
	// FinalsWinsRequired is the win target of a best-of-5 finals set.
	FinalsWinsRequired = 3
	// QualificationRounds is the number of rounds (BM) or races (MR, GP) in a qualification match.
	QualificationRounds = 4
)

var (
	ErrNoWinner     = errors.New("score has no winner")
	ErrInvalidScore = errors.New("invalid score")
)

// Winner returns the winning slot (1 or 2), or 0 for a tie.
func (s ScorePair) Winner() int {
	switch {
	case s.Score1 > s.Score2:
		return 1
	case s.Score2 > s.Score1:
		return 2
	}
	return 0
}

// ValidateFinalsScore checks the first-to-3 condition: exactly one side has 3 wins.
func ValidateFinalsScore(s ScorePair) error {
	if s.Score1 < 0 || s.Score2 < 0 {
		return fmt.Errorf("%w: scores must not be negative", ErrInvalidScore)
	}
	if s.Score1 > FinalsWinsRequired || s.Score2 > FinalsWinsRequired {
		return fmt.Errorf("%w: scores must not exceed %d", ErrInvalidScore, FinalsWinsRequired)
	}
	if (s.Score1 == FinalsWinsRequired) == (s.Score2 == FinalsWinsRequired) {
		return fmt.Errorf("%w: one player must reach %d wins", ErrNoWinner, FinalsWinsRequired)
	}
	return nil
}

// ValidateQualificationScore checks a BM/MR qualification result: every round is
// decided, so the two scores add up to the round count. Ties are allowed.
func ValidateQualificationScore(s ScorePair) error {
	if s.Score1 < 0 || s.Score2 < 0 {
		return fmt.Errorf("%w: scores must not be negative", ErrInvalidScore)
	}
	if s.Score1+s.Score2 != QualificationRounds {
		return fmt.Errorf("%w: scores must add up to %d", ErrInvalidScore, QualificationRounds)
	}
	return nil
}
