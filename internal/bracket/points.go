package bracket

import (
	"errors"
	"fmt"
)

const (
	GrandPrixRaces = 4
	MaxPosition    = 8
)

var ErrInvalidRaces = errors.New("invalid race results")

// driverPoints is the single position-to-points table used for every Grand Prix
// result, whether entered by an admin or reported by a player.
var driverPoints = map[int]int{1: 9, 2: 6, 3: 3, 4: 1}

// DriverPoints returns the points awarded for a finishing position.
func DriverPoints(position int) int {
	return driverPoints[position]
}

// ValidateRaces checks a Grand Prix set: exactly four races, positions 1..8 and
// never shared within a race.
func ValidateRaces(races RaceResults) error {
	if len(races) != GrandPrixRaces {
		return fmt.Errorf("%w: expected %d races, got %d", ErrInvalidRaces, GrandPrixRaces, len(races))
	}
	for i, r := range races {
		if r.Position1 < 1 || r.Position1 > MaxPosition || r.Position2 < 1 || r.Position2 > MaxPosition {
			return fmt.Errorf("%w: race %d positions must be between 1 and %d", ErrInvalidRaces, i+1, MaxPosition)
		}
		if r.Position1 == r.Position2 {
			return fmt.Errorf("%w: race %d has both players in position %d", ErrInvalidRaces, i+1, r.Position1)
		}
	}
	return nil
}

// ScoreFromRaces sums driver points per player across the set.
func ScoreFromRaces(races RaceResults) (ScorePair, error) {
	if err := ValidateRaces(races); err != nil {
		return ScorePair{}, err
	}
	var s ScorePair
	for _, r := range races {
		s.Score1 += DriverPoints(r.Position1)
		s.Score2 += DriverPoints(r.Position2)
	}
	return s, nil
}
