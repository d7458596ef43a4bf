package bracket

import (
	"errors"
	"fmt"

	"github.com/smkcup/kart-tournament/internal/utils"
)

// FinalsSize is the only bracket size currently supported.
const FinalsSize = 8

var ErrUnsupportedBracketSize = errors.New("unsupported bracket size")

// Descriptor describes one match of the double-elimination bracket. Seeds are set
// only for first-round winners matches; the other slots are filled by advancement.
type Descriptor struct {
	MatchNumber  int   `json:"matchNumber"`
	Round        Round `json:"round"`
	Seed1        *int  `json:"seed1"`
	Seed2        *int  `json:"seed2"`
	WinnerGoesTo *int  `json:"winnerGoesTo"`
	WinnerSlot   int   `json:"winnerSlot,omitempty"`
	LoserGoesTo  *int  `json:"loserGoesTo"`
	LoserSlot    int   `json:"loserSlot,omitempty"`
}

// IsTerminal reports whether nobody advances out of this match.
func (d Descriptor) IsTerminal() bool {
	return d.WinnerGoesTo == nil
}

type link struct {
	to, slot int
}

// Wiring for the 8-player format. Losers of the winners semifinals cross over
// (M5 -> M11, M6 -> M10) so first-round opponents don't meet again immediately.
var eightPlayerLayout = []struct {
	number int
	round  Round
	winner *link
	loser  *link
}{
	{1, WinnersQF, &link{5, 1}, &link{8, 1}},
	{2, WinnersQF, &link{5, 2}, &link{8, 2}},
	{3, WinnersQF, &link{6, 1}, &link{9, 1}},
	{4, WinnersQF, &link{6, 2}, &link{9, 2}},
	{5, WinnersSF, &link{7, 1}, &link{11, 2}},
	{6, WinnersSF, &link{7, 2}, &link{10, 2}},
	{7, WinnersFinal, &link{14, 1}, &link{13, 1}},
	{8, LosersR1, &link{10, 1}, nil},
	{9, LosersR1, &link{11, 1}, nil},
	{10, LosersR2, &link{12, 1}, nil},
	{11, LosersR2, &link{12, 2}, nil},
	{12, LosersSF, &link{13, 2}, nil},
	{13, LosersFinal, &link{14, 2}, nil},
	{14, GrandFinal, nil, nil},
	{15, GrandFinalReset, nil, nil},
}

// Structure returns the bracket layout for the given size. It is pure and must be
// used for generation, display and advancement alike so all three agree.
func Structure(size int) ([]Descriptor, error) {
	if size != FinalsSize {
		return nil, fmt.Errorf("%w: %d (only %d is supported)", ErrUnsupportedBracketSize, size, FinalsSize)
	}

	pairs := generateRound1Pairs(size)
	descriptors := make([]Descriptor, 0, len(eightPlayerLayout))
	for _, l := range eightPlayerLayout {
		d := Descriptor{MatchNumber: l.number, Round: l.round}
		if l.round == WinnersQF {
			pair := pairs[l.number-1]
			d.Seed1 = utils.Ptr(pair[0] + 1)
			d.Seed2 = utils.Ptr(pair[1] + 1)
		}
		if l.winner != nil {
			d.WinnerGoesTo = utils.Ptr(l.winner.to)
			d.WinnerSlot = l.winner.slot
		}
		if l.loser != nil {
			d.LoserGoesTo = utils.Ptr(l.loser.to)
			d.LoserSlot = l.loser.slot
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// Lookup finds the descriptor for a match number.
func Lookup(descriptors []Descriptor, matchNumber int) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.MatchNumber == matchNumber {
			return d, true
		}
	}
	return Descriptor{}, false
}

// generateRound1Pairs returns zero-based seed pairs in bracket order, so that the
// top seeds can only meet in the latest rounds (for 8: 1v8, 4v5, 2v7, 3v6).
func generateRound1Pairs(bracketSize int) [][2]int {
	if bracketSize == 0 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		pairs = append(pairs, [2]int{rounds[i], rounds[i+1]})
	}

	return pairs
}
