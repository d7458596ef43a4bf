package views

import (
	"sort"

	"github.com/google/uuid"

	"github.com/smkcup/kart-tournament/internal/bracket"
)

// Column is one round of the bracket as it is drawn left to right.
type Column struct {
	Round   bracket.Round
	Label   string
	Matches []bracket.Match
}

type BracketData struct {
	Winners  []Column
	Losers   []Column
	Finals   []Column
	Names    map[uuid.UUID]string
	Champion *uuid.UUID
}

var (
	winnersOrder = []bracket.Round{bracket.WinnersQF, bracket.WinnersSF, bracket.WinnersFinal}
	losersOrder  = []bracket.Round{bracket.LosersR1, bracket.LosersR2, bracket.LosersSF, bracket.LosersFinal}
	finalsOrder  = []bracket.Round{bracket.GrandFinal, bracket.GrandFinalReset}
)

var roundLabels = map[bracket.Round]string{
	bracket.WinnersQF:       "Winners Quarterfinals",
	bracket.WinnersSF:       "Winners Semifinals",
	bracket.WinnersFinal:    "Winners Final",
	bracket.LosersR1:        "Losers Round 1",
	bracket.LosersR2:        "Losers Round 2",
	bracket.LosersSF:        "Losers Semifinal",
	bracket.LosersFinal:     "Losers Final",
	bracket.GrandFinal:      "Grand Final",
	bracket.GrandFinalReset: "Grand Final Reset",
}

// PrepareBracketData groups finals matches into drawable columns. Rounds with no
// matches are left out, so an unplayed reset match does not get a column.
func PrepareBracketData(matches []bracket.Match, names map[uuid.UUID]string, champion *uuid.UUID) BracketData {
	byRound := make(map[bracket.Round][]bracket.Match)
	for _, m := range matches {
		if m.Round == nil {
			continue
		}
		byRound[*m.Round] = append(byRound[*m.Round], m)
	}
	for _, ms := range byRound {
		sort.Slice(ms, func(i, j int) bool {
			return ms[i].MatchNumber < ms[j].MatchNumber
		})
	}

	return BracketData{
		Winners:  columns(byRound, winnersOrder),
		Losers:   columns(byRound, losersOrder),
		Finals:   columns(byRound, finalsOrder),
		Names:    names,
		Champion: champion,
	}
}

func columns(byRound map[bracket.Round][]bracket.Match, order []bracket.Round) []Column {
	var cols []Column
	for _, round := range order {
		ms := byRound[round]
		if len(ms) == 0 {
			continue
		}
		cols = append(cols, Column{Round: round, Label: roundLabels[round], Matches: ms})
	}
	return cols
}

// Name returns the nickname for a slot, or a placeholder while the slot is open.
func (d BracketData) Name(id *uuid.UUID) string {
	if id == nil {
		return "TBD"
	}
	if name, ok := d.Names[*id]; ok {
		return name
	}
	return "Unknown"
}

// Side is one half of the drawn bracket: winners, losers or the grand finals.
type Side struct {
	Name    string
	Columns []Column
}

// Sides returns the non-empty sides in drawing order.
func (d BracketData) Sides() []Side {
	var sides []Side
	for _, s := range []Side{
		{"winners", d.Winners},
		{"losers", d.Losers},
		{"finals", d.Finals},
	} {
		if len(s.Columns) > 0 {
			sides = append(sides, s)
		}
	}
	return sides
}

func (d BracketData) Empty() bool {
	return len(d.Winners)+len(d.Losers)+len(d.Finals) == 0
}
