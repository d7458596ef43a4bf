package bracket

import (
	"sort"

	"github.com/google/uuid"
)

// Result returns winner and loser of a completed match. Both are nil for
// incomplete or tied matches.
func (m *Match) Result() (winner, loser *uuid.UUID) {
	if !m.Completed {
		return nil, nil
	}
	switch (ScorePair{Score1: m.Score1, Score2: m.Score2}).Winner() {
	case 1:
		return m.Player1ID, m.Player2ID
	case 2:
		return m.Player2ID, m.Player1ID
	}
	return nil, nil
}

// SortQualifications orders records by score, then points, then nickname.
func SortQualifications(records []Qualification) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return a.Nickname < b.Nickname
	})
}

// Aggregate recomputes a player's qualification record from every completed
// qualification match they played. Only the stat fields of rec are touched.
func Aggregate(rec *Qualification, matches []Match) {
	rec.MatchesPlayed, rec.Wins, rec.Ties, rec.Losses, rec.Points, rec.Score = 0, 0, 0, 0, 0, 0

	for i := range matches {
		m := &matches[i]
		if !m.Completed || m.Stage != StageQualification {
			continue
		}
		slot := m.SlotOf(rec.PlayerID)
		if slot == 0 {
			continue
		}

		own, opp := m.Score1, m.Score2
		if slot == 2 {
			own, opp = opp, own
		}

		rec.MatchesPlayed++
		switch {
		case own > opp:
			rec.Wins++
			rec.Score += 2
		case own == opp:
			rec.Ties++
			rec.Score++
		default:
			rec.Losses++
		}

		if rec.Mode == GrandPrix {
			rec.Points += own
		} else {
			rec.Points += own - opp
		}
	}
}

// RankTimeAttack sorts entries by courses completed, then total time, and
// assigns 1-based ranks.
func RankTimeAttack(entries []TimeAttackEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.CoursesCompleted != b.CoursesCompleted {
			return a.CoursesCompleted > b.CoursesCompleted
		}
		if a.TotalTime != b.TotalTime {
			return a.TotalTime < b.TotalTime
		}
		return a.Nickname < b.Nickname
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// Final placement reached by the loser of each losers-bracket match.
var loserPlacement = map[int]int{13: 3, 12: 4, 11: 5, 10: 5, 9: 7, 8: 7}

// Placements derives final positions from the finals matches of one mode.
// Players still alive in the bracket are absent from the result.
func Placements(matches []Match) map[uuid.UUID]int {
	byNumber := make(map[int]*Match, len(matches))
	for i := range matches {
		if matches[i].Stage == StageFinals {
			byNumber[matches[i].MatchNumber] = &matches[i]
		}
	}

	places := make(map[uuid.UUID]int)
	for number, place := range loserPlacement {
		if m, ok := byNumber[number]; ok {
			if _, loser := m.Result(); loser != nil {
				places[*loser] = place
			}
		}
	}

	gf, reset := byNumber[14], byNumber[15]
	var champion, runnerUp *uuid.UUID
	if reset != nil && reset.Completed {
		champion, runnerUp = reset.Result()
	} else if gf != nil && gf.Completed {
		if w, l := gf.Result(); w != nil && gf.Player1ID != nil && *w == *gf.Player1ID {
			champion, runnerUp = w, l
		}
	}
	if champion != nil {
		places[*champion] = 1
	}
	if runnerUp != nil {
		places[*runnerUp] = 2
	}
	return places
}

// QualificationPoints awards overall-ranking points for a qualification rank.
func QualificationPoints(rank int) int {
	if rank < 1 {
		return 0
	}
	return max(0, 50-2*(rank-1))
}

var finalsPoints = map[int]int{1: 100, 2: 70, 3: 50, 4: 40, 5: 25, 7: 15}

// FinalsPoints awards overall-ranking points for a finals placement.
func FinalsPoints(place int) int {
	return finalsPoints[place]
}
