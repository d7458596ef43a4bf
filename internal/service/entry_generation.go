package service

import (
	"sort"

	"github.com/google/uuid"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/utils"
)

// roundRobinPairs returns every pairing of n players as zero-based index pairs,
// grouped round by round with the circle method so nobody plays twice in a row
// more than necessary. With an odd n one player sits out each round.
func roundRobinPairs(n int) [][2]int {
	if n < 2 {
		return [][2]int{}
	}

	slots := make([]int, 0, n+1)
	for i := 0; i < n; i++ {
		slots = append(slots, i)
	}
	if n%2 != 0 {
		slots = append(slots, -1)
	}

	size := len(slots)
	pairs := make([][2]int, 0, n*(n-1)/2)
	for round := 0; round < size-1; round++ {
		for i := 0; i < size/2; i++ {
			a, b := slots[i], slots[size-1-i]
			if a < 0 || b < 0 {
				continue
			}
			if a > b {
				a, b = b, a
			}
			pairs = append(pairs, [2]int{a, b})
		}
		// Keep the first slot fixed and rotate the rest by one.
		last := slots[size-1]
		copy(slots[2:], slots[1:size-1])
		slots[1] = last
	}
	return pairs
}

// generateQualificationMatches builds round-robin matches inside every group.
// Groups are processed in name order and match numbers run across groups.
func generateQualificationMatches(tournamentID uuid.UUID, mode bracket.Mode, records []bracket.Qualification) []bracket.Match {
	groups := map[string][]uuid.UUID{}
	for _, r := range records {
		groups[r.GroupName] = append(groups[r.GroupName], r.PlayerID)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var matches []bracket.Match
	number := 1
	for _, name := range names {
		members := groups[name]
		for _, pair := range roundRobinPairs(len(members)) {
			p1, p2 := members[pair[0]], members[pair[1]]
			matches = append(matches, bracket.Match{
				ID:           uuid.New(),
				TournamentID: tournamentID,
				Mode:         mode,
				Stage:        bracket.StageQualification,
				MatchNumber:  number,
				GroupName:    utils.Ptr(name),
				Player1ID:    &p1,
				Player2ID:    &p2,
				Version:      1,
			})
			number++
		}
	}
	return matches
}
