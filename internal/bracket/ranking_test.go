package bracket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func finished(number int, p1, p2 uuid.UUID, s1, s2 int) Match {
	return Match{
		Stage: StageFinals, MatchNumber: number,
		Player1ID: &p1, Player2ID: &p2, Score1: s1, Score2: s2, Completed: true,
	}
}

func TestMatchResult(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	m := finished(1, a, b, 1, 3)
	w, l := m.Result()
	assert.Equal(t, b, *w)
	assert.Equal(t, a, *l)

	m.Completed = false
	w, l = m.Result()
	assert.Nil(t, w)
	assert.Nil(t, l)
}

func TestAggregate(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	t.Run("battle mode", func(t *testing.T) {
		matches := []Match{
			{Stage: StageQualification, Player1ID: &a, Player2ID: &b, Score1: 3, Score2: 1, Completed: true},
			{Stage: StageQualification, Player1ID: &c, Player2ID: &a, Score1: 2, Score2: 2, Completed: true},
			{Stage: StageQualification, Player1ID: &b, Player2ID: &c, Score1: 4, Score2: 0, Completed: true},
			{Stage: StageQualification, Player1ID: &a, Player2ID: &c, Score1: 0, Score2: 0},
		}
		rec := Qualification{Mode: BattleMode, PlayerID: a, Wins: 9}
		Aggregate(&rec, matches)

		assert.Equal(t, 2, rec.MatchesPlayed)
		assert.Equal(t, 1, rec.Wins)
		assert.Equal(t, 1, rec.Ties)
		assert.Equal(t, 0, rec.Losses)
		assert.Equal(t, 3, rec.Score)
		assert.Equal(t, 2, rec.Points)
	})

	t.Run("grand prix sums driver points", func(t *testing.T) {
		matches := []Match{
			{Stage: StageQualification, Player1ID: &a, Player2ID: &b, Score1: 33, Score2: 27, Completed: true},
			{Stage: StageQualification, Player1ID: &b, Player2ID: &a, Score1: 30, Score2: 12, Completed: true},
		}
		rec := Qualification{Mode: GrandPrix, PlayerID: a}
		Aggregate(&rec, matches)

		assert.Equal(t, 1, rec.Wins)
		assert.Equal(t, 1, rec.Losses)
		assert.Equal(t, 2, rec.Score)
		assert.Equal(t, 45, rec.Points)
	})
}

func TestSortQualifications(t *testing.T) {
	records := []Qualification{
		{Nickname: "c", Score: 4, Points: 1},
		{Nickname: "b", Score: 6, Points: 0},
		{Nickname: "a", Score: 4, Points: 1},
		{Nickname: "d", Score: 4, Points: 5},
	}
	SortQualifications(records)

	order := []string{}
	for _, r := range records {
		order = append(order, r.Nickname)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, order)
}

func TestRankTimeAttack(t *testing.T) {
	entries := []TimeAttackEntry{
		{Nickname: "slow", CoursesCompleted: 20, TotalTime: 200000},
		{Nickname: "partial", CoursesCompleted: 19, TotalTime: 100000},
		{Nickname: "fast", CoursesCompleted: 20, TotalTime: 190000},
	}
	RankTimeAttack(entries)

	assert.Equal(t, "fast", entries[0].Nickname)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "slow", entries[1].Nickname)
	assert.Equal(t, "partial", entries[2].Nickname)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestPlacements(t *testing.T) {
	p := make([]uuid.UUID, 8)
	for i := range p {
		p[i] = uuid.New()
	}

	matches := []Match{
		finished(8, p[4], p[7], 3, 0),
		finished(9, p[5], p[6], 3, 1),
		finished(10, p[4], p[3], 3, 2),
		finished(11, p[5], p[2], 3, 2),
		finished(12, p[4], p[5], 3, 1),
		finished(13, p[1], p[4], 3, 0),
		finished(14, p[0], p[1], 3, 2),
	}

	t.Run("winners side takes the grand final", func(t *testing.T) {
		places := Placements(matches)
		assert.Equal(t, 1, places[p[0]])
		assert.Equal(t, 2, places[p[1]])
		assert.Equal(t, 3, places[p[4]])
		assert.Equal(t, 4, places[p[5]])
		assert.Equal(t, 5, places[p[3]])
		assert.Equal(t, 5, places[p[2]])
		assert.Equal(t, 7, places[p[7]])
		assert.Equal(t, 7, places[p[6]])
	})

	t.Run("losers side forces a reset", func(t *testing.T) {
		withReset := append([]Match{}, matches[:6]...)
		withReset = append(withReset, finished(14, p[0], p[1], 2, 3))

		places := Placements(withReset)
		_, decided := places[p[0]]
		assert.False(t, decided)

		withReset = append(withReset, finished(15, p[0], p[1], 1, 3))
		places = Placements(withReset)
		assert.Equal(t, 1, places[p[1]])
		assert.Equal(t, 2, places[p[0]])
	})
}

func TestPointTables(t *testing.T) {
	assert.Equal(t, 50, QualificationPoints(1))
	assert.Equal(t, 48, QualificationPoints(2))
	assert.Equal(t, 0, QualificationPoints(40))
	assert.Equal(t, 0, QualificationPoints(0))

	assert.Equal(t, 100, FinalsPoints(1))
	assert.Equal(t, 25, FinalsPoints(5))
	assert.Equal(t, 15, FinalsPoints(7))
	assert.Equal(t, 0, FinalsPoints(9))
}
