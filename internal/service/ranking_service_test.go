package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/cache"
	"github.com/smkcup/kart-tournament/internal/store"
)

func TestStandingsAreCached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := env.createTournament(t)
	players := env.createPlayers(t, 2)

	view, err := env.qualify.Setup(ctx, tournament.ID, bracket.BattleMode, []SetupEntry{{PlayerID: players[0].ID}, {PlayerID: players[1].ID}})
	require.NoError(t, err)

	first, err := env.standings.Get(ctx, tournament.ID, bracket.BattleMode)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ETag)
	assert.Equal(t, 1, env.cache.Len())

	again, err := env.standings.Get(ctx, tournament.ID, bracket.BattleMode)
	require.NoError(t, err)
	assert.Equal(t, first.ETag, again.ETag)

	_, err = env.qualify.ScoreMatch(ctx, ScoreInput{MatchID: view.Matches[0].ID, Score1: 3, Score2: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, env.cache.Len(), "a score change invalidates the tournament")

	changed, err := env.standings.Get(ctx, tournament.ID, bracket.BattleMode)
	require.NoError(t, err)
	assert.NotEqual(t, first.ETag, changed.ETag)

	records, ok := changed.Data.([]bracket.Qualification)
	require.True(t, ok)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].Score)
}

func TestTimeAttackStandings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := env.createTournament(t)
	players := env.createPlayers(t, 1)

	_, err := env.timeAttack.Setup(ctx, tournament.ID, []uuid.UUID{players[0].ID})
	require.NoError(t, err)

	entry, err := env.standings.Get(ctx, tournament.ID, bracket.TimeAttack)
	require.NoError(t, err)
	entries, ok := entry.Data.([]bracket.TimeAttackEntry)
	require.True(t, ok)
	assert.Len(t, entries, 1)

	key := cache.Key{TournamentID: tournament.ID, Mode: bracket.TimeAttack, Stage: bracket.StageQualification}
	_, cached := env.cache.Get(key)
	assert.True(t, cached)
}

func TestOverallRanking(t *testing.T) {
	ctx := context.Background()
	f := newFinalsFixture(t, bracket.BattleMode)
	env := f.env
	tournamentID := f.view.Matches[0].TournamentID
	f.playToGrandFinal(t)
	f.play(t, 14, 1)

	_, err := env.timeAttack.Setup(ctx, tournamentID, []uuid.UUID{f.players[0].ID, f.players[1].ID})
	require.NoError(t, err)

	ranking, err := env.ranking.Overall(ctx, tournamentID)
	require.NoError(t, err)
	require.Len(t, ranking, 8)

	top := ranking[0]
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, f.players[0].ID, top.PlayerID)

	bm := top.Modes[bracket.BattleMode]
	assert.Equal(t, 1, bm.QualificationRank)
	assert.Equal(t, bracket.QualificationPoints(1), bm.QualificationPoints)
	assert.Equal(t, 1, bm.FinalsPlace)
	assert.Equal(t, bracket.FinalsPoints(1), bm.FinalsPoints)

	_, hasTA := top.Modes[bracket.TimeAttack]
	assert.True(t, hasTA)

	total := 0
	for _, points := range top.Modes {
		total += points.QualificationPoints + points.FinalsPoints
	}
	assert.Equal(t, total, top.Total)

	for i := 1; i < len(ranking); i++ {
		assert.GreaterOrEqual(t, ranking[i-1].Total, ranking[i].Total)
		assert.Equal(t, i+1, ranking[i].Rank)
	}

	_, err = env.ranking.Overall(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
