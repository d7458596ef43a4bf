package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/store"
	users "github.com/smkcup/kart-tournament/internal/user"
	"github.com/smkcup/kart-tournament/internal/utils"
)

type finalsFixture struct {
	env     *testEnv
	players []users.Player
	view    *FinalsView
	mode    bracket.Mode
}

func newFinalsFixture(t *testing.T, mode bracket.Mode) *finalsFixture {
	t.Helper()
	env := newTestEnv(t)
	tournament := env.createTournament(t)
	players := env.createPlayers(t, 8)
	env.seedQualification(t, tournament.ID, mode, players)

	view, err := env.finals.Generate(context.Background(), tournament.ID, mode, 8)
	require.NoError(t, err)
	return &finalsFixture{env: env, players: players, view: view, mode: mode}
}

func (f *finalsFixture) match(t *testing.T, number int) *bracket.Match {
	t.Helper()
	ref := f.view.Matches[number-1]
	m, err := f.env.matches.GetMatchByNumber(context.Background(), f.env.db, ref.TournamentID, f.mode, bracket.StageFinals, number)
	require.NoError(t, err)
	return m
}

// play scores a match so that the player in slot winnerSlot wins 3-1.
func (f *finalsFixture) play(t *testing.T, number, winnerSlot int) *AdvanceResult {
	t.Helper()
	input := UpdateScoreInput{MatchID: f.match(t, number).ID, Score1: 3, Score2: 1}
	if winnerSlot == 2 {
		input.Score1, input.Score2 = 1, 3
	}
	result, err := f.env.finals.UpdateScore(context.Background(), input)
	require.NoError(t, err)
	return result
}

func TestUpdateScoreAdvancesBothPlayers(t *testing.T) {
	f := newFinalsFixture(t, bracket.BattleMode)
	seed1, seed8 := f.players[0].ID, f.players[7].ID

	result := f.play(t, 1, 1)
	assert.Equal(t, seed1, *result.WinnerID)
	assert.Equal(t, seed8, *result.LoserID)
	assert.False(t, result.IsComplete)
	assert.Nil(t, result.Champion)
	assert.Equal(t, bracket.MatchCompleted, result.Match.State())
	assert.Equal(t, 2, result.Match.Version)

	semi := f.match(t, 5)
	require.NotNil(t, semi.Player1ID)
	assert.Equal(t, seed1, *semi.Player1ID, "winner of M1 takes slot 1 of M5")
	assert.Nil(t, semi.Player2ID)

	losers := f.match(t, 8)
	require.NotNil(t, losers.Player1ID)
	assert.Equal(t, seed8, *losers.Player1ID, "loser of M1 drops to slot 1 of M8")
}

func TestUpdateScoreRejectsInvalidScores(t *testing.T) {
	f := newFinalsFixture(t, bracket.MatchRace)
	ctx := context.Background()
	m := f.match(t, 1)

	for _, score := range []bracket.ScorePair{{Score1: 2, Score2: 1}, {Score1: 3, Score2: 3}, {Score1: 0, Score2: 0}} {
		_, err := f.env.finals.UpdateScore(ctx, UpdateScoreInput{MatchID: m.ID, Score1: score.Score1, Score2: score.Score2})
		assert.ErrorIs(t, err, ErrValidation)
		assert.ErrorIs(t, err, bracket.ErrNoWinner)
	}

	after := f.match(t, 1)
	assert.Equal(t, m.Version, after.Version, "rejected scores never write")
	assert.False(t, after.Completed)

	_, err := f.env.finals.UpdateScore(ctx, UpdateScoreInput{MatchID: f.match(t, 5).ID, Score1: 3, Score2: 0})
	assert.ErrorIs(t, err, ErrValidation, "players of M5 are not known yet")
}

func TestUpdateScoreVersionCheck(t *testing.T) {
	f := newFinalsFixture(t, bracket.BattleMode)
	ctx := context.Background()
	m := f.match(t, 2)

	_, err := f.env.finals.UpdateScore(ctx, UpdateScoreInput{MatchID: m.ID, Score1: 3, Score2: 0, Version: utils.Ptr(m.Version)})
	require.NoError(t, err)

	_, err = f.env.finals.UpdateScore(ctx, UpdateScoreInput{MatchID: m.ID, Score1: 0, Score2: 3, Version: utils.Ptr(m.Version)})
	var conflict *store.VersionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, m.Version+1, conflict.Current)

	after := f.match(t, 2)
	assert.Equal(t, 3, after.Score1, "stale write leaves the match unchanged")
	assert.Equal(t, 0, after.Score2)
}

// playToGrandFinal runs the bracket so seed 1 wins the winners bracket and
// seed 2 comes through the losers bracket.
func (f *finalsFixture) playToGrandFinal(t *testing.T) {
	t.Helper()
	for n := 1; n <= 4; n++ {
		f.play(t, n, 1)
	}
	f.play(t, 5, 1)
	f.play(t, 6, 1)
	f.play(t, 7, 1)
	for n := 8; n <= 13; n++ {
		f.play(t, n, 1)
	}
}

func TestGrandFinalWonByWinnersSide(t *testing.T) {
	f := newFinalsFixture(t, bracket.GrandPrix)
	f.playToGrandFinal(t)

	gf := f.match(t, 14)
	require.NotNil(t, gf.Player1ID)
	require.NotNil(t, gf.Player2ID)
	assert.Equal(t, f.players[0].ID, *gf.Player1ID)

	result := f.play(t, 14, 1)
	assert.True(t, result.IsComplete)
	require.NotNil(t, result.Champion)
	assert.Equal(t, f.players[0].ID, *result.Champion)

	reset := f.match(t, 15)
	assert.Nil(t, reset.Player1ID)

	view, err := f.env.finals.Get(context.Background(), gf.TournamentID, bracket.GrandPrix)
	require.NoError(t, err)
	assert.True(t, view.IsComplete)
	assert.Equal(t, f.players[0].ID, *view.Champion)
}

func TestGrandFinalReset(t *testing.T) {
	f := newFinalsFixture(t, bracket.BattleMode)
	f.playToGrandFinal(t)

	gf := f.match(t, 14)
	result := f.play(t, 14, 2)
	assert.False(t, result.IsComplete)
	assert.Nil(t, result.Champion)

	reset := f.match(t, 15)
	require.NotNil(t, reset.Player1ID)
	require.NotNil(t, reset.Player2ID)
	assert.Equal(t, *gf.Player1ID, *reset.Player1ID)
	assert.Equal(t, *gf.Player2ID, *reset.Player2ID)
	assert.Equal(t, bracket.MatchPending, reset.State())

	t.Run("correcting the grand final clears the unplayed reset", func(t *testing.T) {
		corrected := f.play(t, 14, 1)
		assert.True(t, corrected.IsComplete)

		reset := f.match(t, 15)
		assert.Nil(t, reset.Player1ID)
		assert.False(t, reset.Completed)
	})

	f.play(t, 14, 2)
	final := f.play(t, 15, 2)
	assert.True(t, final.IsComplete)
	require.NotNil(t, final.Champion)
	assert.Equal(t, *gf.Player2ID, *final.Champion)
}

func TestCorrectionAfterDownstreamPlayed(t *testing.T) {
	f := newFinalsFixture(t, bracket.BattleMode)
	ctx := context.Background()
	seed1, seed8 := f.players[0].ID, f.players[7].ID

	f.play(t, 1, 1)
	f.play(t, 2, 1)
	f.play(t, 5, 1)

	m1 := f.match(t, 1)
	_, err := f.env.finals.UpdateScore(ctx, UpdateScoreInput{MatchID: m1.ID, Score1: 1, Score2: 3})
	require.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrDownstreamPlayed)

	after := f.match(t, 1)
	assert.Equal(t, m1.Version, after.Version, "a rejected correction never writes")
	assert.Equal(t, 3, after.Score1)
	semi := f.match(t, 5)
	assert.Equal(t, seed1, *semi.Player1ID)
	assert.True(t, semi.Completed)
	losers := f.match(t, 8)
	assert.Equal(t, seed8, *losers.Player1ID, "seed 1 never drops into the losers bracket")

	t.Run("same winner may still be corrected", func(t *testing.T) {
		result, err := f.env.finals.UpdateScore(ctx, UpdateScoreInput{MatchID: m1.ID, Score1: 3, Score2: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Match.Score2)
		assert.Equal(t, seed1, *f.match(t, 5).Player1ID)
	})
}

func TestCorrectionBeforeDownstreamPlayed(t *testing.T) {
	f := newFinalsFixture(t, bracket.MatchRace)
	seed1, seed8 := f.players[0].ID, f.players[7].ID

	f.play(t, 1, 1)
	f.play(t, 1, 2)

	semi := f.match(t, 5)
	require.NotNil(t, semi.Player1ID)
	assert.Equal(t, seed8, *semi.Player1ID, "the corrected winner moves up")
	losers := f.match(t, 8)
	require.NotNil(t, losers.Player1ID)
	assert.Equal(t, seed1, *losers.Player1ID, "the corrected loser drops down")
}

func TestGrandFinalCorrectionAfterReset(t *testing.T) {
	f := newFinalsFixture(t, bracket.GrandPrix)
	f.playToGrandFinal(t)

	f.play(t, 14, 2)
	f.play(t, 15, 1)

	gf := f.match(t, 14)
	_, err := f.env.finals.UpdateScore(context.Background(), UpdateScoreInput{MatchID: gf.ID, Score1: 3, Score2: 0})
	assert.ErrorIs(t, err, ErrDownstreamPlayed)
	assert.True(t, f.match(t, 15).Completed, "the played reset match is kept")
}
