package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkcup/kart-tournament/internal/bracket"
	users "github.com/smkcup/kart-tournament/internal/user"
)

func playerIdentity(id uuid.UUID) *users.Identity {
	return &users.Identity{Role: users.RolePlayer, PlayerID: id}
}

func report(t *testing.T, env *testEnv, m *bracket.Match, slot, s1, s2 int) *ReportResult {
	t.Helper()
	result, err := env.reports.Report(context.Background(), ReportInput{
		MatchID:  m.ID,
		Identity: playerIdentity(*m.PlayerInSlot(slot)),
		Slot:     slot,
		Score1:   s1,
		Score2:   s2,
	})
	require.NoError(t, err)
	return result
}

func TestDualReportAutoConfirms(t *testing.T) {
	f := newFinalsFixture(t, bracket.BattleMode)
	m := f.match(t, 1)

	first := report(t, f.env, m, 1, 3, 1)
	assert.Equal(t, ReportWaiting, first.Status)
	assert.Equal(t, 2, first.PendingSlot)
	assert.False(t, first.AutoConfirmed)
	assert.False(t, first.Match.Completed)

	second := report(t, f.env, m, 2, 3, 1)
	assert.Equal(t, ReportConfirmed, second.Status)
	assert.True(t, second.AutoConfirmed)
	assert.True(t, second.Match.Completed)
	assert.Equal(t, 3, second.Match.Score1)
	assert.Equal(t, 1, second.Match.Score2)
	require.NotNil(t, second.Advance)
	assert.Equal(t, f.players[0].ID, *second.Advance.WinnerID)

	semi := f.match(t, 5)
	require.NotNil(t, semi.Player1ID)
	assert.Equal(t, f.players[0].ID, *semi.Player1ID)
	losers := f.match(t, 8)
	require.NotNil(t, losers.Player1ID)
	assert.Equal(t, f.players[7].ID, *losers.Player1ID)
}

func TestDualReportMismatch(t *testing.T) {
	f := newFinalsFixture(t, bracket.MatchRace)
	m := f.match(t, 1)

	report(t, f.env, m, 1, 3, 1)
	result := report(t, f.env, m, 2, 1, 3)

	assert.Equal(t, ReportMismatch, result.Status)
	assert.True(t, result.Mismatch)
	assert.False(t, result.AutoConfirmed)
	require.NotNil(t, result.Player1Report)
	require.NotNil(t, result.Player2Report)
	assert.Equal(t, bracket.ScorePair{Score1: 3, Score2: 1}, *result.Player1Report)
	assert.Equal(t, bracket.ScorePair{Score1: 1, Score2: 3}, *result.Player2Report)

	stored := f.match(t, 1)
	assert.False(t, stored.Completed)
	assert.Equal(t, 0, stored.Score1, "no canonical score on mismatch")

	t.Run("a corrected report reconciles", func(t *testing.T) {
		fixed := report(t, f.env, m, 2, 3, 1)
		assert.Equal(t, ReportConfirmed, fixed.Status)
	})

	t.Run("completed matches reject further reports", func(t *testing.T) {
		before := f.match(t, 1)
		_, err := f.env.reports.Report(context.Background(), ReportInput{
			MatchID: m.ID, Identity: playerIdentity(*m.Player1ID), Slot: 1, Score1: 3, Score2: 0,
		})
		assert.ErrorIs(t, err, ErrMatchCompleted)
		assert.Equal(t, before.Version, f.match(t, 1).Version)
	})
}

func TestReportValidation(t *testing.T) {
	f := newFinalsFixture(t, bracket.BattleMode)
	ctx := context.Background()
	m := f.match(t, 1)
	owner := playerIdentity(*m.Player1ID)

	testCases := []struct {
		name    string
		input   ReportInput
		wantErr error
	}{
		{"bad slot", ReportInput{MatchID: m.ID, Identity: owner, Slot: 3, Score1: 3}, ErrValidation},
		{"unknown character", ReportInput{MatchID: m.ID, Identity: owner, Slot: 1, Score1: 3, Character: "Wario"}, ErrValidation},
		{"no winner", ReportInput{MatchID: m.ID, Identity: owner, Slot: 1, Score1: 2, Score2: 2}, bracket.ErrNoWinner},
		{"other player's slot", ReportInput{MatchID: m.ID, Identity: owner, Slot: 2, Score1: 3}, ErrForbidden},
		{"stranger", ReportInput{MatchID: m.ID, Identity: playerIdentity(uuid.New()), Slot: 1, Score1: 3}, ErrForbidden},
		{"anonymous", ReportInput{MatchID: m.ID, Slot: 1, Score1: 3}, ErrUnauthorized},
		{"empty slot", ReportInput{MatchID: f.match(t, 5).ID, Identity: owner, Slot: 1, Score1: 3}, ErrValidation},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.env.reports.Report(ctx, tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("token for another tournament", func(t *testing.T) {
		other := uuid.New()
		identity := &users.Identity{Role: users.RolePlayer, PlayerID: *m.Player1ID, TournamentID: &other}
		_, err := f.env.reports.Report(ctx, ReportInput{MatchID: m.ID, Identity: identity, Slot: 1, Score1: 3})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	stored := f.match(t, 1)
	assert.Equal(t, 1, stored.Version, "validation failures never write")
	_, ok := stored.Reported(1)
	assert.False(t, ok)
}

func TestAdminMayReportForEitherSlot(t *testing.T) {
	f := newFinalsFixture(t, bracket.BattleMode)
	m := f.match(t, 3)
	admin := &users.Identity{Role: users.RoleAdmin, UserID: uuid.New()}

	result, err := f.env.reports.Report(context.Background(), ReportInput{MatchID: m.ID, Identity: admin, Slot: 2, Score1: 0, Score2: 3})
	require.NoError(t, err)
	assert.Equal(t, ReportWaiting, result.Status)
	assert.Equal(t, 1, result.PendingSlot)
}

func TestQualificationReportRecalculates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := env.createTournament(t)
	players := env.createPlayers(t, 2)

	view, err := env.qualify.Setup(ctx, tournament.ID, bracket.GrandPrix, []SetupEntry{{PlayerID: players[0].ID}, {PlayerID: players[1].ID}})
	require.NoError(t, err)
	require.Len(t, view.Matches, 1)
	m := view.Matches[0]

	races := bracket.RaceResults{
		{Course: "MC1", Position1: 1, Position2: 2},
		{Course: "DP1", Position1: 1, Position2: 2},
		{Course: "GV1", Position1: 2, Position2: 1},
		{Course: "BC1", Position1: 1, Position2: 2},
	}
	for _, slot := range []int{1, 2} {
		_, err := env.reports.Report(ctx, ReportInput{
			MatchID:   m.ID,
			Identity:  playerIdentity(*m.PlayerInSlot(slot)),
			Slot:      slot,
			Races:     races,
			Character: "Yoshi",
			IP:        "10.0.0.1",
		})
		require.NoError(t, err)
	}

	stored, err := env.matches.GetMatch(ctx, env.db, m.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	assert.Equal(t, 33, stored.Score1)
	assert.Equal(t, 27, stored.Score2)
	assert.Len(t, stored.Races, 4)

	records, err := env.qualify.Ranked(ctx, env.db, tournament.ID, bracket.GrandPrix)
	require.NoError(t, err)
	require.Len(t, records, 2)
	p1 := records[0]
	if p1.PlayerID != *m.Player1ID {
		p1 = records[1]
	}
	assert.Equal(t, 1, p1.Wins)
	assert.Equal(t, 2, p1.Score)
	assert.Equal(t, 33, p1.Points)

	entries, err := env.audit.ListScoreEntries(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	usages, err := env.audit.ListCharacterUsages(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, usages, 2)
}

func TestReportSurvivesBookkeepingFailures(t *testing.T) {
	f := newFinalsFixture(t, bracket.BattleMode)
	m := f.match(t, 1)

	_, err := f.env.db.Exec(`DROP TABLE score_entry_logs`)
	require.NoError(t, err)
	_, err = f.env.db.Exec(`DROP TABLE match_character_usages`)
	require.NoError(t, err)

	first, err := f.env.reports.Report(context.Background(), ReportInput{
		MatchID: m.ID, Identity: playerIdentity(*m.Player1ID), Slot: 1, Score1: 3, Score2: 1, Character: "Mario",
	})
	require.NoError(t, err)
	assert.Equal(t, ReportWaiting, first.Status)

	second, err := f.env.reports.Report(context.Background(), ReportInput{
		MatchID: m.ID, Identity: playerIdentity(*m.Player2ID), Slot: 2, Score1: 3, Score2: 1, Character: "Luigi",
	})
	require.NoError(t, err)
	assert.Equal(t, ReportConfirmed, second.Status)
	assert.True(t, f.match(t, 1).Completed)
}
