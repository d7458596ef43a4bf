package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/cache"
	"github.com/smkcup/kart-tournament/internal/db"
	"github.com/smkcup/kart-tournament/internal/store"
	users "github.com/smkcup/kart-tournament/internal/user"
)

// setupTestDB creates a temporary SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "Failed to open test DB")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database.DB), "Failed to apply migrations")
	return database
}

type testEnv struct {
	db          *sqlx.DB
	cache       *cache.Standings
	matches     *store.MatchStore
	quals       *store.QualificationStore
	audit       *store.AuditStore
	tournaments *TournamentService
	players     *PlayerService
	qualify     *QualificationService
	finals      *FinalsService
	reports     *ReportService
	timeAttack  *TimeAttackService
	standings   *StandingsService
	ranking     *RankingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := setupTestDB(t)
	logger := slog.New(slog.DiscardHandler)
	standings := cache.NewStandings(time.Minute)

	tournamentStore := store.NewTournamentStore(database)
	playerStore := store.NewPlayerStore(database)
	matchStore := store.NewMatchStore(database)
	qualStore := store.NewQualificationStore(database)
	auditStore := store.NewAuditStore(database)

	env := &testEnv{
		db:      database,
		cache:   standings,
		matches: matchStore,
		quals:   qualStore,
		audit:   auditStore,
	}
	env.tournaments = NewTournamentService(tournamentStore, logger)
	env.players = NewPlayerService(playerStore, logger)
	env.players.cost = 4
	env.qualify = NewQualificationService(database, tournamentStore, playerStore, qualStore, matchStore, standings, logger)
	env.finals = NewFinalsService(database, matchStore, env.qualify, standings, logger)
	env.reports = NewReportService(database, matchStore, auditStore, env.qualify, env.finals, standings, nil, logger)
	env.timeAttack = NewTimeAttackService(store.NewTimeAttackStore(database), playerStore, standings, logger)
	env.standings = NewStandingsService(env.qualify, env.timeAttack, standings, nil, logger)
	env.ranking = NewRankingService(tournamentStore, matchStore, env.qualify, env.timeAttack, logger)
	return env
}

func (e *testEnv) createTournament(t *testing.T) *bracket.Tournament {
	t.Helper()
	tournament, err := e.tournaments.Create(context.Background(), TournamentInput{
		Name: "Spring Cup",
		Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return tournament
}

func (e *testEnv) createPlayers(t *testing.T, n int) []users.Player {
	t.Helper()
	players := make([]users.Player, 0, n)
	for i := 0; i < n; i++ {
		created, err := e.players.Create(context.Background(), PlayerInput{
			Name:     fmt.Sprintf("Player %d", i+1),
			Nickname: fmt.Sprintf("seed%d", i+1),
			Password: "password123",
		})
		require.NoError(t, err)
		players = append(players, *created.Player)
	}
	return players
}

// seedQualification sets up qualification for players and forces their ranking
// to follow slice order.
func (e *testEnv) seedQualification(t *testing.T, tournamentID uuid.UUID, mode bracket.Mode, players []users.Player) {
	t.Helper()
	ctx := context.Background()

	entries := make([]SetupEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, SetupEntry{PlayerID: p.ID})
	}
	_, err := e.qualify.Setup(ctx, tournamentID, mode, entries)
	require.NoError(t, err)

	for i, p := range players {
		rec, err := e.quals.GetQualification(ctx, e.db, tournamentID, mode, p.ID)
		require.NoError(t, err)
		rec.Score = 100 - i
		require.NoError(t, e.quals.UpdateStats(ctx, e.db, rec))
	}
}

func TestGenerateFinals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.createTournament(t)
	players := env.createPlayers(t, 9)
	env.seedQualification(t, tournament.ID, bracket.BattleMode, players)

	view, err := env.finals.Generate(ctx, tournament.ID, bracket.BattleMode, bracket.FinalsSize)
	require.NoError(t, err)
	require.Len(t, view.Matches, 15)
	assert.False(t, view.IsComplete)

	first := view.Matches[0]
	assert.Equal(t, bracket.WinnersQF, first.RoundOrEmpty())
	assert.Equal(t, players[0].ID, *first.Player1ID, "seed 1 opens the bracket")
	assert.Equal(t, players[7].ID, *first.Player2ID, "against seed 8")

	assert.Equal(t, players[3].ID, *view.Matches[1].Player1ID)
	assert.Equal(t, players[4].ID, *view.Matches[1].Player2ID)

	qf := 0
	for _, m := range view.Matches {
		if m.RoundOrEmpty() == bracket.WinnersQF {
			qf++
			continue
		}
		assert.Nil(t, m.Player1ID, "match %d is filled by advancement", m.MatchNumber)
		assert.Nil(t, m.Player2ID)
	}
	assert.Equal(t, 4, qf)

	for _, m := range view.Matches {
		assert.NotEqual(t, players[8].ID, *orNil(m.Player1ID), "ninth place is not seeded")
	}
}

func orNil(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return &uuid.Nil
	}
	return id
}

func TestGenerateFinalsIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.createTournament(t)
	env.seedQualification(t, tournament.ID, bracket.MatchRace, env.createPlayers(t, 8))

	first, err := env.finals.Generate(ctx, tournament.ID, bracket.MatchRace, 8)
	require.NoError(t, err)
	second, err := env.finals.Generate(ctx, tournament.ID, bracket.MatchRace, 8)
	require.NoError(t, err)

	require.Len(t, second.Matches, len(first.Matches))
	for i := range first.Matches {
		a, b := first.Matches[i], second.Matches[i]
		assert.NotEqual(t, a.ID, b.ID)
		assert.Equal(t, a.MatchNumber, b.MatchNumber)
		assert.Equal(t, a.Round, b.Round)
		assert.Equal(t, a.Player1ID, b.Player1ID)
		assert.Equal(t, a.Player2ID, b.Player2ID)
	}
	assert.Equal(t, first.Structure, second.Structure)
}

func TestGenerateFinalsFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.createTournament(t)
	env.seedQualification(t, tournament.ID, bracket.GrandPrix, env.createPlayers(t, 5))

	t.Run("not enough players", func(t *testing.T) {
		_, err := env.finals.Generate(ctx, tournament.ID, bracket.GrandPrix, 8)
		var insufficient *InsufficientPlayersError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 8, insufficient.Need)
		assert.Equal(t, 5, insufficient.Have)
	})

	t.Run("unsupported size", func(t *testing.T) {
		_, err := env.finals.Generate(ctx, tournament.ID, bracket.GrandPrix, 16)
		assert.ErrorIs(t, err, ErrValidation)
		assert.ErrorIs(t, err, bracket.ErrUnsupportedBracketSize)
	})

	t.Run("time attack has no bracket", func(t *testing.T) {
		_, err := env.finals.Generate(ctx, tournament.ID, bracket.TimeAttack, 8)
		assert.ErrorIs(t, err, ErrValidation)
	})

	view, err := env.finals.Get(ctx, tournament.ID, bracket.GrandPrix)
	require.NoError(t, err)
	assert.Empty(t, view.Matches, "failed generation leaves no partial bracket")
}

func TestResetFinals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.createTournament(t)
	env.seedQualification(t, tournament.ID, bracket.BattleMode, env.createPlayers(t, 8))
	_, err := env.finals.Generate(ctx, tournament.ID, bracket.BattleMode, 8)
	require.NoError(t, err)

	require.NoError(t, env.finals.Reset(ctx, tournament.ID, bracket.BattleMode))

	view, err := env.finals.Get(ctx, tournament.ID, bracket.BattleMode)
	require.NoError(t, err)
	assert.Empty(t, view.Matches)
	assert.Len(t, view.Structure, 15)
}
