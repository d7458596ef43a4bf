package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/db"
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

func seedTournament(t *testing.T, database *sqlx.DB) *bracket.Tournament {
	t.Helper()
	tournament := &bracket.Tournament{
		ID:     uuid.New(),
		Name:   "Test Cup",
		Date:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Status: bracket.TournamentActive,
	}
	require.NoError(t, NewTournamentStore(database).CreateTournament(context.Background(), tournament))
	return tournament
}

func seedPlayers(t *testing.T, database *sqlx.DB, n int) []users.Player {
	t.Helper()
	players := make([]users.Player, 0, n)
	s := NewPlayerStore(database)
	for i := 0; i < n; i++ {
		p := users.Player{
			ID:           uuid.New(),
			Name:         fmt.Sprintf("Player %d", i+1),
			Nickname:     fmt.Sprintf("p%02d", i+1),
			PasswordHash: "hash",
		}
		require.NoError(t, s.CreatePlayer(context.Background(), &p))
		players = append(players, p)
	}
	return players
}

func TestCreateTournament(t *testing.T) {
	database := setupTestDB(t)
	s := NewTournamentStore(database)
	ctx := context.Background()

	tournament := seedTournament(t, database)

	fetched, err := s.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)

	assert.Equal(t, tournament.ID, fetched.ID)
	assert.Equal(t, "Test Cup", fetched.Name)
	assert.Equal(t, bracket.TournamentActive, fetched.Status)
	assert.True(t, tournament.Date.Equal(fetched.Date))
}

func TestUpdateAndDeleteTournament(t *testing.T) {
	database := setupTestDB(t)
	s := NewTournamentStore(database)
	ctx := context.Background()

	tournament := seedTournament(t, database)
	tournament.Name = "Renamed Cup"
	tournament.Status = bracket.TournamentCompleted
	require.NoError(t, s.UpdateTournament(ctx, tournament))

	fetched, err := s.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Cup", fetched.Name)
	assert.Equal(t, bracket.TournamentCompleted, fetched.Status)

	require.NoError(t, s.DeleteTournament(ctx, tournament.ID))
	_, err = s.GetTournament(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteTournament(ctx, tournament.ID), ErrNotFound)
}

func TestListTournaments(t *testing.T) {
	database := setupTestDB(t)
	s := NewTournamentStore(database)

	seedTournament(t, database)
	seedTournament(t, database)

	tournaments, err := s.ListTournaments(context.Background())
	require.NoError(t, err)
	assert.Len(t, tournaments, 2)
}

func TestPlayerStore(t *testing.T) {
	database := setupTestDB(t)
	s := NewPlayerStore(database)
	ctx := context.Background()

	players := seedPlayers(t, database, 3)

	t.Run("duplicate nickname", func(t *testing.T) {
		dup := users.Player{ID: uuid.New(), Name: "Other", Nickname: players[0].Nickname, PasswordHash: "x"}
		assert.ErrorIs(t, s.CreatePlayer(ctx, &dup), ErrDuplicate)
	})

	t.Run("get by nickname", func(t *testing.T) {
		p, err := s.GetPlayerByNickname(ctx, "p02")
		require.NoError(t, err)
		assert.Equal(t, players[1].ID, p.ID)
	})

	t.Run("get many", func(t *testing.T) {
		got, err := s.GetPlayers(ctx, []uuid.UUID{players[0].ID, players[2].ID})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("soft delete releases nickname", func(t *testing.T) {
		require.NoError(t, s.DeletePlayer(ctx, players[2].ID))

		_, err := s.GetPlayer(ctx, players[2].ID)
		assert.ErrorIs(t, err, ErrNotFound)

		list, err := s.ListPlayers(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)

		reuse := users.Player{ID: uuid.New(), Name: "New", Nickname: "p03", PasswordHash: "x"}
		assert.NoError(t, s.CreatePlayer(ctx, &reuse))
	})
}
