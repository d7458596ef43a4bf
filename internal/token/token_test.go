package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("secret")
	playerID, tournamentID := uuid.New(), uuid.New()

	signed, expires, err := issuer.Issue(playerID, tournamentID, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)

	claims, err := issuer.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, playerID, claims.PlayerID)
	assert.Equal(t, tournamentID, claims.TournamentID)
	assert.WithinDuration(t, expires, claims.ExpiresAt, time.Second)
}

func TestParseRejects(t *testing.T) {
	issuer := NewIssuer("secret")
	signed, _, err := issuer.Issue(uuid.New(), uuid.New(), time.Hour)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewIssuer("other").Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewIssuer("secret")
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(signed)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}
