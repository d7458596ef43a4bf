package users

import (
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const IdentityKey ContextKey = "identity"

type Role string

const (
	RoleAdmin  Role = "admin"
	RolePlayer Role = "player"
)

// User is an administrator account, created on first OAuth login.
type User struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	Username   string    `db:"username" json:"username"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	Provider   *string   `db:"provider" json:"-"`
	ProviderID *string   `db:"provider_id" json:"-"`
	AvatarURL  *string   `db:"avatar_url" json:"avatarUrl,omitempty"`
}

// Player is a tournament participant. Players log in with nickname and password.
type Player struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Nickname     string     `db:"nickname" json:"nickname"`
	Country      *string    `db:"country" json:"country,omitempty"`
	PasswordHash string     `db:"password_hash" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
}

// Identity is who is making a request: an admin, a logged-in player, or a
// player holding a report token scoped to one tournament.
type Identity struct {
	Role     Role
	UserID   uuid.UUID
	PlayerID uuid.UUID
	// TournamentID is set only for token-based identities.
	TournamentID *uuid.UUID
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// CanActFor reports whether the identity may act as the given player in the given tournament.
func (i *Identity) CanActFor(playerID, tournamentID uuid.UUID) bool {
	if i == nil {
		return false
	}
	if i.IsAdmin() {
		return true
	}
	if i.PlayerID != playerID {
		return false
	}
	return i.TournamentID == nil || *i.TournamentID == tournamentID
}
