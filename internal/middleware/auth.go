package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"

	"github.com/smkcup/kart-tournament/internal/config"
	"github.com/smkcup/kart-tournament/internal/httputil"
	"github.com/smkcup/kart-tournament/internal/service"
	"github.com/smkcup/kart-tournament/internal/store"
	"github.com/smkcup/kart-tournament/internal/token"
	users "github.com/smkcup/kart-tournament/internal/user"
)

// Session keys.
const (
	SessionRole     = "role"
	SessionUserID   = "userID"
	SessionPlayerID = "playerID"
)

// InitAuth registers the OAuth providers used for admin login in goth's
// process-wide registry. Earlier registrations are cleared first, so the
// registry always reflects the last config passed in.
func InitAuth(cfg *config.Config) {
	goth.ClearProviders()
	if !cfg.DiscordEnabled() {
		return
	}
	goth.UseProviders(
		discord.New(cfg.DiscordKey, cfg.DiscordSecret, cfg.DiscordCallbackURL, discord.ScopeIdentify, discord.ScopeEmail),
	)
}

// SignInAdmin stores an admin login in the session.
func SignInAdmin(ctx context.Context, sm *scs.SessionManager, userID uuid.UUID) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Remove(ctx, SessionPlayerID)
	sm.Put(ctx, SessionRole, string(users.RoleAdmin))
	sm.Put(ctx, SessionUserID, userID.String())
	return nil
}

// SignInPlayer stores a player login in the session.
func SignInPlayer(ctx context.Context, sm *scs.SessionManager, playerID uuid.UUID) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Remove(ctx, SessionUserID)
	sm.Put(ctx, SessionRole, string(users.RolePlayer))
	sm.Put(ctx, SessionPlayerID, playerID.String())
	return nil
}

// bearerToken returns the report token from the Authorization header or the
// token query parameter.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	return r.URL.Query().Get("token")
}

// LoadIdentity resolves who is calling, from a report token or the session,
// and stores the identity in the request context. Requests without either pass
// through anonymously; an invalid token is rejected.
func LoadIdentity(sm *scs.SessionManager, issuer *token.Issuer, userStore *store.UserStore, playerStore *store.PlayerStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw := bearerToken(r); raw != "" {
				claims, err := issuer.Parse(raw)
				if err != nil {
					httputil.Error(w, r, logger, err)
					return
				}
				tournamentID := claims.TournamentID
				identity := &users.Identity{Role: users.RolePlayer, PlayerID: claims.PlayerID, TournamentID: &tournamentID}
				next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
				return
			}

			identity, err := sessionIdentity(ctx, sm, userStore, playerStore)
			if err != nil {
				httputil.InternalServerError(w, r, logger, err)
				return
			}
			if identity != nil {
				ctx = WithIdentity(ctx, identity)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionIdentity reads the session keys. Sessions pointing at accounts that no
// longer exist are cleared.
func sessionIdentity(ctx context.Context, sm *scs.SessionManager, userStore *store.UserStore, playerStore *store.PlayerStore) (*users.Identity, error) {
	var identity *users.Identity
	var err error

	switch users.Role(sm.GetString(ctx, SessionRole)) {
	case users.RoleAdmin:
		id, parseErr := uuid.Parse(sm.GetString(ctx, SessionUserID))
		if parseErr != nil {
			break
		}
		if _, err = userStore.GetUser(ctx, id); err == nil {
			identity = &users.Identity{Role: users.RoleAdmin, UserID: id}
		}
	case users.RolePlayer:
		id, parseErr := uuid.Parse(sm.GetString(ctx, SessionPlayerID))
		if parseErr != nil {
			break
		}
		if _, err = playerStore.GetPlayer(ctx, id); err == nil {
			identity = &users.Identity{Role: users.RolePlayer, PlayerID: id}
		}
	default:
		return nil, nil
	}

	if identity != nil {
		return identity, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	sm.Remove(ctx, SessionRole)
	sm.Remove(ctx, SessionUserID)
	sm.Remove(ctx, SessionPlayerID)
	return nil, nil
}

// RequireAdmin rejects requests without an admin identity.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			switch {
			case identity == nil:
				httputil.Error(w, r, logger, service.ErrUnauthorized)
			case !identity.IsAdmin():
				httputil.Error(w, r, logger, service.ErrForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireParticipant rejects anonymous requests. Whether the caller may act on
// a specific match is decided by the service.
func RequireParticipant(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetIdentity(r.Context()) == nil {
				httputil.Error(w, r, logger, service.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithIdentity(ctx context.Context, identity *users.Identity) context.Context {
	return context.WithValue(ctx, users.IdentityKey, identity)
}

// GetIdentity returns the caller's identity, or nil for anonymous requests.
func GetIdentity(ctx context.Context) *users.Identity {
	identity, _ := ctx.Value(users.IdentityKey).(*users.Identity)
	return identity
}
