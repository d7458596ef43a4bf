package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/markbates/goth"

	"github.com/smkcup/kart-tournament/internal/store"
	users "github.com/smkcup/kart-tournament/internal/user"
	"github.com/smkcup/kart-tournament/internal/utils"
)

// LocalAdminID is the fixed account used by password-based admin login.
var LocalAdminID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type UserService struct {
	store    *store.UserStore
	adminIDs []string
	logger   *slog.Logger
}

// NewUserService creates the admin account service. adminIDs lists the OAuth
// provider user IDs allowed to sign in.
func NewUserService(store *store.UserStore, adminIDs []string, logger *slog.Logger) *UserService {
	return &UserService{store: store, adminIDs: adminIDs, logger: logger}
}

// FindOrCreateAdmin signs in an OAuth user, creating the account on first login.
// Users outside the admin list are rejected.
func (s *UserService) FindOrCreateAdmin(ctx context.Context, gothUser goth.User) (*users.User, error) {
	if !slices.Contains(s.adminIDs, gothUser.UserID) {
		s.logger.Warn("oauth login rejected", "provider", gothUser.Provider, "provider_id", gothUser.UserID)
		return nil, ErrForbidden
	}

	username := gothUser.NickName
	if username == "" {
		username = gothUser.Name
	}

	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)
	if err == nil {
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != username {
			user.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			user.Username = username
			if err := s.store.UpdateUserNameAndAvatar(ctx, user); err != nil {
				s.logger.Warn("failed to refresh admin profile", "user_id", user.ID, "error", err)
			}
		}
		return user, nil
	}

	if errors.Is(err, store.ErrNotFound) {
		newUser := &users.User{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   username,
			Provider:   &gothUser.Provider,
			ProviderID: &gothUser.UserID,
			AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
		}
		if err := s.store.CreateUser(ctx, newUser); err != nil {
			return nil, err
		}
		return newUser, nil
	}

	return nil, err
}

// EnsureLocalAdmin returns the password-login admin, creating it if needed.
func (s *UserService) EnsureLocalAdmin(ctx context.Context) (*users.User, error) {
	user, err := s.store.GetUser(ctx, LocalAdminID)
	if err == nil {
		return user, nil
	}

	if errors.Is(err, store.ErrNotFound) {
		admin := &users.User{
			ID:       LocalAdminID,
			Username: "Administrator",
		}
		if err := s.store.CreateUser(ctx, admin); err != nil {
			return nil, err
		}
		return admin, nil
	}
	return nil, err
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return s.store.GetUser(ctx, id)
}
