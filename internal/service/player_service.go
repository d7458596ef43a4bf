package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smkcup/kart-tournament/internal/store"
	users "github.com/smkcup/kart-tournament/internal/user"
	"github.com/smkcup/kart-tournament/internal/utils"
)

const (
	maxPlayerNameLength     = 50
	maxNicknameLength       = 30
	maxCountryLength        = 3
	minPasswordLength       = 8
	generatedPasswordLength = 12
)

type PlayerService struct {
	store  *store.PlayerStore
	logger *slog.Logger
	cost   int
}

func NewPlayerService(store *store.PlayerStore, logger *slog.Logger) *PlayerService {
	return &PlayerService{store: store, logger: logger, cost: bcrypt.DefaultCost}
}

type PlayerInput struct {
	Name     string  `json:"name"`
	Nickname string  `json:"nickname"`
	Country  *string `json:"country"`
	Password string  `json:"password"`
}

type PlayerUpdate struct {
	Name     *string `json:"name"`
	Nickname *string `json:"nickname"`
	Country  *string `json:"country"`
	Password *string `json:"password"`
}

// CreatedPlayer is returned once on creation. GeneratedPassword is set only when
// the caller did not pick a password.
type CreatedPlayer struct {
	Player            *users.Player `json:"player"`
	GeneratedPassword string        `json:"generatedPassword,omitempty"`
}

func (s *PlayerService) Create(ctx context.Context, input PlayerInput) (*CreatedPlayer, error) {
	name := utils.Sanitize(input.Name, maxPlayerNameLength)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	nickname := utils.Sanitize(input.Nickname, maxNicknameLength)
	if nickname == "" {
		return nil, invalid("nickname", "nickname is required")
	}
	if strings.Contains(nickname, "#") {
		return nil, invalid("nickname", "nickname must not contain '#'")
	}

	password, generated := input.Password, ""
	if password == "" {
		var err error
		if generated, err = generatePassword(); err != nil {
			return nil, err
		}
		password = generated
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	player := &users.Player{
		ID:           uuid.New(),
		Name:         name,
		Nickname:     nickname,
		PasswordHash: hash,
	}
	if input.Country != nil {
		player.Country = utils.SanitizeOrNil(strings.ToUpper(*input.Country), maxCountryLength)
	}

	if err := s.store.CreatePlayer(ctx, player); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, &ValidationError{Field: "nickname", Message: "nickname is already taken", Err: err}
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	created, err := s.store.GetPlayer(ctx, player.ID)
	if err != nil {
		return nil, err
	}
	return &CreatedPlayer{Player: created, GeneratedPassword: generated}, nil
}

func (s *PlayerService) List(ctx context.Context) ([]users.Player, error) {
	return s.store.ListPlayers(ctx)
}

func (s *PlayerService) Get(ctx context.Context, id uuid.UUID) (*users.Player, error) {
	return s.store.GetPlayer(ctx, id)
}

func (s *PlayerService) Update(ctx context.Context, id uuid.UUID, update PlayerUpdate) (*users.Player, error) {
	player, err := s.store.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		if player.Name = utils.Sanitize(*update.Name, maxPlayerNameLength); player.Name == "" {
			return nil, invalid("name", "name must not be empty")
		}
	}
	if update.Nickname != nil {
		nickname := utils.Sanitize(*update.Nickname, maxNicknameLength)
		if nickname == "" || strings.Contains(nickname, "#") {
			return nil, invalid("nickname", "nickname must be non-empty and must not contain '#'")
		}
		player.Nickname = nickname
	}
	if update.Country != nil {
		player.Country = utils.SanitizeOrNil(strings.ToUpper(*update.Country), maxCountryLength)
	}
	if update.Password != nil {
		if player.PasswordHash, err = s.hash(*update.Password); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdatePlayer(ctx, player); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, &ValidationError{Field: "nickname", Message: "nickname is already taken", Err: err}
		}
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	return s.store.GetPlayer(ctx, id)
}

func (s *PlayerService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.DeletePlayer(ctx, id)
}

// Authenticate checks a nickname/password pair. Unknown nicknames and wrong
// passwords are indistinguishable to the caller.
func (s *PlayerService) Authenticate(ctx context.Context, nickname, password string) (*users.Player, error) {
	player, err := s.store.GetPlayerByNickname(ctx, utils.Sanitize(nickname, maxNicknameLength))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("player login failed", "nickname", player.Nickname)
		return nil, ErrInvalidCredentials
	}
	return player, nil
}

func (s *PlayerService) hash(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", invalid("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

var passwordEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

func generatePassword() (string, error) {
	buf := make([]byte, generatedPasswordLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return strings.ToLower(passwordEncoding.EncodeToString(buf)[:generatedPasswordLength]), nil
}
