package views

import (
	"context"

	"github.com/smkcup/kart-tournament/internal/middleware"
	users "github.com/smkcup/kart-tournament/internal/user"
)

// PollInterval is how often an open page refreshes its live section.
const PollInterval = "every 10s"

func GetIdentity(ctx context.Context) *users.Identity {
	return middleware.GetIdentity(ctx)
}
