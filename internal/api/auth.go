package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/markbates/goth/gothic"

	"github.com/smkcup/kart-tournament/internal/httputil"
	"github.com/smkcup/kart-tournament/internal/middleware"
	"github.com/smkcup/kart-tournament/internal/service"
	users "github.com/smkcup/kart-tournament/internal/user"
)

const oauthProvider = "discord"

type playerLoginRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type adminLoginRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	Role          users.Role    `json:"role,omitempty"`
	User          *users.User   `json:"user,omitempty"`
	Player        *users.Player `json:"player,omitempty"`
}

func (h *Handler) playerLogin(w http.ResponseWriter, r *http.Request) {
	var req playerLoginRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		h.fail(w, r, OpPlayerLogin, err)
		return
	}
	player, err := h.svc.Players.Authenticate(r.Context(), req.Nickname, req.Password)
	if err != nil {
		h.fail(w, r, OpPlayerLogin, err)
		return
	}
	if err := middleware.SignInPlayer(r.Context(), h.sessions, player.ID); err != nil {
		h.fail(w, r, OpPlayerLogin, err)
		return
	}
	h.logger.Info("player logged in", "player_id", player.ID)
	h.ok(w, http.StatusOK, sessionResponse{Authenticated: true, Role: users.RolePlayer, Player: player})
}

// adminLogin is the password fallback for environments without Discord. It is
// disabled unless ADMIN_PASSWORD is set.
func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AdminPassword == "" {
		httputil.NotFound(w, r, h.logger)
		return
	}
	var req adminLoginRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		h.fail(w, r, OpAdminLogin, err)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.AdminPassword)) != 1 {
		h.logger.Warn("admin password login failed", "ip", middleware.ClientIP(r))
		h.fail(w, r, OpAdminLogin, service.ErrInvalidCredentials)
		return
	}

	admin, err := h.svc.Users.EnsureLocalAdmin(r.Context())
	if err != nil {
		h.fail(w, r, OpAdminLogin, err)
		return
	}
	if err := middleware.SignInAdmin(r.Context(), h.sessions, admin.ID); err != nil {
		h.fail(w, r, OpAdminLogin, err)
		return
	}
	h.logger.Info("admin logged in", "user_id", admin.ID, "method", "password")
	h.ok(w, http.StatusOK, sessionResponse{Authenticated: true, Role: users.RoleAdmin, User: admin})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context()); err != nil {
		h.fail(w, r, OpLogout, err)
		return
	}
	h.ok(w, http.StatusOK, sessionResponse{})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		h.ok(w, http.StatusOK, sessionResponse{})
		return
	}

	resp := sessionResponse{Authenticated: true, Role: identity.Role}
	var err error
	if identity.IsAdmin() {
		resp.User, err = h.svc.Users.Get(r.Context(), identity.UserID)
	} else {
		resp.Player, err = h.svc.Players.Get(r.Context(), identity.PlayerID)
	}
	if err != nil {
		h.fail(w, r, OpSession, err)
		return
	}
	h.ok(w, http.StatusOK, resp)
}

func (h *Handler) oauthBegin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if provider != oauthProvider || !h.cfg.DiscordEnabled() {
		httputil.NotFound(w, r, h.logger)
		return
	}
	gothic.BeginAuthHandler(w, gothic.GetContextWithProvider(r, provider))
}

func (h *Handler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if provider != oauthProvider || !h.cfg.DiscordEnabled() {
		httputil.NotFound(w, r, h.logger)
		return
	}

	gothUser, err := gothic.CompleteUserAuth(w, gothic.GetContextWithProvider(r, provider))
	if err != nil {
		h.logger.Warn("oauth callback failed", "provider", provider, "error", err)
		h.fail(w, r, OpOAuthCallback, service.ErrUnauthorized)
		return
	}

	user, err := h.svc.Users.FindOrCreateAdmin(r.Context(), gothUser)
	if err != nil {
		h.fail(w, r, OpOAuthCallback, err)
		return
	}
	if err := middleware.SignInAdmin(r.Context(), h.sessions, user.ID); err != nil {
		h.fail(w, r, OpOAuthCallback, err)
		return
	}
	h.logger.Info("admin logged in", "user_id", user.ID, "method", provider)
	http.Redirect(w, r, "/", http.StatusFound)
}
