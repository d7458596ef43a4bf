package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smkcup/kart-tournament/internal/middleware"
)

// Operation names one thing a client can ask the server to do. Its string form
// is used as the audit action and the conflict metric label.
type Operation int

const (
	OpListTournaments Operation = iota
	OpGetTournament
	OpCreateTournament
	OpUpdateTournament
	OpDeleteTournament

	OpListPlayers
	OpGetPlayer
	OpCreatePlayer
	OpUpdatePlayer
	OpDeletePlayer

	OpGetQualification
	OpSetupQualification
	OpScoreQualification

	OpGetFinals
	OpGenerateFinals
	OpResetFinals
	OpUpdateFinalsScore

	OpReportScore

	OpGetTimeAttack
	OpSetupTimeAttack
	OpSetTimes

	OpGetStandings
	OpGetRanking

	OpIssueToken
	OpListAuditLogs

	OpPlayerLogin
	OpAdminLogin
	OpLogout
	OpSession
	OpOAuthBegin
	OpOAuthCallback
)

var operationNames = map[Operation]string{
	OpListTournaments:    "tournament.list",
	OpGetTournament:      "tournament.get",
	OpCreateTournament:   "tournament.create",
	OpUpdateTournament:   "tournament.update",
	OpDeleteTournament:   "tournament.delete",
	OpListPlayers:        "player.list",
	OpGetPlayer:          "player.get",
	OpCreatePlayer:       "player.create",
	OpUpdatePlayer:       "player.update",
	OpDeletePlayer:       "player.delete",
	OpGetQualification:   "qualification.get",
	OpSetupQualification: "qualification.setup",
	OpScoreQualification: "qualification.score",
	OpGetFinals:          "finals.get",
	OpGenerateFinals:     "finals.generate",
	OpResetFinals:        "finals.reset",
	OpUpdateFinalsScore:  "finals.score",
	OpReportScore:        "match.report",
	OpGetTimeAttack:      "ta.get",
	OpSetupTimeAttack:    "ta.setup",
	OpSetTimes:           "ta.times",
	OpGetStandings:       "standings.get",
	OpGetRanking:         "ranking.get",
	OpIssueToken:         "token.issue",
	OpListAuditLogs:      "audit.list",
	OpPlayerLogin:        "auth.player_login",
	OpAdminLogin:         "auth.admin_login",
	OpLogout:             "auth.logout",
	OpSession:            "auth.session",
	OpOAuthBegin:         "auth.oauth_begin",
	OpOAuthCallback:      "auth.oauth_callback",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "unknown"
}

// Access is who may call an operation.
type Access int

const (
	Public Access = iota
	// Participant is any signed-in player, token holder or admin.
	Participant
	Admin
)

type Route struct {
	Operation Operation
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	Access    Access
	// RateLimited routes share the per-IP limiter.
	RateLimited bool
}

// Routes is the full command map of the JSON API and the OAuth endpoints.
func (h *Handler) Routes() []Route {
	return []Route{
		{OpListTournaments, http.MethodGet, "/api/tournaments", h.listTournaments, Public, false},
		{OpGetTournament, http.MethodGet, "/api/tournaments/{tournamentID}", h.getTournament, Public, false},
		{OpCreateTournament, http.MethodPost, "/api/tournaments", h.createTournament, Admin, false},
		{OpUpdateTournament, http.MethodPatch, "/api/tournaments/{tournamentID}", h.updateTournament, Admin, false},
		{OpDeleteTournament, http.MethodDelete, "/api/tournaments/{tournamentID}", h.deleteTournament, Admin, false},

		{OpListPlayers, http.MethodGet, "/api/players", h.listPlayers, Public, false},
		{OpGetPlayer, http.MethodGet, "/api/players/{playerID}", h.getPlayer, Public, false},
		{OpCreatePlayer, http.MethodPost, "/api/players", h.createPlayer, Admin, false},
		{OpUpdatePlayer, http.MethodPatch, "/api/players/{playerID}", h.updatePlayer, Admin, false},
		{OpDeletePlayer, http.MethodDelete, "/api/players/{playerID}", h.deletePlayer, Admin, false},

		{OpGetQualification, http.MethodGet, "/api/tournaments/{tournamentID}/{mode}/qualification", h.getQualification, Public, false},
		{OpSetupQualification, http.MethodPost, "/api/tournaments/{tournamentID}/{mode}/qualification", h.setupQualification, Admin, false},
		{OpScoreQualification, http.MethodPut, "/api/matches/{matchID}/qualification-score", h.scoreQualification, Admin, false},

		{OpGetFinals, http.MethodGet, "/api/tournaments/{tournamentID}/{mode}/finals", h.getFinals, Public, false},
		{OpGenerateFinals, http.MethodPost, "/api/tournaments/{tournamentID}/{mode}/finals", h.generateFinals, Admin, false},
		{OpResetFinals, http.MethodDelete, "/api/tournaments/{tournamentID}/{mode}/finals", h.resetFinals, Admin, false},
		{OpUpdateFinalsScore, http.MethodPut, "/api/matches/{matchID}/score", h.updateFinalsScore, Admin, false},

		{OpReportScore, http.MethodPost, "/api/matches/{matchID}/report", h.reportScore, Participant, true},

		{OpGetTimeAttack, http.MethodGet, "/api/tournaments/{tournamentID}/ta/entries", h.getTimeAttack, Public, false},
		{OpSetupTimeAttack, http.MethodPost, "/api/tournaments/{tournamentID}/ta/entries", h.setupTimeAttack, Admin, false},
		{OpSetTimes, http.MethodPut, "/api/tournaments/{tournamentID}/ta/entries/{playerID}", h.setTimes, Participant, true},

		{OpGetStandings, http.MethodGet, "/api/tournaments/{tournamentID}/{mode}/standings", h.getStandings, Admin, false},
		{OpGetRanking, http.MethodGet, "/api/tournaments/{tournamentID}/ranking", h.getRanking, Public, false},

		{OpIssueToken, http.MethodPost, "/api/tournaments/{tournamentID}/tokens", h.issueToken, Admin, false},
		{OpListAuditLogs, http.MethodGet, "/api/audit-logs", h.listAuditLogs, Admin, false},

		{OpPlayerLogin, http.MethodPost, "/api/auth/player", h.playerLogin, Public, true},
		{OpAdminLogin, http.MethodPost, "/api/auth/admin", h.adminLogin, Public, true},
		{OpLogout, http.MethodPost, "/api/auth/logout", h.logout, Public, false},
		{OpSession, http.MethodGet, "/api/auth/session", h.session, Public, false},
		{OpOAuthBegin, http.MethodGet, "/auth/{provider}", h.oauthBegin, Public, false},
		{OpOAuthCallback, http.MethodGet, "/auth/{provider}/callback", h.oauthCallback, Public, false},
	}
}

// Register mounts every route on r with its access and rate-limit middleware.
func (h *Handler) Register(r chi.Router) {
	requireAdmin := middleware.RequireAdmin(h.logger)
	requireParticipant := middleware.RequireParticipant(h.logger)
	rateLimit := middleware.RateLimit(h.limiter, h.logger)

	for _, route := range h.Routes() {
		var handler http.Handler = route.Handler
		switch route.Access {
		case Admin:
			handler = requireAdmin(handler)
		case Participant:
			handler = requireParticipant(handler)
		}
		if route.RateLimited {
			handler = rateLimit(handler)
		}
		r.Method(route.Method, route.Pattern, handler)
	}
}
