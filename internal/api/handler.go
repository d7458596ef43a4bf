// Package api exposes the tournament services over HTTP.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/cache"
	"github.com/smkcup/kart-tournament/internal/config"
	"github.com/smkcup/kart-tournament/internal/httputil"
	"github.com/smkcup/kart-tournament/internal/metrics"
	"github.com/smkcup/kart-tournament/internal/middleware"
	"github.com/smkcup/kart-tournament/internal/service"
	"github.com/smkcup/kart-tournament/internal/store"
	"github.com/smkcup/kart-tournament/internal/token"
)

// Services groups everything the handlers call into.
type Services struct {
	Tournaments   *service.TournamentService
	Players       *service.PlayerService
	Users         *service.UserService
	Audit         *service.AuditService
	Qualification *service.QualificationService
	Finals        *service.FinalsService
	Reports       *service.ReportService
	TimeAttack    *service.TimeAttackService
	Standings     *service.StandingsService
	Ranking       *service.RankingService
}

type Handler struct {
	svc      Services
	sessions *scs.SessionManager
	issuer   *token.Issuer
	limiter  *middleware.IPRateLimiter
	metrics  *metrics.Metrics
	cfg      *config.Config
	logger   *slog.Logger
}

func NewHandler(
	svc Services,
	sessions *scs.SessionManager,
	issuer *token.Issuer,
	limiter *middleware.IPRateLimiter,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		svc:      svc,
		sessions: sessions,
		issuer:   issuer,
		limiter:  limiter,
		metrics:  m,
		cfg:      cfg,
		logger:   logger,
	}
}

func (h *Handler) ok(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, h.logger, status, data, nil)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, operation Operation, err error) {
	if errors.Is(err, store.ErrVersionConflict) {
		h.metrics.VersionConflict(operation.String())
	}
	httputil.Error(w, r, h.logger, err)
}

// audit records an admin mutation. The caller has already succeeded.
func (h *Handler) audit(r *http.Request, operation Operation, targetType, targetID string, details any) {
	h.svc.Audit.Record(r.Context(), service.AuditEntry{
		Identity:   middleware.GetIdentity(r.Context()),
		Action:     operation.String(),
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		IP:         middleware.ClientIP(r),
	})
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return httputil.ParseUUID(name, chi.URLParam(r, name))
}

func modeParam(r *http.Request) (bracket.Mode, error) {
	raw := chi.URLParam(r, "mode")
	mode, ok := bracket.ParseMode(raw)
	if !ok {
		return "", &service.ValidationError{Field: "mode", Message: fmt.Sprintf("unknown mode %q", raw)}
	}
	return mode, nil
}

// tournamentMode reads the {tournamentID} and {mode} path parameters.
func tournamentMode(r *http.Request) (uuid.UUID, bracket.Mode, error) {
	id, err := uuidParam(r, "tournamentID")
	if err != nil {
		return uuid.Nil, "", err
	}
	mode, err := modeParam(r)
	return id, mode, err
}

// NewServices wires the stores and services over one database.
func NewServices(db *sqlx.DB, standings *cache.Standings, adminIDs []string, m *metrics.Metrics, logger *slog.Logger) Services {
	tournaments := store.NewTournamentStore(db)
	players := store.NewPlayerStore(db)
	matches := store.NewMatchStore(db)
	quals := store.NewQualificationStore(db)
	audit := store.NewAuditStore(db)

	svc := Services{
		Tournaments: service.NewTournamentService(tournaments, logger),
		Players:     service.NewPlayerService(players, logger),
		Users:       service.NewUserService(store.NewUserStore(db), adminIDs, logger),
		Audit:       service.NewAuditService(audit, logger),
		TimeAttack:  service.NewTimeAttackService(store.NewTimeAttackStore(db), players, standings, logger),
	}
	svc.Qualification = service.NewQualificationService(db, tournaments, players, quals, matches, standings, logger)
	svc.Finals = service.NewFinalsService(db, matches, svc.Qualification, standings, logger)
	svc.Reports = service.NewReportService(db, matches, audit, svc.Qualification, svc.Finals, standings, m, logger)
	svc.Standings = service.NewStandingsService(svc.Qualification, svc.TimeAttack, standings, m, logger)
	svc.Ranking = service.NewRankingService(tournaments, matches, svc.Qualification, svc.TimeAttack, logger)
	return svc
}
