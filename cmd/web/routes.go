package main

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smkcup/kart-tournament/internal/api"
	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/httputil"
	"github.com/smkcup/kart-tournament/internal/metrics"
	"github.com/smkcup/kart-tournament/internal/middleware"
	"github.com/smkcup/kart-tournament/internal/store"
	"github.com/smkcup/kart-tournament/internal/token"
	"github.com/smkcup/kart-tournament/views"
)

type routerDeps struct {
	h        *api.Handler
	svc      api.Services
	sessions *scs.SessionManager
	issuer   *token.Issuer
	db       *sqlx.DB
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(d.metrics.Middleware)

	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{Registry: d.registry}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.db.PingContext(r.Context()); err != nil {
			httputil.InternalServerError(w, r, d.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// Serve static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.Group(func(r chi.Router) {
		r.Use(d.sessions.LoadAndSave)
		r.Use(middleware.LoadIdentity(d.sessions, d.issuer, store.NewUserStore(d.db), store.NewPlayerStore(d.db), d.logger))

		d.h.Register(r)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			tournaments, err := d.svc.Tournaments.List(r.Context())
			if err != nil {
				httputil.Error(w, r, d.logger, err)
				return
			}
			render(w, r, d.logger, views.Index(tournaments))
		})

		r.Get("/tournaments/{tournamentID}/ranking", func(w http.ResponseWriter, r *http.Request) {
			tournament, ok := loadTournament(w, r, d)
			if !ok {
				return
			}
			entries, err := d.svc.Ranking.Overall(r.Context(), tournament.ID)
			if err != nil {
				httputil.Error(w, r, d.logger, err)
				return
			}
			if isPoll(r) {
				render(w, r, d.logger, views.RankingSection(tournament, entries))
				return
			}
			render(w, r, d.logger, views.RankingPage(tournament, entries))
		})

		r.Get("/tournaments/{tournamentID}/{mode}", func(w http.ResponseWriter, r *http.Request) {
			mode, ok := bracket.ParseMode(chi.URLParam(r, "mode"))
			if !ok || !mode.HeadToHead() {
				httputil.NotFound(w, r, d.logger)
				return
			}
			tournament, ok := loadTournament(w, r, d)
			if !ok {
				return
			}
			finals, err := d.svc.Finals.Get(r.Context(), tournament.ID, mode)
			if err != nil {
				httputil.Error(w, r, d.logger, err)
				return
			}
			players, err := d.svc.Players.List(r.Context())
			if err != nil {
				httputil.Error(w, r, d.logger, err)
				return
			}
			names := make(map[uuid.UUID]string, len(players))
			for _, p := range players {
				names[p.ID] = p.Nickname
			}

			data := views.PrepareBracketData(finals.Matches, names, finals.Champion)
			if isPoll(r) {
				render(w, r, d.logger, views.BracketSection(tournament, mode, data))
				return
			}
			render(w, r, d.logger, views.BracketPage(tournament, mode, data))
		})
	})

	return r
}

// isPoll reports whether the request is an htmx refresh of a live section.
func isPoll(r *http.Request) bool {
	return r.Header.Get("HX-Request") != ""
}

func loadTournament(w http.ResponseWriter, r *http.Request, d routerDeps) (*bracket.Tournament, bool) {
	id, err := httputil.ParseUUID("tournamentID", chi.URLParam(r, "tournamentID"))
	if err != nil {
		httputil.Error(w, r, d.logger, err)
		return nil, false
	}
	tournament, err := d.svc.Tournaments.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, d.logger, err)
		return nil, false
	}
	return tournament, true
}

func render(w http.ResponseWriter, r *http.Request, logger *slog.Logger, component templ.Component) {
	if err := views.Render(w, r, component); err != nil {
		logger.Error("failed to render page", "path", r.URL.Path, "error", err)
	}
}
