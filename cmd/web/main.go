package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/smkcup/kart-tournament/internal/api"
	"github.com/smkcup/kart-tournament/internal/cache"
	"github.com/smkcup/kart-tournament/internal/config"
	"github.com/smkcup/kart-tournament/internal/db"
	"github.com/smkcup/kart-tournament/internal/metrics"
	"github.com/smkcup/kart-tournament/internal/middleware"
	"github.com/smkcup/kart-tournament/internal/token"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		return err
	}

	middleware.InitAuth(cfg)
	if !cfg.DiscordEnabled() {
		logger.Warn("discord login disabled, DISCORD_KEY or DISCORD_SECRET missing")
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Store = sqlite3store.New(database.DB)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	standings := cache.NewStandings(cfg.StandingsTTL)
	issuer := token.NewIssuer(cfg.TokenSecret)
	limiter := middleware.NewIPRateLimiter(cfg.ReportRatePerMinute, cfg.ReportBurst)

	svc := api.NewServices(database, standings, cfg.AdminDiscordIDs, m, logger)
	h := api.NewHandler(svc, sessionManager, issuer, limiter, m, cfg, logger)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(routerDeps{h: h, svc: svc, sessions: sessionManager, issuer: issuer, db: database, registry: reg, metrics: m, logger: logger}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
