// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

// Command osksite runs the driving school site backend: the public
// pricing and content API plus the admin console API.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/stxworks/osksite/internal/config"
	"github.com/stxworks/osksite/internal/content"
	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/geoip"
	"github.com/stxworks/osksite/internal/guard"
	"github.com/stxworks/osksite/internal/handler"
	"github.com/stxworks/osksite/internal/i18n"
	"github.com/stxworks/osksite/internal/imaging"
	"github.com/stxworks/osksite/internal/logging"
	"github.com/stxworks/osksite/internal/mailer"
	"github.com/stxworks/osksite/internal/middleware"
	"github.com/stxworks/osksite/internal/pricing"
	"github.com/stxworks/osksite/internal/scheduler"
	"github.com/stxworks/osksite/internal/session"
	"github.com/stxworks/osksite/internal/store"
	"github.com/stxworks/osksite/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func buildInfo() version.Info {
	return version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(buildInfo().String())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := logging.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger so WARN and ERROR records also land in the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	kv := store.NewSQLiteKV(db)
	gw := gateway.New(cfg.GatewayURL, cfg.GatewayAnonKey)
	if !gw.Configured() {
		slog.Warn("remote gateway not configured, running on fallback data")
	}

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip database unavailable", "path", cfg.GeoIPDBPath, "error", err)
	}
	defer geo.Close()

	allowlist := guard.NewAllowlist(cfg.AdminEmails, cfg.FullAccessEmails)
	accessGuard := guard.New(gw, kv, allowlist, geo, cfg.IPLookupURL, logger)

	engine := pricing.NewEngine(gw, logger)
	defer engine.Close()
	ctx := context.Background()
	if err := engine.LoadCatalog(ctx); err != nil {
		return fmt.Errorf("loading price catalog: %w", err)
	}
	popupGate := pricing.NewPopupGate(engine, kv, logger)

	newsSvc := content.NewNewsService(gw, accessGuard, kv, logger)
	categorySvc := content.NewCategoryService(gw, accessGuard, logger)
	codeSvc := content.NewCodeService(gw, accessGuard, logger)
	reviewSvc := content.NewReviewService(gw, accessGuard, codeSvc, logger)
	registrationSvc := content.NewRegistrationService(gw, accessGuard, logger)
	priceSvc := content.NewPriceService(gw, accessGuard, logger)

	mail := mailer.New(
		mailer.Account{
			PublicKey:   cfg.ContactEmailPublicKey,
			ServiceID:   cfg.ContactEmailServiceID,
			TemplateID:  cfg.ContactEmailTemplateID,
			AutoReplyID: cfg.ContactEmailAutoReplyID,
		},
		mailer.Account{
			PublicKey:   cfg.RegistrationEmailPublicKey,
			ServiceID:   cfg.RegistrationEmailServiceID,
			TemplateID:  cfg.RegistrationEmailTemplateID,
			AutoReplyID: cfg.RegistrationEmailAutoReplyID,
		},
		logger)

	sm := session.New(db, cfg.IsDevelopment())

	// Background jobs. Content jobs run with the anon key; the backend's
	// row policies govern what they may touch.
	jobs := scheduler.Jobs{
		RefreshCatalog: engine.LoadCatalog,
		RevalidateSession: func(jctx context.Context) error {
			return sm.Iterate(jctx, func(sctx context.Context) error {
				token := sm.GetString(sctx, middleware.SessionKeyAccessToken)
				if token == "" {
					return nil
				}
				if err := accessGuard.Revalidate(sctx, token); err != nil {
					slog.Warn("admin session invalidated", "category", "auth",
						"email", sm.GetString(sctx, middleware.SessionKeyEmail), "error", err)
					return sm.Destroy(sctx)
				}
				return nil
			})
		},
		PublishScheduled: func(jctx context.Context) error {
			_, err := newsSvc.PublishScheduled(jctx, "")
			return err
		},
		SweepExpiredCodes: func(jctx context.Context) error {
			_, err := codeSvc.SweepExpired(jctx, "")
			return err
		},
	}
	sched := scheduler.New(jobs, logger)
	sched.Start()
	defer sched.Stop()

	// Handlers
	publicH := handler.NewPublicHandler(engine, popupGate, newsSvc, reviewSvc, registrationSvc, mail, logger)
	authH := handler.NewAuthHandler(sm, accessGuard, gw, logger)
	newsH := handler.NewNewsHandler(newsSvc, logger)
	categoriesH := handler.NewCategoriesHandler(categorySvc, logger)
	reviewsH := handler.NewReviewsHandler(reviewSvc, logger)
	registrationsH := handler.NewRegistrationsHandler(registrationSvc, logger)
	codesH := handler.NewCodesHandler(codeSvc, logger)
	pricesH := handler.NewPricesHandler(priceSvc, engine.LoadCatalog, logger)
	mediaH := handler.NewMediaHandler(imaging.NewProcessor(), gw, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"version": buildInfo(),
		})
	})

	// Public API
	r.Route("/api", func(r chi.Router) {
		r.Get("/prices", publicH.Prices)
		r.Get("/promotions", publicH.Promotions)
		r.Get("/popup", publicH.Popup)
		r.Get("/news", publicH.News)
		r.Get("/news/{slug}", publicH.NewsArticle)
		r.Get("/reviews", publicH.Reviews)
		r.Get("/reviews/featured", publicH.FeaturedReviews)

		// Endpoints that write or send email get a per-IP budget.
		r.Group(func(r chi.Router) {
			r.Use(middleware.PublicRateLimit(1, 5))
			r.Post("/reviews", publicH.SubmitReview)
			r.Post("/forms/registration", publicH.SubmitRegistration)
			r.Post("/forms/contact", publicH.SubmitContact)
		})
	})

	// Admin API: session cookie + CSRF + allowlist gate
	r.Route("/admin", func(r chi.Router) {
		r.Use(sm.LoadAndSave)
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())))

		r.Group(func(r chi.Router) {
			r.Use(middleware.LoginRateLimit(0.5, 5))
			r.Post("/login", authH.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(sm, accessGuard))

			r.Post("/logout", authH.Logout)
			r.Get("/session", authH.Session)

			r.Get("/news", newsH.List)
			r.Post("/news", newsH.Create)
			r.Put("/news/{id}", newsH.Update)
			r.Delete("/news/{id}", newsH.Delete)
			r.Get("/news/draft", newsH.RestoreDraft)
			r.Put("/news/draft", newsH.SaveDraft)
			r.Delete("/news/draft", newsH.ClearDraft)

			r.Get("/categories", categoriesH.List)
			r.Post("/categories", categoriesH.Create)
			r.Put("/categories/{id}", categoriesH.Update)
			r.Delete("/categories/{id}", categoriesH.Delete)

			r.Get("/reviews", reviewsH.List)
			r.Put("/reviews/{id}/published", reviewsH.SetPublished)
			r.Put("/reviews/{id}/featured", reviewsH.SetFeatured)
			r.Delete("/reviews/{id}", reviewsH.Delete)

			r.Get("/registrations", registrationsH.List)
			r.Put("/registrations/{id}/status", registrationsH.UpdateStatus)
			r.Delete("/registrations/{id}", registrationsH.Delete)

			r.Get("/codes", codesH.List)
			r.Post("/codes", codesH.Issue)
			r.Delete("/codes/{id}", codesH.Delete)

			r.Put("/prices/{slug}/promo", pricesH.SavePromo)
			r.Put("/prices/{slug}/base", pricesH.UpdateBase)

			r.Post("/media", mediaH.Upload)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
