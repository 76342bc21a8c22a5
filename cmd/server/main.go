// Command server is the back-office API entrypoint. It loads configuration,
// sets up structured logging and tracing, opens the SQLite database, mounts
// the HTTP API, and starts the in-process reminder worker.
//
// Shutdown is graceful: SIGINT/SIGTERM stops the worker, drains in-flight
// HTTP requests, and flushes the trace exporter before exit.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/config"
	httpapi "github.com/mirkodgzconsulting/gibravotravel-sub005/internal/http"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/observability"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/repo"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/services"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/sysutil"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/worker"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Local development convenience; ignored when the file is absent.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	// Operating timezone (validated by config.Load)
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.Scheduler.Timezone).Msg("load timezone failed")
	}

	// Storage
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database failed")
	}

	// HTTP API
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, loc, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	// Reminder worker
	workerDone := make(chan struct{})
	if cfg.Scheduler.Enabled {
		sched := &services.SchedulerService{
			DB:          db,
			Loc:         loc,
			TitleLocale: language.English,
		}
		w := worker.NewTicker(sched, cfg.Scheduler.TickInterval)
		go func() {
			defer close(workerDone)
			w.Run(ctx)
		}()
	} else {
		close(workerDone)
		log.Info().Msg("reminder worker disabled; use POST /reminders/run")
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	<-workerDone
	log.Info().Msg("server stopped")
}
