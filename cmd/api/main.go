package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"place_extractor/internal/adapters/browser"
	server "place_extractor/internal/adapters/http_server"
	"place_extractor/internal/adapters/observability"
	redisad "place_extractor/internal/adapters/redis"
	"place_extractor/internal/app"
	"place_extractor/internal/domain"
	"place_extractor/internal/extract"
	"place_extractor/internal/shared"
	mysqlrepo "place_extractor/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// storage is optional: without MYSQL_DSN extractions are served but not kept
	var (
		repo  domain.ExtractionRepository
		cache domain.Cache
		q     *app.QueryService
	)
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		repo = mysqlrepo.New(db)
	}
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(context.Background()); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, cache calls will fail open")
		}
		cache = rc
	}
	if repo != nil {
		q = app.NewQueryService(repo, cache, cfg.CacheTTL)
	}

	// extraction pipeline
	sel, err := extract.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("selectors")
	}
	pipelineLog := log.Logger.With().Str("component", "extract").Logger()
	ex := extract.New(extract.Options{
		Selectors: sel,
		Timings:   cfg.Timings,
		Logger:    &pipelineLog,
		Recorder:  observability.Recorder{},
	})
	launcher := browser.NewLauncher(browser.Options{
		Headless:     cfg.Headless,
		UserAgent:    cfg.UserAgent,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		Logger:       log.Logger.With().Str("component", "browser").Logger(),
	})
	svc := app.NewExtractionService(launcher, ex, repo, cache, cfg.CacheTTL).
		WithObserver(observability.ObserveExtraction)

	// http
	srv := server.New(cfg.PageTimeout + 10*time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Ex:       svc,
		Q:        q,
		Sessions: semaphore.NewWeighted(int64(cfg.MaxSessions)),
		Launches: rate.NewLimiter(rate.Limit(cfg.ExtractRPS), 1),
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.PageTimeout)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Int("max_sessions", cfg.MaxSessions).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
