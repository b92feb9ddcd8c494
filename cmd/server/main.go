package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/auth"
	"github.com/gonza-rom/jmr-stock-sub000/internal/config"
	"github.com/gonza-rom/jmr-stock-sub000/internal/infra"
	"github.com/gonza-rom/jmr-stock-sub000/internal/middleware"
	"github.com/gonza-rom/jmr-stock-sub000/internal/repository"
	"github.com/gonza-rom/jmr-stock-sub000/internal/router"
	"github.com/gonza-rom/jmr-stock-sub000/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	// Redis backs the price cache and the job queues; without it the API
	// still serves every stock operation.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, cache and async jobs disabled")
			rdb = nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg, nil)
	// The digest cron and /health share the breaker that guards SMTP sends.
	mailerCB := mailer.Breaker()
	if !mailer.Enabled() {
		log.Info().Msg("SMTP_HOST not set, emails will be dropped")
	}
	alertTo := splitList(cfg.AlertEmailTo)

	var (
		dispatcher *worker.Dispatcher
		pool       *worker.Pool
	)
	if rdb != nil {
		q := worker.NewRedisQueue(rdb)
		dispatcher = worker.NewDispatcher(q)

		pool = worker.NewPool(q, cfg.WorkerPoolSize)
		pool.Register(worker.QueueEmail, worker.JobEmail, worker.NewEmailWorker(mailer))
		pool.Register(worker.QueueAlertas, worker.JobAlertaStock, worker.NewAlertaStockWorker(mailer, alertTo, cfg.BusinessName))
		pool.Start(ctx)

		worker.StartDigestCron(ctx, worker.DigestCronConfig{
			Productos:  repository.NewProductoRepository(db),
			Dispatcher: dispatcher,
			CB:         mailerCB,
			To:         alertTo,
			Interval:   cfg.AlertCronInterval,
			Negocio:    cfg.BusinessName,
		})
	}

	limiter := middleware.NewRateLimiter(1000, time.Minute, "Demasiadas solicitudes. Intente en 1 minuto.")
	loginLimiter := middleware.NewLoginRateLimiter()
	limiter.StartPurge(ctx)
	loginLimiter.StartPurge(ctx)

	authn := auth.NewAuthenticator(
		cfg.JWTSecret,
		time.Duration(cfg.JWTExpirationHours)*time.Hour,
		time.Duration(cfg.JWTRefreshHours)*time.Hour,
	)

	r := router.New(cfg, router.Deps{
		DB:           db,
		Redis:        rdb,
		Authn:        authn,
		Dispatcher:   dispatcher,
		MailerCB:     mailerCB,
		Limiter:      limiter,
		LoginLimiter: loginLimiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("JMR stock backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	// Stop workers after the last request so queued jobs are not lost mid-flight.
	cancel()
	if pool != nil {
		pool.Wait()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
