package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medagenda/clinic-backend/internal/api"
	"github.com/medagenda/clinic-backend/internal/appointment"
	"github.com/medagenda/clinic-backend/internal/auth"
	"github.com/medagenda/clinic-backend/internal/clinic"
	"github.com/medagenda/clinic-backend/internal/config"
	"github.com/medagenda/clinic-backend/internal/db"
	"github.com/medagenda/clinic-backend/internal/notify"
	redisclient "github.com/medagenda/clinic-backend/internal/redis"
	"github.com/medagenda/clinic-backend/internal/schedule"
	"github.com/medagenda/clinic-backend/internal/session"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config load error")
	}
	log := newLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	registry := session.NewRegistry(session.NewPgStore(pgPool))
	if err := registry.Init(rootCtx); err != nil {
		log.Fatal().Err(err).Msg("session registry init error")
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.SMTPHost != "" {
		notifier = notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, log)
	}

	clinicRepo := clinic.NewPgRepository(pgPool)
	scheduleSvc := schedule.NewService(schedule.NewPgRepository(pgPool), log)
	clinicSvc := clinic.NewService(clinicRepo, registry, scheduleSvc, log)

	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
	apptSvc := appointment.NewService(appointment.NewPgRepository(pgPool), locker, notifier, log)

	router := api.NewRouter(api.RouterConfig{
		Clinic:       clinicSvc,
		Schedule:     scheduleSvc,
		Appointments: apptSvc,
		Gate:         auth.NewGate(registry),
		Schemas:      api.NewSchemas(clinicRepo),
		PgPool:       pgPool,
		Redis:        rdb,
		Env:          cfg.Env,
		Version:      version,
		Log:          log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
