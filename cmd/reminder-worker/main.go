package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medagenda/clinic-backend/internal/appointment"
	"github.com/medagenda/clinic-backend/internal/config"
	"github.com/medagenda/clinic-backend/internal/db"
	"github.com/medagenda/clinic-backend/internal/notify"
	redisclient "github.com/medagenda/clinic-backend/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config load error")
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Str("component", "reminder-worker").Logger()
	log.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("reminder-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()

	rdb, err := redisclient.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()

	var notifier notify.Notifier = notify.Nop{}
	if cfg.SMTPHost != "" {
		notifier = notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, log)
	}

	repo := appointment.NewPgRepository(pgPool)
	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
	svc := appointment.NewService(repo, locker, notifier, log)

	// Run once at startup, then on every tick.
	runOnce(rootCtx, svc, log)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, log)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.RemindUpcoming(runCtx); err != nil {
		log.Error().Err(err).Msg("reminder run error")
		return
	}
	log.Info().Dur("took", time.Since(start)).Msg("reminder run complete")
}
