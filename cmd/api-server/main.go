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

	"github.com/hackgods/hospital-shift-booking/internal/account"
	"github.com/hackgods/hospital-shift-booking/internal/api"
	"github.com/hackgods/hospital-shift-booking/internal/appointment"
	"github.com/hackgods/hospital-shift-booking/internal/booking"
	"github.com/hackgods/hospital-shift-booking/internal/config"
	"github.com/hackgods/hospital-shift-booking/internal/db"
	redisclient "github.com/hackgods/hospital-shift-booking/internal/redis"
	"github.com/hackgods/hospital-shift-booking/internal/shift"
)

const version = "0.3.0"

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()
	logger.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Dur("shift_edit_window", cfg.ShiftEditWindow).
		Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.Connect(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	accounts := account.NewPgDirectory(pgPool)
	shiftRepo := shift.NewPgRepository(pgPool)
	apptRepo := appointment.NewPgRepository(pgPool)
	locker := redisclient.NewRedisShiftLocker(rdb, cfg.LockTTL)

	shiftSvc := shift.NewService(shiftRepo, accounts, cfg.ShiftEditWindow, logger)
	bookingSvc := booking.NewService(shiftRepo, apptRepo, locker, logger)

	router := api.NewRouter(api.RouterConfig{
		Shifts:    shiftSvc,
		Bookings:  bookingSvc,
		PgPool:    pgPool,
		Redis:     rdb,
		JWTSecret: cfg.JWTSecret,
		Env:       cfg.Env,
		Version:   version,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown error")
	}

	logger.Info().Msg("api-server stopped")
}
