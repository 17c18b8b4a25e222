package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chilledoj/roadrage"
	"github.com/chilledoj/roadrage/internal/config"
	"github.com/chilledoj/roadrage/internal/logging"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server",
	RunE:  runServe,
}

func init() {
	config.RegisterFlags(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: cfgFile,
		EnvFile:    envFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	opts, err := coordinatorOptions(cfg, logger)
	if err != nil {
		return err
	}

	mainCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator := roadrage.NewCoordinator(mainCtx, opts)
	go coordinator.Start()

	s := http.Server{
		Addr:    cfg.Addr,
		Handler: newRouter(coordinator),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-mainCtx.Done():
	case err := <-errCh:
		if err != nil {
			coordinator.Stop()
			return fmt.Errorf("listen: %w", err)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	logger.Info("shutting down rooms")
	coordinator.Stop()
	logger.Info("shutdown complete")
	return nil
}

func coordinatorOptions(cfg *config.Config, logger *slog.Logger) (roadrage.Options, error) {
	policy, err := roadrage.ParseRoomPolicy(cfg.Rooms.Policy)
	if err != nil {
		return roadrage.Options{}, err
	}
	return roadrage.Options{
		Countdown:         cfg.Game.Countdown,
		DefaultTrack:      cfg.Game.DefaultTrack,
		DefaultBike:       cfg.Game.DefaultBike,
		MaxPlayersPerRoom: cfg.Rooms.MaxPlayers,
		RoomPolicy:        policy,
		CleanupPeriod:     cfg.Rooms.CleanupPeriod,
		Slogger:           logger,
	}, nil
}
