package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/rps-arena/internal/config"
	"github.com/DoyleJ11/rps-arena/internal/game"
	"github.com/DoyleJ11/rps-arena/internal/httpapi"
	"github.com/DoyleJ11/rps-arena/internal/liveness"
	"github.com/DoyleJ11/rps-arena/internal/logging"
	"github.com/DoyleJ11/rps-arena/internal/queue"
	"github.com/DoyleJ11/rps-arena/internal/solo"
	"github.com/DoyleJ11/rps-arena/internal/store"
	"github.com/DoyleJ11/rps-arena/internal/store/memory"
	"github.com/DoyleJ11/rps-arena/internal/store/sqlstore"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, st.Close()) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := solo.NewRegistry(ctx)
	defer sessions.Close()

	// Build the router with every service injected
	handler := httpapi.SetupRoutes(httpapi.Deps{
		Queue: queue.New(st, queue.Config{
			TTL:       cfg.QueueTTL,
			WinScore:  cfg.WinScore,
			MaxRounds: cfg.MaxRounds,
		}, log.Named("queue")),
		Games:       game.New(st, liveness.New(cfg.DisconnectTimeout), log.Named("game")),
		Solo:        sessions,
		Log:         log.Named("http"),
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(cfg config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return sqlstore.OpenSQLite(cfg.SQLitePath)
	case config.DriverPostgres:
		return sqlstore.OpenPostgres(cfg.DatabaseURL)
	default:
		return memory.New(), nil
	}
}
