package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sunduqi-backend/internal/cache"
	"sunduqi-backend/internal/config"
	"sunduqi-backend/internal/database"
	"sunduqi-backend/internal/logger"
	"sunduqi-backend/internal/server"
	"sunduqi-backend/internal/storage"

	"github.com/urfave/cli"
	"go.uber.org/zap"
)

func main() {
	app := cli.NewApp()
	app.Name = "sunduqi"
	app.Usage = "branch cash management API"
	app.Action = serve
	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "run the HTTP server (default)",
			Action: serve,
		},
		{
			Name:   "db:migrate",
			Usage:  "create or update the database schema",
			Action: migrate,
		},
		{
			Name:   "db:seed",
			Usage:  "create the first admin and demo branches",
			Action: seed,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config, builds the logger and connects to the database.
func bootstrap() (*config.Config, *zap.Logger, *database.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.New(cfg.Log)
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	store, err := database.Open(cfg.Database, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, err
	}
	return cfg, log, store, nil
}

func migrate(_ *cli.Context) error {
	_, log, store, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return err
	}
	log.Info("migration complete")
	return nil
}

func seed(_ *cli.Context) error {
	cfg, log, store, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return err
	}
	if err := store.Seed(context.Background(), cfg.Seed, log); err != nil {
		return err
	}
	log.Info("seed complete")
	return nil
}

func serve(_ *cli.Context) error {
	cfg, log, store, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer store.Close()

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	c := cache.New(cfg.Redis, log)
	defer c.Close()

	app := server.New(server.Wire(cfg, store.DB, log, files, c))

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.HTTP.Port), zap.String("env", cfg.App.Env))
		errCh <- app.Listen(":" + cfg.HTTP.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
