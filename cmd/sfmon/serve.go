package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/shapeflow/monitor/internal/monitor/config"
	"github.com/shapeflow/monitor/internal/monitor/logger"
	"github.com/shapeflow/monitor/internal/monitor/server"
	"github.com/shapeflow/monitor/internal/monitor/session"
	"github.com/shapeflow/monitor/internal/monitor/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	Long:  "Load the default log source, run the alert detectors, and serve the dashboard data API over HTTP.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		st, err := newStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		sess, err := session.New(cmd.Context(), st, cfg)
		if err != nil {
			return fmt.Errorf("load default log source: %w", err)
		}

		srv := server.New(sess, cfg.Server.Listen)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-stop
			logger.L().Infow("Signal received, shutting down", "signal", sig.String())
			if err := srv.Shutdown(); err != nil {
				logger.L().Errorw("Shutdown failed", "error", err)
			}
		}()

		return srv.Listen()
	},
}

// newStore builds the configured store backend.
func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "sql":
		return store.NewSQLStore(store.SQLOptions{
			Driver:   cfg.Store.SQL.Driver,
			Host:     cfg.Store.SQL.Host,
			Port:     cfg.Store.SQL.Port,
			User:     cfg.Store.SQL.User,
			Password: cfg.Store.SQL.Password,
			DBName:   cfg.Store.SQL.DBName,
			SSLMode:  cfg.Store.SQL.SSLMode,
			Path:     cfg.Store.SQL.Path,
		})
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return store.NewRedisStore(client), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
