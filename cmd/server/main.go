// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/api"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/config"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/discovery"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/logging"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/supervisor"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Config is not available yet, so this goes through the default logger.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Server stopped")
}

func run(cfg *config.Config) error {
	logging.Info().
		Str("driver", cfg.Database.Driver).
		Str("environment", cfg.Server.Environment).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Msg("Starting discovery engine")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, time.Now())
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing signal store")
		}
	}()

	sharedCache := buildCache(&cfg.Cache)

	svc, err := discovery.Assemble(st, sharedCache, discoveryOptions(cfg), logging.Logger())
	if err != nil {
		return err
	}

	router := api.NewRouter(svc, middlewareConfig(&cfg.Security))
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	if sweeper := sweeperFor(sharedCache); sweeper != nil {
		tree.AddMaintenanceService(services.NewCacheSweeperService(sweeper, cfg.Cache.SweepInterval))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil {
		for _, unstopped := range report {
			logging.Warn().Str("service", unstopped.Name).Msg("Service did not stop within shutdown timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
