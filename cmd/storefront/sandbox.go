package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bakery/storefront/internal/platform/sandbox"
)

func sandboxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "In-memory backend for development and demos",
	}

	var (
		seed     bool
		seedWith int64
	)
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sandbox backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSandbox(a, seed, seedWith)
		},
	}
	serveCmd.Flags().BoolVar(&seed, "seed", false, "fill the default tenant with demo data")
	serveCmd.Flags().Int64Var(&seedWith, "seed-value", 0, "random seed for the demo data (0 picks one)")

	cmd.AddCommand(serveCmd)
	return cmd
}

func runSandbox(a *app, seed bool, seedWith int64) error {
	cfg, logger := a.cfg, a.logger

	opts := sandbox.Options{
		Logger:        logger,
		Secret:        []byte(cfg.SessionSecret),
		DefaultTenant: cfg.DefaultTenant,
		Prefixes:      cfg.TenantPrefixes,
		CORSOrigins:   cfg.CORSOrigins,
	}
	if seed {
		sc := sandbox.DefaultSeedConfig()
		sc.Seed = seedWith
		opts.Seed = &sc
	}
	srv, err := sandbox.New(opts)
	if err != nil {
		return err
	}
	e := srv.Echo()

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("tenant", cfg.DefaultTenant).Bool("seeded", seed).Msg("starting sandbox")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("sandbox error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down sandbox")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return err
	}
	srv.Drain()
	logger.Info().Msg("sandbox stopped")
	return nil
}
