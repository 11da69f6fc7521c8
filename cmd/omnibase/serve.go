package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/cli"
	httpAdapter "github.com/OmniNode-ai/omnibase-core-sub006/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Loads every contract in the contracts directory and exposes the entity service as a JSON API.
Settings come from OMNIBASE_* environment variables; flags override them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := cfg.Logger()

		stack, err := cli.BuildStack(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := stack.Close(); err != nil {
				logger.Error("failed to release resources", "err", err)
			}
		}()

		srv := &http.Server{
			Addr: cfg.Addr,
			Handler: httpAdapter.NewHandler(stack.Service,
				httpAdapter.WithLogger(logger),
				httpAdapter.WithMetrics(stack.Registry),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("omnibase server listening", "addr", srv.Addr, "contracts", cfg.ContractsDir, "store", cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			logger.Info("shutting down", "signal", fmt.Sprint(ctx.Signal()))

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("omnibase server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().String("contracts", "contracts", "Directory containing contract files")
	serveCmd.Flags().String("store", "memory", "State store: memory, file, redis or sqlite")
}
