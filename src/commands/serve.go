package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rafaavmsilva/Menu/src/config"
	"github.com/rafaavmsilva/Menu/src/handlers"
	"github.com/rafaavmsilva/Menu/src/logger"
	"github.com/rafaavmsilva/Menu/src/security"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				config.Cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, config.Cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.AppConfig) error {
	logger.L.Info("Menu backend server starting...")

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.L.Error("Failed to close database", "error", err)
		}
	}()

	router := handlers.NewRouter(handlers.RouterDeps{
		Uploads:        handlers.NewUploadHandler(a.uploads, cfg.UploadDir, cfg.MaxUploadSizeBytes),
		Transactions:   handlers.NewTransactionHandler(a.store, a.cnpj),
		CNPJ:           handlers.NewCNPJHandler(a.cnpj),
		Limiter:        security.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMaxRequests),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.L.Info("Shutting down server, waiting for running imports")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
