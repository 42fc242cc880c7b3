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

	"github.com/spf13/cobra"

	"github.com/nathantilsley/squash-commit-app/internal/logging"
	hostfactory "github.com/nathantilsley/squash-commit-app/internal/squash/adapters/host_factory"
	"github.com/nathantilsley/squash-commit-app/internal/squash/adapters/webhook"
	"github.com/nathantilsley/squash-commit-app/internal/squash/app"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve GitHub webhooks",
		Long: `Listen for pull_request webhooks (opened, reopened, synchronize) and
rewrite the tip of every single-commit pull request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}

			logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}

			key, err := cfg.PrivateKey()
			if err != nil {
				return err
			}
			hosts, err := hostfactory.NewAppFactory(cfg.AppID, key, cfg.APIURL, cfg.HTTPTimeout)
			if err != nil {
				return err
			}

			dispatcher := app.NewDispatcher(hosts, logger)
			handler := webhook.New(dispatcher, cfg.WebhookSecret, logger)

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Port),
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errChan := make(chan error, 1)
			go func() {
				logger.Info("webhook server listening", "addr", server.Addr, "path", "/webhook")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errChan <- fmt.Errorf("webhook server failed: %w", err)
				}
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down webhook server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errChan:
				return err
			}
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (or PORT env var)")
	return cmd
}
