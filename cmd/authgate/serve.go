package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/holomush/authgate/internal/auth"
	"github.com/holomush/authgate/internal/auth/gotrue"
	"github.com/holomush/authgate/internal/logging"
	"github.com/holomush/authgate/internal/observability"
	devtls "github.com/holomush/authgate/internal/tls"
	"github.com/holomush/authgate/internal/web"
	"github.com/holomush/authgate/internal/xdg"
	"github.com/holomush/authgate/pkg/errutil"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 5 * time.Second

// newServeCmd creates the serve subcommand with all flags configured.
func newServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the auth gateway",
		Long: `Start the auth gateway which serves the UI-facing session API and
talks to the configured identity provider.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configFile == "" {
				configFile = xdg.DefaultConfigFile()
			}
			cfg, err := loadServeConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file path (YAML)")
	cmd.Flags().String("listen-addr", defaultListenAddr, "gateway listen address")
	cmd.Flags().String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", defaultLogFormat, "log format (json or text)")
	cmd.Flags().String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	cmd.Flags().String("provider-base-url", "", "identity provider base URL")
	cmd.Flags().String("provider-api-key", "", "identity provider API key")
	cmd.Flags().Duration("provider-timeout", 0, "identity provider request timeout")
	cmd.Flags().Int("retry-max-attempts", 0, "retry attempts for transient identity failures (0 = default)")
	cmd.Flags().Duration("retry-base-delay", 0, "base retry delay (0 = default)")
	cmd.Flags().Float64("retry-multiplier", 0, "retry backoff multiplier (0 = default)")
	cmd.Flags().String("tls-cert-file", "", "TLS certificate file for the gateway listener")
	cmd.Flags().String("tls-key-file", "", "TLS key file for the gateway listener")
	cmd.Flags().Bool("tls-dev", false, "serve HTTPS with a generated self-signed localhost certificate")

	return cmd
}

// runServe starts the gateway process and blocks until shutdown.
func runServe(ctx context.Context, cfg serveConfig) error {
	logging.SetDefault("authgate", version, logging.Options{
		Format: cfg.LogFormat,
		Level:  cfg.LogLevel,
	})
	logger := slog.Default()

	logger.Info("starting authgate",
		"listen_addr", cfg.ListenAddr,
		"metrics_addr", cfg.MetricsAddr,
		"provider_base_url", cfg.Provider.BaseURL,
	)

	provider, err := gotrue.NewClient(gotrue.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Timeout: cfg.Provider.Timeout,
	})
	if err != nil {
		errutil.LogError(logger, "identity provider setup failed", err)
		return err
	}

	service, err := auth.NewServiceWithLogger(provider, logger)
	if err != nil {
		errutil.LogError(logger, "auth service setup failed", err)
		return err
	}
	service.SetRetryPolicy(auth.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		Multiplier:  cfg.Retry.Multiplier,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start observability server if configured.
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool { return true })
		if _, err := obsServer.Start(); err != nil {
			errutil.LogError(logger, "observability server start failed", err)
			return err
		}
		metrics = obsServer.Metrics()
	}

	gateway, err := web.NewServer(cfg.ListenAddr, service, metrics, logger)
	if err != nil {
		errutil.LogError(logger, "gateway setup failed", err)
		return err
	}

	switch {
	case cfg.TLS.Dev:
		cert, certErr := devtls.EnsureDevCert(xdg.CertsDir())
		if certErr != nil {
			errutil.LogError(logger, "dev certificate setup failed", certErr)
			return certErr
		}
		gateway.SetTLS(cert.CertFile, cert.KeyFile)
	case cfg.TLS.CertFile != "":
		if certErr := devtls.ValidateCert(cfg.TLS.CertFile, cfg.TLS.KeyFile); certErr != nil {
			errutil.LogError(logger, "TLS certificate setup failed", certErr)
			return certErr
		}
		gateway.SetTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	}

	gatewayErrCh, err := gateway.Start()
	if err != nil {
		errutil.LogError(logger, "gateway start failed", err)
		if obsServer != nil {
			stopObservability(obsServer, logger)
		}
		return err
	}

	logger.Info("authgate ready", "addr", gateway.Addr())

	// Handle signals.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-gatewayErrCh:
		if err != nil {
			errutil.LogError(logger, "gateway server failed", err)
		}
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := gateway.Stop(shutdownCtx); err != nil {
		errutil.LogWarn(logger, "error stopping gateway server", err)
	}
	if obsServer != nil {
		stopObservability(obsServer, logger)
	}

	logger.Info("shutdown complete")
	return nil
}

func stopObservability(s *observability.Server, logger *slog.Logger) {
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		errutil.LogWarn(logger, "error stopping observability server", err)
	}
}
