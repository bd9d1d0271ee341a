package cli

import (
	"context"
	"fmt"
	"time"

	"neuraresume/internal/backend"
	"neuraresume/internal/config"
	"neuraresume/internal/observability"
	"neuraresume/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server with the browser UI and the analysis API",
	Long: `Start an HTTP server that hosts the NeuraResume browser UI and the analysis API.

Available endpoints:
- GET  /: Browser UI (form, report and PDF download)
- POST /analyze: Analyze a resume (multipart form)
- POST /generate-answers: Generate answers for interview questions (JSON)
- GET  /health: Health check endpoint
- GET  /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// serveFlagKeys maps configuration keys to the flags overriding them
var serveFlagKeys = map[string]string{
	"server.port":         "port",
	"server.host":         "host",
	"server.enableUI":     "ui",
	"server.tls.mode":     "tls-mode",
	"server.tls.certFile": "cert-file",
	"server.tls.keyFile":  "key-file",
	"server.tls.caFile":   "ca-file",
}

const observabilityShutdownTimeout = 10 * time.Second

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().Bool("ui", true, "Serve the browser UI (overrides config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

// applyServeOverrides copies explicitly set flags over the loaded configuration
func applyServeOverrides(cmd *cobra.Command, cfg *config.Config) error {
	v := viper.New()
	for key, flagName := range serveFlagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flagName)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flagName, err)
		}
	}

	// Bound flags only count as set when given on the command line
	overrideString := func(key string, target *string) {
		if v.IsSet(key) {
			*target = v.GetString(key)
		}
	}
	overrideString("server.port", &cfg.Server.Port)
	overrideString("server.host", &cfg.Server.Host)
	overrideString("server.tls.mode", &cfg.Server.TLS.Mode)
	overrideString("server.tls.certFile", &cfg.Server.TLS.CertFile)
	overrideString("server.tls.keyFile", &cfg.Server.TLS.KeyFile)
	overrideString("server.tls.caFile", &cfg.Server.TLS.CAFile)
	if v.IsSet("server.enableUI") {
		cfg.Server.EnableUI = v.GetBool("server.enableUI")
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if err := applyServeOverrides(cmd, cfg); err != nil {
		return err
	}
	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), observabilityShutdownTimeout)
		defer cancel()
		if err := om.Shutdown(ctx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()

	b, err := backend.New(cfg, logger, om.Metrics())
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("Failed to close backend", "error", err)
		}
	}()

	srv, err := server.NewServer(cfg, server.Dependencies{
		Version:       Version,
		Backend:       b,
		Observability: om,
	}, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting server",
		"backend", b.Mode(),
		"ui_enabled", cfg.Server.EnableUI,
		"tls_mode", cfg.Server.TLS.Mode)
	return srv.Start(cmd.Context())
}
