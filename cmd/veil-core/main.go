// Package main is the entry point for the veil-core binary: the PII
// redaction gateway core with its token vault, policy engine, and leak-audit
// loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/veilai/veil-oss/pkg/audit"
	"github.com/veilai/veil-oss/pkg/config"
	"github.com/veilai/veil-oss/pkg/detect"
	"github.com/veilai/veil-oss/pkg/logging"
	"github.com/veilai/veil-oss/pkg/policy"
	"github.com/veilai/veil-oss/pkg/policy/authz"
	"github.com/veilai/veil-oss/pkg/redaction"
	"github.com/veilai/veil-oss/pkg/telemetry"
	"github.com/veilai/veil-oss/pkg/vault"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "veil-core",
		Short: "Token vault and policy-gated PII restoration engine",
		Long: `veil-core tokenizes sensitive text spans, stores the originals in an
ephemeral TTL vault, and restores them later under policy control. Every
redaction is re-checked in the background by an LLM leak auditor that purges
the affected vault entries if residual PII slipped through.`,
	}

	rootCmd.AddCommand(newServeCmd(), newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the veil-core version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("veil-core %s\n", version)
		},
	}
}

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the redaction gateway",
		RunE:  runServe,
	}

	serveCmd.Flags().StringP("config", "c", "", "Path to configuration file (YAML)")
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")
	serveCmd.Flags().Bool("pretty", false, "Enable pretty console logging")

	return serveCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	listenAddr, _ := cmd.Flags().GetString("listen")
	logLevel, _ := cmd.Flags().GetString("log-level")
	pretty, _ := cmd.Flags().GetBool("pretty")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.Address = listenAddr
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger := logging.NewLogger(logging.Config{Level: cfg.Logging.Level, Pretty: pretty || cfg.Logging.Pretty})
	slog.SetDefault(logger)
	logger.Info("starting veil-core", "version", version, "listen", cfg.Server.Address)

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName: "veil-core",
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}

	metrics := telemetry.NewMetrics()

	// Component graph: constructed here, nowhere else.
	tokenVault := vault.NewMemoryVault(cfg.Vault.SweepInterval, vault.WithLogger(logger))
	metrics.RegisterVaultSize(func() float64 { return float64(tokenVault.Len()) })

	analyzer, err := detect.NewAnalyzer(detect.DefaultConfig())
	if err != nil {
		return fmt.Errorf("build detector: %w", err)
	}

	engine := policy.NewEngine()

	guard, err := authz.NewGuard(ctx, authz.GuardOptions{})
	if err != nil {
		return fmt.Errorf("build authz guard: %w", err)
	}

	var verifier *audit.HTTPVerifier
	var worker *audit.Worker
	if cfg.Verifier.BaseURL != "" {
		verifier = audit.NewHTTPVerifier(audit.VerifierConfig{
			BaseURL: cfg.Verifier.BaseURL,
			Model:   cfg.Verifier.Model,
			APIKey:  os.Getenv("VEIL_VERIFIER_API_KEY"),
			Timeout: cfg.Verifier.Timeout,
		}, logger)
		worker = audit.NewWorker(verifier, tokenVault, audit.WorkerConfig{
			QueueSize:       cfg.Audit.QueueSize,
			VerifierTimeout: cfg.Verifier.Timeout,
			Workers:         cfg.Audit.Workers,
		}, logger, metrics)
	} else {
		logger.Warn("no verifier endpoint configured, leak auditing disabled")
	}

	pipeline := redaction.NewPipeline(engine, tokenVault, cfg.Vault.TTL)

	svcCfg := redaction.ServiceConfig{
		Detector:       analyzer,
		Engine:         engine,
		Pipeline:       pipeline,
		Restorer:       redaction.NewRestorer(tokenVault),
		Guard:          guard,
		Sink:           audit.NewSlogSink(logger),
		Metrics:        metrics,
		Logger:         logger,
		DefaultContext: cfg.Policy.DefaultContext,
	}
	if worker != nil {
		svcCfg.Auditor = worker
	}
	service, err := redaction.NewService(svcCfg)
	if err != nil {
		return err
	}

	// Hot reload: vault TTL and default policy context follow the config
	// file without a restart. Listen address and worker sizing do not.
	var provider *config.FileConfigProvider
	if configPath != "" {
		provider, err = config.NewFileConfigProvider(configPath, logger)
		if err != nil {
			return fmt.Errorf("watch config file: %w", err)
		}
		updates := provider.Subscribe()
		go func() {
			for next := range updates {
				pipeline.SetTTL(next.Vault.TTL)
				service.SetDefaultContext(next.Policy.DefaultContext)
			}
		}()
		logger.Info("config hot reload enabled", "path", configPath)
	}

	server := startServer(cfg.Server.Address, service, metrics, logger)

	waitForShutdown(server, logger)

	// Drain the audit queue, stop the sweeper, flush spans.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if provider != nil {
		if err := provider.Close(); err != nil {
			logger.Error("config watcher shutdown failed", "error", err)
		}
	}
	if worker != nil {
		if err := worker.Close(shutdownCtx); err != nil {
			logger.Error("audit worker shutdown failed", "error", err)
		}
	}
	if err := tokenVault.Close(); err != nil {
		logger.Error("vault shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", "error", err)
	}

	logger.Info("veil-core stopped")
	return nil
}

func waitForShutdown(stop func(context.Context) error, logger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
}
