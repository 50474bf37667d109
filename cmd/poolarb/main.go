// Package main is the entry point for the cross-pool arbitrage pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/crosspool/poolarb/business/execution"
	"github.com/crosspool/poolarb/business/market"
	"github.com/crosspool/poolarb/business/strategy"
	strategyApp "github.com/crosspool/poolarb/business/strategy/app"
	"github.com/crosspool/poolarb/business/strategy/infra/report"
	"github.com/crosspool/poolarb/internal/apm"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/health"
	"github.com/crosspool/poolarb/internal/logger"
	"github.com/crosspool/poolarb/internal/metrics"
	"github.com/crosspool/poolarb/internal/monolith"
	"github.com/crosspool/poolarb/pkg/ui"
	"github.com/crosspool/poolarb/pkg/ui/components"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("poolarb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	logLevel := logger.ParseLevel(cfg.App.LogLevel)

	var log *logger.Logger
	if tuiMode {
		// In TUI mode, suppress logs (discard output)
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting cross-pool arbitrage pipeline",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin")

		if _, err := metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		); err != nil {
			return fmt.Errorf("failed to init metrics: %w", err)
		}

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	healthPort := cfg.Telemetry.HealthPort
	if healthPort == 0 {
		healthPort = 8081
	}
	healthServer := health.NewServer(healthPort, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	}
	defer healthServer.Stop(ctx)

	mono := monolith.New(cfg, log)

	// Wire the reporter first: TUI or structured logs.
	var (
		reporter strategyApp.Reporter
		program  *tea.Program
	)
	if tuiMode {
		safetyPanel := components.NewSafetyComponent(
			cfg.Safety.MaxConsecutiveFailures, cfg.Safety.DailyLossCapDecimal())
		program = tea.NewProgram(ui.New(safetyPanel), tea.WithAltScreen())
		reporter = report.NewTUIReporter(program)
	} else {
		reporter = report.NewConsoleReporter(log)
	}

	// Modules share the parameter store: the strategy context owns it,
	// the execution pipeline reads it.
	strategyModule := &strategy.Module{Reporter: reporter}
	executionModule := &execution.Module{Params: strategyModule.Params(cfg.Strategy)}
	marketModule := &market.Module{}

	// Market registers first so the strategy engine can front its service.
	if err := mono.RegisterModules(marketModule, executionModule); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	strategyModule.Market = marketModule.Service()
	strategyModule.Executor = executionModule.Pipeline()
	strategyModule.History = executionModule.History()
	if err := mono.RegisterModules(strategyModule); err != nil {
		return fmt.Errorf("failed to register strategy module: %w", err)
	}

	healthServer.RegisterCheck("market_feed", marketModule.Service().Healthy)
	healthServer.RegisterCheck("safety_gate", func(ctx context.Context) (bool, string) {
		status := executionModule.Safety().Status()
		if status.Shutdown {
			return false, "shutdown requested"
		}
		return true, string(status.State)
	})

	modules := []monolith.Module{marketModule, executionModule, strategyModule}
	defer func() {
		strategyModule.Shutdown()
		executionModule.Shutdown(context.Background())
	}()

	if tuiMode {
		return runTUI(ctx, program, executionModule, func() error {
			return mono.StartModules(ctx, modules...)
		})
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	log.Info(ctx, "all modules started")
	<-ctx.Done()
	log.Info(ctx, "shutting down")
	return nil
}

func runTUI(ctx context.Context, program *tea.Program, executionModule *execution.Module, startFunc func() error) error {
	// Operator keys act on the safety gate directly.
	ui.OnShutdown = func() {
		executionModule.Safety().Shutdown(context.Background())
		program.Send(ui.SafetyMsg{Status: executionModule.Safety().Status()})
	}
	ui.OnRestart = func() {
		executionModule.Safety().Restart(context.Background())
		program.Send(ui.SafetyMsg{Status: executionModule.Safety().Status()})
	}

	errCh := make(chan error, 1)
	go func() {
		if err := startFunc(); err != nil {
			program.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		<-ctx.Done()
		program.Quit()
		errCh <- nil
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
