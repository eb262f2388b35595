// Package main implements the entry point for the BluemixPOC document
// gateway. BluemixPOC bridges NATS-based automation flows and Cloudant-style
// document databases through configurable input and output components.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"syscall"
	"time"

	gateway "github.com/Noaman7/BluemixPOC/cloudant"
	"github.com/Noaman7/BluemixPOC/component"
	"github.com/Noaman7/BluemixPOC/componentregistry"
	"github.com/Noaman7/BluemixPOC/config"
	"github.com/Noaman7/BluemixPOC/credentials"
	"github.com/Noaman7/BluemixPOC/errors"
	"github.com/Noaman7/BluemixPOC/health"
	"github.com/Noaman7/BluemixPOC/metric"
	"github.com/Noaman7/BluemixPOC/natsclient"
	"github.com/Noaman7/BluemixPOC/types"
)

// healthCheckInterval is how often component health is sampled
const healthCheckInterval = 30 * time.Second

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "bluemixpoc"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	// Run application with proper error handling
	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	// Parse and validate CLI flags
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	// Load and validate configuration
	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	// Setup core infrastructure
	ctx := context.Background()
	natsClient, metricsRegistry, platform, err := createCoreDependencies(cfg)
	if err != nil {
		return fmt.Errorf("create dependencies: %w", err)
	}
	defer func() { _ = natsClient.Close(ctx) }()

	if err := connectToNATS(ctx, natsClient); err != nil {
		return err
	}

	metricsServer, err := startMetricsServer(cfg, metricsRegistry)
	if err != nil {
		return err
	}
	if metricsServer != nil {
		defer func() { _ = metricsServer.Stop() }()
	}

	// Resolve named connection profiles: static config entries first, the
	// JetStream-backed credential store for everything else
	profiles := setupProfiles(ctx, cfg, natsClient)

	// Component registry with the gateway factories
	registry, err := setupRegistry()
	if err != nil {
		return err
	}

	deps := component.Dependencies{
		NATSClient:      natsClient,
		Profiles:        profiles,
		MetricsRegistry: metricsRegistry,
		Logger:          logger,
		Platform:        platform,
	}

	components, err := createComponents(cfg, registry, deps)
	if err != nil {
		return err
	}
	if len(components) == 0 {
		slog.Warn("No components enabled; nothing to run")
	}

	// Run application with signal handling
	return runWithSignalHandling(ctx, components, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting BluemixPOC document gateway",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// initializeConfiguration loads and validates configuration
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	cfg, err := loader.LoadFile(cliCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// createCoreDependencies creates the NATS client, metrics registry, and
// platform identity shared by all components
func createCoreDependencies(
	cfg *config.Config,
) (*natsclient.Client, *metric.MetricsRegistry, types.PlatformMeta, error) {
	natsURL := "nats://localhost:4222"
	if len(cfg.NATS.URLs) > 0 {
		natsURL = cfg.NATS.URLs[0]
	}

	natsClient, err := natsclient.NewClient(natsURL,
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait),
	)
	if err != nil {
		return nil, nil, types.PlatformMeta{}, fmt.Errorf("create NATS client: %w", err)
	}

	metricsRegistry := metric.NewMetricsRegistry()

	platform := types.PlatformMeta{
		Org:      cfg.Platform.Org,
		Platform: cfg.Platform.ID,
	}

	slog.Info("Platform identity configured",
		"org", platform.Org,
		"platform", platform.Platform,
		"environment", cfg.Platform.Environment)

	return natsClient, metricsRegistry, platform, nil
}

// connectToNATS establishes NATS connection and waits for it to be ready
func connectToNATS(ctx context.Context, natsClient *natsclient.Client) error {
	slog.Info("Connecting to NATS")
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := natsClient.WaitForConnection(connCtx); err != nil {
		return fmt.Errorf("NATS connection timeout: %w", err)
	}

	return nil
}

// startMetricsServer exposes the Prometheus endpoint when enabled
func startMetricsServer(cfg *config.Config, registry *metric.MetricsRegistry) (*metric.Server, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil
	}

	server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("start metrics server: %w", err)
	}
	slog.Info("Metrics server started", "address", server.Address())
	return server, nil
}

// configProfiles resolves named connections from static configuration,
// falling back to the credential store for names it does not know.
type configProfiles struct {
	connections []config.ConnectionConfig
	fallback    gateway.ProfileSource
}

func (p *configProfiles) Profile(name string) (gateway.ConnectionProfile, error) {
	for _, conn := range p.connections {
		if conn.Name == name {
			return gateway.ConnectionProfile{
				Account:  conn.Account,
				Username: conn.Username,
				Password: conn.Password,
			}, nil
		}
	}
	if p.fallback != nil {
		return p.fallback.Profile(name)
	}
	return gateway.ConnectionProfile{}, errors.Wrap(errors.ErrKeyNotFound, "configProfiles", "Profile",
		fmt.Sprintf("no connection named %q", name))
}

// setupProfiles builds the profile source for named connections. The
// credential store needs JetStream; when it is unavailable the static
// config entries still work.
func setupProfiles(_ context.Context, cfg *config.Config, natsClient *natsclient.Client) gateway.ProfileSource {
	profiles := &configProfiles{connections: cfg.Cloudant.Connections}

	store, err := credentials.NewStore(natsClient)
	if err != nil {
		slog.Warn("Credential store unavailable; using config connections only", "error", err)
		return profiles
	}

	profiles.fallback = store
	return profiles
}

// setupRegistry creates the component registry and registers the gateway
// component factories
func setupRegistry() (*component.Registry, error) {
	registry := component.NewRegistry()
	if err := componentregistry.Register(registry); err != nil {
		return nil, fmt.Errorf("register components: %w", err)
	}

	factories := registry.ListFactories()
	slog.Info("Component factories registered", "count", len(factories), "factories", factories)
	return registry, nil
}

// namedComponent pairs a lifecycle component with its instance name from
// configuration
type namedComponent struct {
	name string
	component.LifecycleComponent
}

// createComponents instantiates every enabled component from configuration.
// Instances are created in deterministic name order so startup failures are
// reproducible.
func createComponents(
	cfg *config.Config,
	registry *component.Registry,
	deps component.Dependencies,
) ([]namedComponent, error) {
	names := make([]string, 0, len(cfg.Components))
	for name := range cfg.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	var components []namedComponent
	for _, name := range names {
		compCfg := cfg.Components[name]
		if !compCfg.Enabled {
			slog.Info("Component disabled in config", "name", name)
			continue
		}

		instance, err := registry.CreateComponent(name, compCfg, deps)
		if err != nil {
			return nil, fmt.Errorf("create component %s: %w", name, err)
		}

		lifecycle, ok := component.AsLifecycleComponent(instance)
		if !ok {
			return nil, fmt.Errorf("component %s does not support lifecycle management", name)
		}

		slog.Info("Created component", "name", name, "factory", compCfg.Name, "type", compCfg.Type)
		components = append(components, namedComponent{name: name, LifecycleComponent: lifecycle})
	}

	return components, nil
}

// runWithSignalHandling starts components and handles shutdown signals
func runWithSignalHandling(
	ctx context.Context,
	components []namedComponent,
	shutdownTimeout time.Duration,
) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	for _, comp := range components {
		if err := comp.Initialize(); err != nil {
			return fmt.Errorf("initialize %s: %w", comp.name, err)
		}
		if err := comp.Start(signalCtx); err != nil {
			return fmt.Errorf("start %s: %w", comp.name, err)
		}
		slog.Info("Component started", "name", comp.name, "type", comp.Meta().Type)
	}

	slog.Info("BluemixPOC started successfully")

	go monitorHealth(signalCtx, components)

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	return shutdown(components, shutdownTimeout)
}

// monitorHealth periodically samples component health and logs aggregate
// state transitions
func monitorHealth(ctx context.Context, components []namedComponent) {
	monitor := health.NewMonitor()
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	wasHealthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for _, comp := range components {
			monitor.Update(comp.name, health.FromComponentHealth(comp.name, comp.Health()))
		}

		aggregate := monitor.AggregateHealth(appName)
		if aggregate.IsHealthy() != wasHealthy {
			wasHealthy = aggregate.IsHealthy()
			if wasHealthy {
				slog.Info("System health recovered", "status", aggregate.Status)
			} else {
				slog.Warn("System health degraded",
					"status", aggregate.Status, "message", aggregate.Message)
			}
		}
	}
}

// shutdown stops all components in reverse start order
func shutdown(components []namedComponent, timeout time.Duration) error {
	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		comp := components[i]
		if err := comp.Stop(timeout); err != nil {
			slog.Error("Error stopping component", "name", comp.name, "error", err)
			errs = append(errs, err)
			continue
		}
		slog.Info("Component stopped", "name", comp.name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("graceful shutdown failed: %w", stderrors.Join(errs...))
	}

	slog.Info("BluemixPOC shutdown complete")
	return nil
}
