package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartpantry/internal/api"
	"smartpantry/internal/config"
	"smartpantry/internal/database"
	"smartpantry/internal/lifecycle"
	"smartpantry/internal/logger"
	"smartpantry/internal/monitoring"
	"smartpantry/internal/notify"
	"smartpantry/internal/openfoodfacts"
	"smartpantry/internal/pantry"
	"smartpantry/internal/recipes"

	"github.com/gin-gonic/gin"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	// Initialize context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.MetricsConfig.Port = *metricsPort
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	gin.SetMode(gin.ReleaseMode)

	if err := run(ctx, cancel, cfg, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, log *slog.Logger) error {
	// Initialize database
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	store := database.NewStore(db)
	defer store.Close()

	// Initialize metrics collector
	monitor := monitoring.NewMonitor()
	metrics := monitoring.NewMetrics(monitor)

	policy, err := lifecycle.ParseDepletionPolicy(cfg.Lifecycle.DepletionPolicy)
	if err != nil {
		return err
	}
	scheduler := notify.NewScheduler(store, nil, log)
	machine := lifecycle.NewMachine(scheduler, lifecycle.Config{
		Policy:         policy,
		RestockHorizon: cfg.RestockHorizon(),
		Logger:         log,
	})

	svcCfg := pantry.Config{
		Lookup:         openfoodfacts.NewClient(cfg.OpenFoodFacts.BaseURL, cfg.OpenFoodFacts.Timeout),
		Metrics:        metrics,
		Logger:         log,
		PriorityWindow: cfg.PriorityWindow(),
	}
	if gen := initializeRecipes(cfg, log); gen != nil {
		svcCfg.Recipes = gen
	}
	svc := pantry.NewService(store, machine, svcCfg)

	// Notifications
	hub := notify.NewHub(log)
	defer hub.Close()
	checkIn, err := cfg.CheckInOffset()
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(store, hub, notify.DispatcherConfig{
		PollInterval: cfg.Notify.PollInterval,
		CheckInAt:    checkIn,
		Metrics:      metrics,
		Logger:       log,
	})
	go dispatcher.Run(ctx)

	// Initialize API server
	pantryAPI := api.NewPantryAPI(svc, api.Options{
		Hub:       hub,
		Monitor:   monitor,
		JWTSecret: cfg.Auth.JWTSecret,
		Logger:    log,
	})

	// Start metrics server
	var metricsServer *http.Server
	if cfg.MetricsConfig.Enabled {
		metricsServer = startMetricsServer(cfg, metrics, log)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: pantryAPI.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down servers")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("API server shutdown error", "err", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Error("metrics server shutdown error", "err", err)
			}
		}

		cancel() // Cancel main context
	}()

	log.Info("starting API server", "port", cfg.Server.Port, "db_driver", cfg.Database.Driver, "depletion_policy", policy)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("API server error: %w", err)
	}
	return nil
}

// initializeRecipes returns nil when no LLM is configured; recipe endpoints then report 503
func initializeRecipes(cfg *config.Config, log *slog.Logger) *recipes.Generator {
	if cfg.LLM.APIKey == "" {
		log.Warn("no LLM API key configured, recipe generation disabled")
		return nil
	}

	registry := recipes.NewModelRegistry()
	completer, err := registry.GetCompleter(recipes.ModelConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Deployment:  cfg.LLM.Deployment,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		log.Error("failed to initialize LLM, recipe generation disabled", "provider", cfg.LLM.Provider, "err", err)
		return nil
	}
	return recipes.NewGenerator(completer, log)
}

func startMetricsServer(cfg *config.Config, metrics *monitoring.Metrics, log *slog.Logger) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.GET(cfg.MetricsConfig.Path, gin.WrapH(metrics.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsConfig.Port),
		Handler: metricsRouter,
	}

	go func() {
		log.Info("starting metrics server", "port", cfg.MetricsConfig.Port, "path", cfg.MetricsConfig.Path)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("metrics server error", "err", err)
		}
	}()
	return metricsServer
}
