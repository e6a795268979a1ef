package setup

import (
	"context"
	"fmt"
	"log"

	"github.com/openkeyhub/governance/internal/database"
	"github.com/openkeyhub/governance/internal/governance"
	"github.com/openkeyhub/governance/internal/redis"
	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/openkeyhub/governance/internal/setup/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Version is set at build time and reported with traces and --version.
var Version = "dev"

// Options selects the optional subsystems of the application.
type Options struct {
	// Component names the binary in log output.
	Component string
	// AutoMigrate applies pending migrations on startup.
	AutoMigrate bool
	// SkipRedis runs without the stats cache and sweep lock.
	SkipRedis bool
}

// App bundles all core dependencies and services needed by the application.
type App struct {
	Config       *config.Config       // Application configuration
	Logger       *zap.Logger          // Main application logger
	DBLogger     *zap.Logger          // Database-specific logger
	DB           database.Client      // Database connection pool
	Engine       *governance.Engine   // Governance engine backed by the database
	Registry     *prometheus.Registry // Metrics registry served on /metrics
	RedisManager *redis.Manager       // Redis connection manager, nil when disabled
	Cache        *redis.Cache         // Read model cache, nil when Redis is disabled
	Locker       *redis.Locker        // Distributed locks, nil when Redis is disabled
	LogManager   *telemetry.Manager   // Log management system

	shutdownTracing func(context.Context) error
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, opts Options) (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(opts.Component, &cfg.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded configuration", zap.String("configDir", configDir))

	shutdownTracing := telemetry.SetupTracing(&cfg.Telemetry, Version, logger)

	mode := database.MigrationsRequire
	if opts.AutoMigrate {
		mode = database.MigrationsApply
	}

	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, dbLogger, mode)
	if err != nil {
		logManager.Close()
		return nil, err
	}

	app := &App{
		Config:          cfg,
		Logger:          logger,
		DBLogger:        dbLogger,
		DB:              db,
		Registry:        prometheus.NewRegistry(),
		LogManager:      logManager,
		shutdownTracing: shutdownTracing,
	}

	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if !opts.SkipRedis {
		if err := app.initRedis(); err != nil {
			app.Cleanup(ctx)
			return nil, err
		}
	}

	engine, err := governance.New(ctx, db.Service().Store(), db.Service().Ledger(), cfg.Governance, logger,
		governance.WithMetrics(governance.NewMetrics(app.Registry)),
		governance.WithSweepConcurrency(cfg.Sweep.Concurrency))
	if err != nil {
		app.Cleanup(ctx)
		return nil, fmt.Errorf("failed to create governance engine: %w", err)
	}
	app.Engine = engine

	return app, nil
}

// initRedis creates the cache and lock clients on their own databases.
func (s *App) initRedis() error {
	s.RedisManager = redis.NewManager(&s.Config.Redis, s.Logger)

	cacheClient, err := s.RedisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return err
	}

	lockClient, err := s.RedisManager.GetClient(redis.LockDBIndex)
	if err != nil {
		return err
	}

	s.Cache = redis.NewCache(cacheClient, s.Logger)
	s.Locker = redis.NewLocker(lockClient, s.Logger)
	return nil
}

// Health reports whether the database and, when enabled, Redis are reachable.
func (s *App) Health(ctx context.Context) error {
	if err := s.DB.DB().PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if s.RedisManager != nil {
		return s.RedisManager.Ping(ctx)
	}
	return nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(ctx context.Context) {
	if err := s.shutdownTracing(ctx); err != nil {
		s.Logger.Error("Failed to flush traces", zap.Error(err))
	}

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections last as other components might need it during cleanup
	if s.RedisManager != nil {
		s.RedisManager.Close()
	}

	s.LogManager.Close()
}
