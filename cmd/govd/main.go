package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/openkeyhub/governance/internal/rest"
	"github.com/openkeyhub/governance/internal/rest/convert"
	"github.com/openkeyhub/governance/internal/rest/middleware/auth"
	"github.com/openkeyhub/governance/internal/setup"
	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/openkeyhub/governance/internal/worker/sweep"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// Server timeouts.
const (
	ReadTimeout     = 5 * time.Second
	WriteTimeout    = 30 * time.Second
	ShutdownTimeout = 30 * time.Second
)

var ErrPrincipalRequired = errors.New("PRINCIPAL argument required")

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:    "govd",
		Usage:   "Governance API server and lifecycle sweeper",
		Version: setup.Version,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Serve the REST API, running the sweeper when enabled",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "migrate",
						Usage: "Apply pending database migrations on startup",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return serve(ctx, c.Bool("migrate"))
				},
			},
			{
				Name:  "sweep",
				Usage: "Advance due proposals and settle deposits",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "loop",
						Usage: "Keep sweeping at the configured interval",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runSweep(ctx, c.Bool("loop"))
				},
			},
			{
				Name:  "config",
				Usage: "Print the active governance configuration",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return printConfig(ctx)
				},
			},
			{
				Name:      "token",
				Usage:     "Issue a bearer token for a principal",
				ArgsUsage: "PRINCIPAL",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "ttl",
						Value: 24 * time.Hour,
						Usage: "Token lifetime",
					},
				},
				Action: func(_ context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return ErrPrincipalRequired
					}

					cfg, _, err := config.LoadConfig()
					if err != nil {
						return err
					}

					token, err := auth.IssueToken(&cfg.API, c.Args().First(), c.Duration("ttl"))
					if err != nil {
						return err
					}

					fmt.Println(token)
					return nil
				},
			},
		},
	}

	return app.Run(ctx, os.Args)
}

// serve runs the API until ctx is cancelled.
func serve(ctx context.Context, migrate bool) error {
	app, err := setup.InitializeApp(ctx, setup.Options{Component: "api", AutoMigrate: migrate})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	handler, err := rest.NewServer(rest.Options{
		Engine:   app.Engine,
		Cache:    app.Cache,
		Registry: app.Registry,
		Health:   app.Health,
		Config:   &app.Config.API,
	}, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to create REST server: %w", err)
	}
	defer handler.Close()

	if app.Config.Sweep.Enabled {
		worker := sweep.New(app.Engine, app.Locker, app.Cache, &app.Config.Sweep, app.Logger)
		go worker.Start(ctx)
	}

	addr := app.Config.API.Address()
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("REST server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
	case <-ctx.Done():
	}

	app.Logger.Info("Shutting down REST server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	app.Logger.Info("Server gracefully stopped")
	return nil
}

// runSweep sweeps once, or until ctx is cancelled when loop is set.
func runSweep(ctx context.Context, loop bool) error {
	app, err := setup.InitializeApp(ctx, setup.Options{Component: "sweep"})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	worker := sweep.New(app.Engine, app.Locker, app.Cache, &app.Config.Sweep, app.Logger)
	if loop {
		worker.Start(ctx)
		return nil
	}

	result, err := worker.RunOnce(ctx)
	if err != nil {
		return err
	}

	app.Logger.Info("Sweep finished",
		zap.Int("advanced", result.Advanced),
		zap.Int("settled", result.Settled),
		zap.Bool("skipped", result.Skipped),
		zap.Bool("configChanged", result.ConfigChanged))
	return nil
}

// printConfig writes the active governance config as JSON.
func printConfig(ctx context.Context) error {
	app, err := setup.InitializeApp(ctx, setup.Options{Component: "cli", SkipRedis: true})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	data, err := sonic.MarshalIndent(convert.GovernanceConfig(app.Engine.Config()), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	fmt.Println(string(data))
	return nil
}
