package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/openkeyhub/governance/internal/database"
	"github.com/openkeyhub/governance/internal/database/migrations"
	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	db, migrator, logger, err := setupMigrator()
	if err != nil {
		return fmt.Errorf("failed to setup migrator: %w", err)
	}
	defer db.Close()

	commands := migrationCommands(migrator, logger)
	commands = append(commands, accountsCommand(db.Service().Ledger(), logger))

	app := &cli.Command{
		Name:     "db",
		Usage:    "Governance schema and token ledger administration",
		Commands: commands,
	}

	return app.Run(context.Background(), os.Args)
}

// setupMigrator connects without checking the schema, since fixing the schema is this tool's job.
func setupMigrator() (database.Client, *migrate.Migrator, *zap.Logger, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewConnection(context.Background(), &cfg.PostgreSQL, logger, database.MigrationsIgnore)
	if err != nil {
		return nil, nil, logger, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, migrate.NewMigrator(db.DB(), migrations.Migrations), logger, nil
}
