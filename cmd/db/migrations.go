package main

import (
	"context"
	"fmt"

	"github.com/openkeyhub/governance/internal/database"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// migrationCommands manages the schema. Migrations are registered in code, so there is
// no command to scaffold new ones.
func migrationCommands(migrator *migrate.Migrator, logger *zap.Logger) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "init",
			Usage: "Create the migration bookkeeping tables",
			Action: func(ctx context.Context, _ *cli.Command) error {
				return migrator.Init(ctx)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply pending schema migrations",
			Action: func(ctx context.Context, _ *cli.Command) error {
				return locked(ctx, migrator, func() error {
					group, err := migrator.Migrate(ctx)
					if err != nil {
						return err
					}
					if group.IsZero() {
						logger.Info("Schema is up to date")
						return nil
					}

					logger.Info("Applied migrations", zap.String("group", group.String()))
					return nil
				})
			},
		},
		{
			Name:  "rollback",
			Usage: "Revert the last applied migration group",
			Action: func(ctx context.Context, _ *cli.Command) error {
				return locked(ctx, migrator, func() error {
					group, err := migrator.Rollback(ctx)
					if err != nil {
						return err
					}
					if group.IsZero() {
						logger.Info("Nothing to roll back")
						return nil
					}

					logger.Info("Rolled back migrations", zap.String("group", group.String()))
					return nil
				})
			},
		},
		{
			Name:  "status",
			Usage: "Report applied and pending migrations",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "check",
					Usage: "Exit with an error when migrations are pending, for deploy gates",
				},
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				ms, err := migrator.MigrationsWithStatus(ctx)
				if err != nil {
					return err
				}

				unapplied := ms.Unapplied()
				logger.Info("Migration status",
					zap.Int("applied", len(ms.Applied())),
					zap.Int("pending", len(unapplied)),
					zap.String("lastGroup", ms.LastGroup().String()))

				if c.Bool("check") && len(unapplied) > 0 {
					return fmt.Errorf("%w: %s", database.ErrPendingMigrations, unapplied.String())
				}
				return nil
			},
		},
	}
}

// locked runs fn while holding the migration lock.
func locked(ctx context.Context, migrator *migrate.Migrator, fn func() error) error {
	if err := migrator.Lock(ctx); err != nil {
		return err
	}
	defer migrator.Unlock(ctx) //nolint:errcheck

	return fn()
}
