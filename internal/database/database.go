package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/openkeyhub/governance/internal/database/migrations"
	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bunjson"
	"github.com/uptrace/bun/extra/bunotel"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// ErrPendingMigrations is returned when the schema is behind and MigrationsRequire was requested.
var ErrPendingMigrations = errors.New("database migrations are pending, run `db migrate` first")

// MigrationMode selects what NewConnection does with unapplied migrations.
type MigrationMode int

const (
	// MigrationsIgnore leaves the schema alone. Used by the migration CLI itself.
	MigrationsIgnore MigrationMode = iota
	// MigrationsRequire fails with ErrPendingMigrations when any migration is unapplied.
	MigrationsRequire
	// MigrationsApply runs pending migrations before returning.
	MigrationsApply
)

// sonicJSON routes bun's JSON columns through sonic.
type sonicJSON struct{}

func (sonicJSON) Marshal(v any) ([]byte, error)      { return sonic.Marshal(v) }
func (sonicJSON) Unmarshal(data []byte, v any) error { return sonic.Unmarshal(data, v) }

func (sonicJSON) NewEncoder(w io.Writer) bunjson.Encoder {
	return sonic.ConfigDefault.NewEncoder(w)
}

func (sonicJSON) NewDecoder(r io.Reader) bunjson.Decoder {
	return sonic.ConfigDefault.NewDecoder(r)
}

// Client is an open Postgres connection with the governance services on top.
type Client interface {
	// Service returns the store and ledger backed by this connection.
	Service() *Service
	// DB returns the underlying bun.DB instance.
	DB() *bun.DB
	// Close gracefully shuts down the database connection.
	Close() error
}

type client struct {
	db      *bun.DB
	logger  *zap.Logger
	service *Service
}

// NewConnection opens the pool, verifies it with a ping and applies the migration mode.
func NewConnection(
	ctx context.Context, cfg *config.PostgreSQL, logger *zap.Logger, mode MigrationMode,
) (Client, error) {
	logger = logger.Named("database")
	db := openDB(cfg, logger)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := checkSchema(ctx, db, mode, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Database connection established",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.DBName))

	return &client{
		db:      db,
		logger:  logger,
		service: NewService(NewRepository(db, logger), logger),
	}, nil
}

// openDB builds the bun handle with pool limits and query hooks.
func openDB(cfg *config.PostgreSQL, logger *zap.Logger) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithAddr(cfg.Address()),
		pgdriver.WithUser(cfg.User),
		pgdriver.WithPassword(cfg.Password),
		pgdriver.WithDatabase(cfg.DBName),
		pgdriver.WithInsecure(cfg.Insecure),
		pgdriver.WithApplicationName("governance"),
	))

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)
	sqldb.SetConnMaxIdleTime(time.Duration(cfg.MaxIdleTime) * time.Minute)

	bunjson.SetProvider(sonicJSON{})

	db := bun.NewDB(sqldb, pgdialect.New())
	db.AddQueryHook(NewHook(logger, time.Duration(cfg.SlowQueryMS)*time.Millisecond))
	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName(cfg.DBName)))
	return db
}

func checkSchema(ctx context.Context, db *bun.DB, mode MigrationMode, logger *zap.Logger) error {
	if mode == MigrationsIgnore {
		return nil
	}

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	if mode == MigrationsApply {
		group, err := migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		if !group.IsZero() {
			logger.Info("Applied migrations", zap.String("group", group.String()))
		}
		return nil
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}
	if unapplied := ms.Unapplied(); len(unapplied) > 0 {
		return fmt.Errorf("%w: %s", ErrPendingMigrations, unapplied.String())
	}
	return nil
}

// Service returns the store and ledger backed by this connection.
func (c *client) Service() *Service {
	return c.service
}

// DB returns the underlying bun.DB instance.
func (c *client) DB() *bun.DB {
	return c.db
}

// Close gracefully shuts down the database connection.
func (c *client) Close() error {
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close database connection", zap.Error(err))
		return err
	}
	c.logger.Info("Database connection closed")
	return nil
}
