package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openkeyhub/governance/internal/database/dbretry"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ConfigModel handles database operations for versioned governance configs.
type ConfigModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewConfig creates a new config model.
func NewConfig(db *bun.DB, logger *zap.Logger) *ConfigModel {
	return &ConfigModel{
		db:     db,
		logger: logger.Named("db_config"),
	}
}

// LatestConfig returns the record with the highest version.
func (r *ConfigModel) LatestConfig(ctx context.Context) (*types.ConfigRecord, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.ConfigRecord, error) {
		record := new(types.ConfigRecord)
		err := r.db.NewSelect().
			Model(record).
			Order("version DESC").
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrConfigNotFound
			}
			return nil, fmt.Errorf("failed to get latest config: %w", err)
		}
		return record, nil
	})
}

// SaveConfig stores the record under the next version number and sets its Version.
func (r *ConfigModel) SaveConfig(ctx context.Context, record *types.ConfigRecord) error {
	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		// Lock the table so concurrent saves cannot pick the same version
		if _, err := tx.NewRaw("LOCK TABLE config_records IN EXCLUSIVE MODE").Exec(ctx); err != nil {
			return fmt.Errorf("failed to lock config records: %w", err)
		}

		var current int64
		err := tx.NewSelect().
			Model((*types.ConfigRecord)(nil)).
			ColumnExpr("COALESCE(MAX(version), 0)").
			Scan(ctx, &current)
		if err != nil {
			return fmt.Errorf("failed to get config version: %w", err)
		}

		record.Version = current + 1
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert config: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("Saved governance config",
		zap.Int64("version", record.Version),
		zap.String("proposalID", record.ProposalID))

	return nil
}
