package migrations

import (
	"context"
	"fmt"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		// Title search folds accents on both sides
		if _, err := db.NewRaw("CREATE EXTENSION IF NOT EXISTS unaccent").Exec(ctx); err != nil {
			return fmt.Errorf("failed to create unaccent extension: %w", err)
		}

		models := []any{
			(*types.Proposal)(nil),
			(*types.VoteRecord)(nil),
			(*types.DelegationEdge)(nil),
			(*types.DiscussionPost)(nil),
			(*types.ConfigRecord)(nil),
			(*types.Account)(nil),
			(*types.Deposit)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		// Down migration - drop all tables
		models := []any{
			(*types.Deposit)(nil),
			(*types.Account)(nil),
			(*types.ConfigRecord)(nil),
			(*types.DiscussionPost)(nil),
			(*types.DelegationEdge)(nil),
			(*types.VoteRecord)(nil),
			(*types.Proposal)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Cascade().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", model, err)
			}
		}

		return nil
	})
}
