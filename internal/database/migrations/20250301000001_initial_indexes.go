package migrations

import (
	"context"
	"fmt"

	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Proposal listing and sweeping indexes
			CREATE INDEX IF NOT EXISTS idx_proposals_created
			ON proposals (created_at DESC, id DESC);

			CREATE INDEX IF NOT EXISTS idx_proposals_proposer_status
			ON proposals (proposer, status);

			CREATE INDEX IF NOT EXISTS idx_proposals_kind_created
			ON proposals (kind, created_at DESC);

			CREATE INDEX IF NOT EXISTS idx_proposals_next_transition
			ON proposals (next_transition_at ASC)
			WHERE next_transition_at IS NOT NULL;

			CREATE INDEX IF NOT EXISTS idx_proposals_unsettled
			ON proposals (updated_at ASC)
			WHERE deposit_status = ?;

			-- Vote history indexes
			CREATE INDEX IF NOT EXISTS idx_vote_records_voter
			ON vote_records (voter, timestamp DESC);

			-- Delegation lookup indexes
			CREATE INDEX IF NOT EXISTS idx_delegation_edges_delegate
			ON delegation_edges (delegate, scope, target);

			-- Discussion indexes
			CREATE INDEX IF NOT EXISTS idx_discussion_posts_thread
			ON discussion_posts (proposal_id, timestamp ASC, id ASC);

			CREATE INDEX IF NOT EXISTS idx_discussion_posts_author
			ON discussion_posts (author, timestamp DESC);
		`, enum.DepositStatusHeld).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_proposals_created;
			DROP INDEX IF EXISTS idx_proposals_proposer_status;
			DROP INDEX IF EXISTS idx_proposals_kind_created;
			DROP INDEX IF EXISTS idx_proposals_next_transition;
			DROP INDEX IF EXISTS idx_proposals_unsettled;
			DROP INDEX IF EXISTS idx_vote_records_voter;
			DROP INDEX IF EXISTS idx_delegation_edges_delegate;
			DROP INDEX IF EXISTS idx_discussion_posts_thread;
			DROP INDEX IF EXISTS idx_discussion_posts_author;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}
