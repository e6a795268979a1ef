package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			ALTER TABLE vote_records
			ADD CONSTRAINT fk_vote_records_proposal
			FOREIGN KEY (proposal_id) REFERENCES proposals (id) ON DELETE CASCADE;

			ALTER TABLE discussion_posts
			ADD CONSTRAINT fk_discussion_posts_proposal
			FOREIGN KEY (proposal_id) REFERENCES proposals (id) ON DELETE CASCADE;

			ALTER TABLE proposals
			ADD CONSTRAINT chk_proposals_window CHECK (voting_ends_at > voting_starts_at);

			ALTER TABLE proposals
			ADD CONSTRAINT chk_proposals_approval CHECK (approval_threshold > 0 AND approval_threshold <= 100);

			ALTER TABLE delegation_edges
			ADD CONSTRAINT chk_delegation_edges_self CHECK (delegator <> delegate);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to add constraints: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			ALTER TABLE delegation_edges DROP CONSTRAINT IF EXISTS chk_delegation_edges_self;
			ALTER TABLE proposals DROP CONSTRAINT IF EXISTS chk_proposals_approval;
			ALTER TABLE proposals DROP CONSTRAINT IF EXISTS chk_proposals_window;
			ALTER TABLE discussion_posts DROP CONSTRAINT IF EXISTS fk_discussion_posts_proposal;
			ALTER TABLE vote_records DROP CONSTRAINT IF EXISTS fk_vote_records_proposal;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop constraints: %w", err)
		}

		return nil
	})
}
