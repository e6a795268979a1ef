package models

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openkeyhub/governance/internal/database/dbretry"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// HistoryModel answers participation queries across proposals, votes and posts.
type HistoryModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewHistory creates a new history model.
func NewHistory(db *bun.DB, logger *zap.Logger) *HistoryModel {
	return &HistoryModel{
		db:     db,
		logger: logger.Named("db_history"),
	}
}

// CountDistinctVoters returns the number of principals that have voted at least once.
func (r *HistoryModel) CountDistinctVoters(ctx context.Context) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		var count int
		err := r.db.NewSelect().
			Model((*types.VoteRecord)(nil)).
			ColumnExpr("COUNT(DISTINCT voter)").
			Scan(ctx, &count)
		if err != nil {
			return 0, fmt.Errorf("failed to count voters: %w", err)
		}
		return count, nil
	})
}

// ListTurnouts returns the cast weight and staked snapshot of every finalized proposal.
func (r *HistoryModel) ListTurnouts(ctx context.Context) ([]types.Turnout, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.Turnout, error) {
		turnouts := make([]types.Turnout, 0)
		err := r.db.NewSelect().
			Model((*types.Proposal)(nil)).
			ColumnExpr("total_yes + total_no + total_abstain AS \"cast\"").
			ColumnExpr("total_staked_snapshot AS staked").
			Where("status IN (?)", bun.In(finalizedStatuses)).
			Scan(ctx, &turnouts)
		if err != nil {
			return nil, fmt.Errorf("failed to list turnouts: %w", err)
		}
		return turnouts, nil
	})
}

// VoterHistory returns a principal's votes with the status of each proposal
// and the time of their latest proposal, vote or post.
func (r *HistoryModel) VoterHistory(ctx context.Context, principal string) (*types.VoterHistory, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.VoterHistory, error) {
		history := &types.VoterHistory{Outcomes: make([]types.VoterOutcome, 0)}

		err := r.db.NewSelect().
			TableExpr("vote_records AS v").
			Join("JOIN proposals AS p ON p.id = v.proposal_id").
			ColumnExpr("v.choice AS choice, p.status AS status").
			Where("v.voter = ?", principal).
			Order("v.timestamp ASC").
			Scan(ctx, &history.Outcomes)
		if err != nil {
			return nil, fmt.Errorf("failed to get voter outcomes: %w", err)
		}

		var last sql.NullTime
		err = r.db.NewRaw(`
			SELECT GREATEST(
				(SELECT MAX("timestamp") FROM vote_records WHERE voter = ?0),
				(SELECT MAX(created_at) FROM proposals WHERE proposer = ?0),
				(SELECT MAX("timestamp") FROM discussion_posts WHERE author = ?0)
			)
		`, principal).Scan(ctx, &last)
		if err != nil {
			return nil, fmt.Errorf("failed to get last activity: %w", err)
		}

		if last.Valid {
			t := last.Time.UTC()
			history.LastActivityAt = &t
		}

		return history, nil
	})
}
