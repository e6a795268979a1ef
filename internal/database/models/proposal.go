package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/openkeyhub/governance/internal/database/dbretry"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/openkeyhub/governance/pkg/utils"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

var (
	// openStatuses count against the per-proposer limit.
	openStatuses = []enum.ProposalStatus{
		enum.ProposalStatusDraft,
		enum.ProposalStatusActive,
		enum.ProposalStatusPassed,
	}
	// terminalStatuses end the lifecycle of a proposal.
	terminalStatuses = []enum.ProposalStatus{
		enum.ProposalStatusFailed,
		enum.ProposalStatusExecuted,
		enum.ProposalStatusCancelled,
		enum.ProposalStatusExpired,
	}
	// finalizedStatuses have a decided vote.
	finalizedStatuses = []enum.ProposalStatus{
		enum.ProposalStatusPassed,
		enum.ProposalStatusFailed,
		enum.ProposalStatusExecuted,
		enum.ProposalStatusExpired,
	}
)

// ProposalModel handles database operations for proposals and their votes.
type ProposalModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewProposal creates a new proposal model.
func NewProposal(db *bun.DB, logger *zap.Logger) *ProposalModel {
	return &ProposalModel{
		db:     db,
		logger: logger.Named("db_proposal"),
	}
}

// CreateProposal inserts a proposal. Creations by the same proposer are serialized with an
// advisory lock so the guard sees a stable open proposal count.
func (r *ProposalModel) CreateProposal(
	ctx context.Context, p *types.Proposal, guard func(open int) error,
) error {
	return dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", "proposer:"+p.Proposer).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to lock proposer: %w", err)
		}

		if guard != nil {
			open, err := countOpen(ctx, tx, p.Proposer)
			if err != nil {
				return err
			}
			if err := guard(open); err != nil {
				return err
			}
		}

		if _, err := tx.NewInsert().Model(p).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert proposal: %w", err)
		}

		return syncVotes(ctx, tx, p.ID, nil, p.Votes)
	})
}

// CountOpenProposals returns the number of Draft, Active and Passed proposals of a proposer.
func (r *ProposalModel) CountOpenProposals(ctx context.Context, proposer string) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		return countOpen(ctx, r.db, proposer)
	})
}

// GetProposal retrieves a proposal and its votes.
func (r *ProposalModel) GetProposal(ctx context.Context, id string) (*types.Proposal, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Proposal, error) {
		return getProposal(ctx, r.db, id, false)
	})
}

// ListProposals returns a window of matching proposals, newest first, and the total match count.
func (r *ProposalModel) ListProposals(
	ctx context.Context, filter types.ProposalFilter, offset, limit int,
) ([]*types.Proposal, int, error) {
	type page struct {
		proposals []*types.Proposal
		total     int
	}

	result, err := dbretry.Operation(ctx, func(ctx context.Context) (page, error) {
		var proposals []*types.Proposal

		query := r.db.NewSelect().Model(&proposals)
		applyFilter(query, filter)

		total, err := query.
			Order("proposal.created_at DESC", "proposal.id DESC").
			Offset(offset).
			Limit(limit).
			ScanAndCount(ctx)
		if err != nil {
			return page{}, fmt.Errorf("failed to list proposals: %w", err)
		}

		if err := loadVotes(ctx, r.db, proposals); err != nil {
			return page{}, err
		}

		return page{proposals: proposals, total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	return result.proposals, result.total, nil
}

// UpdateProposal applies fn to the proposal inside a transaction holding its row lock.
// Votes added, replaced or removed by fn are written back alongside the proposal.
// fn runs again if the transaction is retried.
func (r *ProposalModel) UpdateProposal(
	ctx context.Context, id string, fn func(p *types.Proposal) error,
) (*types.Proposal, error) {
	var updated *types.Proposal

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		p, err := getProposal(ctx, tx, id, true)
		if err != nil {
			return err
		}

		before := p.Clone()
		if err := fn(p); err != nil {
			return err
		}

		if _, err := tx.NewUpdate().Model(p).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("failed to update proposal: %w", err)
		}

		if err := syncVotes(ctx, tx, id, before.Votes, p.Votes); err != nil {
			return err
		}

		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Updated proposal",
		zap.String("proposalID", id),
		zap.String("status", updated.Status.String()))

	return updated, nil
}

// ListDueProposals returns IDs of proposals whose next transition is at or before now.
func (r *ProposalModel) ListDueProposals(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]string, error) {
		var ids []string
		err := r.db.NewSelect().
			Model((*types.Proposal)(nil)).
			Column("id").
			Where("next_transition_at <= ?", now).
			Order("next_transition_at ASC").
			Limit(limit).
			Scan(ctx, &ids)
		if err != nil {
			return nil, fmt.Errorf("failed to list due proposals: %w", err)
		}
		return ids, nil
	})
}

// ListUnsettledDeposits returns IDs of terminal proposals still holding a deposit.
func (r *ProposalModel) ListUnsettledDeposits(ctx context.Context, limit int) ([]string, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]string, error) {
		var ids []string
		err := r.db.NewSelect().
			Model((*types.Proposal)(nil)).
			Column("id").
			Where("deposit_status = ?", enum.DepositStatusHeld).
			Where("status IN (?)", bun.In(terminalStatuses)).
			Order("id ASC").
			Limit(limit).
			Scan(ctx, &ids)
		if err != nil {
			return nil, fmt.Errorf("failed to list unsettled deposits: %w", err)
		}
		return ids, nil
	})
}

// countOpen counts the open proposals of a proposer.
func countOpen(ctx context.Context, db bun.IDB, proposer string) (int, error) {
	count, err := db.NewSelect().
		Model((*types.Proposal)(nil)).
		Where("proposer = ?", proposer).
		Where("status IN (?)", bun.In(openStatuses)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count open proposals: %w", err)
	}
	return count, nil
}

// getProposal loads a proposal with its votes, optionally locking the row.
func getProposal(ctx context.Context, db bun.IDB, id string, lock bool) (*types.Proposal, error) {
	p := new(types.Proposal)

	query := db.NewSelect().
		Model(p).
		Where("proposal.id = ?", id)
	if lock {
		query.For("UPDATE")
	}

	if err := query.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	if err := loadVotes(ctx, db, []*types.Proposal{p}); err != nil {
		return nil, err
	}

	return p, nil
}

// loadVotes fills the votes of the given proposals in cast order.
func loadVotes(ctx context.Context, db bun.IDB, proposals []*types.Proposal) error {
	if len(proposals) == 0 {
		return nil
	}

	byID := make(map[string]*types.Proposal, len(proposals))
	for _, p := range proposals {
		p.Votes = make([]*types.VoteRecord, 0)
		byID[p.ID] = p
	}

	var votes []*types.VoteRecord
	err := db.NewSelect().
		Model(&votes).
		Where("proposal_id IN (?)", bun.In(slices.Collect(maps.Keys(byID)))).
		Order("timestamp ASC", "voter ASC").
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to get votes: %w", err)
	}

	for _, v := range votes {
		if p, ok := byID[v.ProposalID]; ok {
			p.Votes = append(p.Votes, v)
		}
	}

	return nil
}

// syncVotes writes the difference between two vote sets of a proposal.
func syncVotes(ctx context.Context, tx bun.Tx, proposalID string, before, after []*types.VoteRecord) error {
	prior := make(map[string]*types.VoteRecord, len(before))
	for _, v := range before {
		prior[v.Voter] = v
	}

	var changed []*types.VoteRecord
	for _, v := range after {
		old, ok := prior[v.Voter]
		delete(prior, v.Voter)

		if ok && sameVote(old, v) {
			continue
		}
		v.ProposalID = proposalID
		changed = append(changed, v)
	}

	// Votes left in prior were removed by the update
	if len(prior) > 0 {
		_, err := tx.NewDelete().
			Model((*types.VoteRecord)(nil)).
			Where("proposal_id = ?", proposalID).
			Where("voter IN (?)", bun.In(slices.Collect(maps.Keys(prior)))).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete votes: %w", err)
		}
	}

	if len(changed) > 0 {
		_, err := tx.NewInsert().
			Model(&changed).
			On("CONFLICT (proposal_id, voter) DO UPDATE").
			Set("choice = EXCLUDED.choice").
			Set("voting_power = EXCLUDED.voting_power").
			Set("delegated_from = EXCLUDED.delegated_from").
			Set("reason = EXCLUDED.reason").
			Set("? = EXCLUDED.?", bun.Ident("timestamp"), bun.Ident("timestamp")).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert votes: %w", err)
		}
	}

	return nil
}

// sameVote reports whether two records of the same voter are identical.
func sameVote(a, b *types.VoteRecord) bool {
	return a.Choice == b.Choice &&
		a.VotingPower == b.VotingPower &&
		a.Reason == b.Reason &&
		a.Timestamp.Equal(b.Timestamp) &&
		slices.Equal(a.DelegatedFrom, b.DelegatedFrom)
}

// applyFilter narrows a proposal query.
func applyFilter(query *bun.SelectQuery, filter types.ProposalFilter) {
	if filter.Status != nil {
		query.Where("proposal.status = ?", *filter.Status)
	}
	if filter.Proposer != "" {
		query.Where("proposal.proposer = ?", filter.Proposer)
	}
	if filter.Kind != nil {
		query.Where("proposal.kind = ?", *filter.Kind)
	}
	if search := utils.CleanLine(filter.Search); search != "" {
		query.Where("unaccent(proposal.title) ILIKE unaccent(?)", "%"+EscapeLike(search)+"%")
	}
}

// EscapeLike escapes the LIKE wildcards in s.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
