package governance

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const maxReasonLength = 1000

// delegatedPower is the weight a delegator hands to a voter for one proposal.
type delegatedPower struct {
	principal string
	power     uint64
}

// powerSnapshot is the voting power available to a voter on one proposal,
// resolved before the proposal is locked.
type powerSnapshot struct {
	own        uint64
	delegators []delegatedPower
}

// CastVote records a vote on an Active proposal.
//
// The vote weight is the voter's own balance and stake plus the power of every principal
// whose best matching delegation points at the voter and who has not already voted or
// been carried by another vote. Errors are checked in the order: not found, voting closed,
// already voted, insufficient voting power.
func (e *Engine) CastVote(
	ctx context.Context, proposalID, voter string, choice enum.VoteChoice, reason string,
) (vote *types.VoteRecord, err error) {
	ctx, span := e.startSpan(ctx, "CastVote",
		attribute.String("governance.proposal_id", proposalID),
		attribute.String("governance.voter", voter))
	defer func() { endSpan(span, err) }()

	if voter == "" {
		return nil, fmt.Errorf("%w: voter is required", types.ErrInvalidInput)
	}
	if !choice.IsAVoteChoice() {
		return nil, fmt.Errorf("%w: unknown vote choice", types.ErrInvalidInput)
	}
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return nil, fmt.Errorf("%w: reason exceeds %d characters", types.ErrInvalidInput, maxReasonLength)
	}

	cfg := e.Config().Config
	now := e.clock.Now()

	// Reject early on a snapshot so power lookups are skipped for closed proposals
	current, err := e.store.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	Evaluate(current, now)
	if err := checkBallot(current, voter, &cfg, now); err != nil {
		return nil, err
	}

	snapshot, err := e.resolvePower(ctx, current, voter, &cfg)
	if err != nil {
		return nil, err
	}

	var before enum.ProposalStatus
	var revoted bool

	p, err := e.store.UpdateProposal(ctx, proposalID, func(p *types.Proposal) error {
		before = p.Status
		Evaluate(p, now)

		if err := checkBallot(p, voter, &cfg, now); err != nil {
			return err
		}

		// A re-vote replaces the prior record and its delegated weight
		if prior := p.VoteOf(voter); prior != nil {
			p.RemoveFromTally(prior.Choice, prior.VotingPower)
			p.Votes = slices.DeleteFunc(p.Votes, func(v *types.VoteRecord) bool { return v.Voter == voter })
			revoted = true
		}

		power := snapshot.own
		var from []string
		for _, d := range snapshot.delegators {
			if p.VoteOf(d.principal) != nil || p.CarriedBy(d.principal) != nil {
				continue
			}
			power = types.SaturatingAdd(power, d.power)
			from = append(from, d.principal)
		}

		if power < cfg.MinVotingPower {
			return fmt.Errorf("%w: %d below minimum %d", types.ErrInsufficientVotingPower, power, cfg.MinVotingPower)
		}

		p.Votes = append(p.Votes, &types.VoteRecord{
			ProposalID:    p.ID,
			Voter:         voter,
			Choice:        choice,
			VotingPower:   power,
			DelegatedFrom: from,
			Reason:        reason,
			Timestamp:     now,
		})
		p.AddToTally(choice, power)
		p.UpdatedAt = now

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cast vote: %w", err)
	}

	if p.Status != before {
		e.onTransition(ctx, before, p)
	}

	vote = p.VoteOf(voter)
	e.metrics.voteCast(choice, vote.VotingPower)
	e.logger.Info("Recorded vote",
		zap.String("proposalID", proposalID),
		zap.String("voter", voter),
		zap.String("choice", choice.String()),
		zap.Uint64("votingPower", vote.VotingPower),
		zap.Int("delegators", len(vote.DelegatedFrom)),
		zap.Bool("revote", revoted))

	return vote, nil
}

// checkBallot verifies the window is open and the voter may still vote.
func checkBallot(p *types.Proposal, voter string, cfg *types.GovernanceConfig, now time.Time) error {
	if p.Status != enum.ProposalStatusActive || now.Before(p.VotingStartsAt) || !now.Before(p.VotingEndsAt) {
		return fmt.Errorf("%w: proposal is %s", types.ErrVotingClosed, p.Status)
	}

	if carrier := p.CarriedBy(voter); carrier != nil {
		return fmt.Errorf("%w: voting power already cast by delegate %s", types.ErrAlreadyVoted, carrier.Voter)
	}
	if !cfg.AllowRevote && p.VoteOf(voter) != nil {
		return types.ErrAlreadyVoted
	}
	return nil
}

// resolvePower looks up the voter's own power and the power delegated to them for the proposal.
func (e *Engine) resolvePower(
	ctx context.Context, p *types.Proposal, voter string, cfg *types.GovernanceConfig,
) (*powerSnapshot, error) {
	own, err := e.ownPower(ctx, voter)
	if err != nil {
		return nil, err
	}

	snapshot := &powerSnapshot{own: own}
	if !cfg.AllowDelegation {
		return snapshot, nil
	}

	incoming, err := e.store.ListDelegationsTo(ctx, voter)
	if err != nil {
		return nil, fmt.Errorf("failed to list delegations: %w", err)
	}

	seen := make(map[string]struct{})
	for _, edge := range incoming {
		if _, ok := seen[edge.Delegator]; ok || !edge.Matches(p) {
			continue
		}
		seen[edge.Delegator] = struct{}{}

		// The delegator's most specific matching edge decides who carries their power
		outgoing, err := e.store.ListDelegationsFrom(ctx, edge.Delegator)
		if err != nil {
			return nil, fmt.Errorf("failed to list delegations: %w", err)
		}
		best := types.BestMatch(outgoing, p)
		if best == nil || best.Delegate != voter {
			continue
		}

		power, err := e.ownPower(ctx, edge.Delegator)
		if err != nil {
			return nil, err
		}
		snapshot.delegators = append(snapshot.delegators, delegatedPower{principal: edge.Delegator, power: power})
	}

	slices.SortFunc(snapshot.delegators, func(a, b delegatedPower) int {
		return strings.Compare(a.principal, b.principal)
	})

	return snapshot, nil
}

// ownPower is the principal's balance plus stake.
func (e *Engine) ownPower(ctx context.Context, principal string) (uint64, error) {
	balance, staked, err := e.ledger.BalanceAndStake(ctx, principal)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return types.SaturatingAdd(balance, staked), nil
}
