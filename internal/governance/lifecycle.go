package governance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/openkeyhub/governance/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	dueBatchSize     = 100
	maxDueBatches    = 1000
	settleBatchSize  = 100
	maxSettleBatches = 100
)

// Evaluate applies every time-based transition due at now and refreshes NextTransitionAt.
// It returns true when the status changed. Evaluating again with the same now changes nothing.
func Evaluate(p *types.Proposal, now time.Time) bool {
	changed := false

	for {
		next, ok := nextStatus(p, now)
		if !ok {
			break
		}
		p.Status = next
		changed = true
	}

	if changed {
		p.UpdatedAt = now
		if p.Status.IsFinalized() && p.FinalizedAt == nil {
			finalized := p.VotingEndsAt
			p.FinalizedAt = &finalized
		}
	}

	p.NextTransitionAt = NextTransitionAt(p)
	return changed
}

func nextStatus(p *types.Proposal, now time.Time) (enum.ProposalStatus, bool) {
	switch p.Status {
	case enum.ProposalStatusDraft:
		if !now.Before(p.VotingStartsAt) {
			return enum.ProposalStatusActive, true
		}
	case enum.ProposalStatusActive:
		if !now.Before(p.VotingEndsAt) {
			return Outcome(p), true
		}
	case enum.ProposalStatusPassed:
		if !now.Before(p.ExecutionDeadline) {
			return enum.ProposalStatusExpired, true
		}
	case enum.ProposalStatusFailed, enum.ProposalStatusExecuted,
		enum.ProposalStatusCancelled, enum.ProposalStatusExpired:
	}
	return p.Status, false
}

// NextTransitionAt returns when the proposal next changes status on its own, or nil if it never will.
func NextTransitionAt(p *types.Proposal) *time.Time {
	var at time.Time

	switch p.Status {
	case enum.ProposalStatusDraft:
		at = p.VotingStartsAt
	case enum.ProposalStatusActive:
		at = p.VotingEndsAt
	case enum.ProposalStatusPassed:
		at = p.ExecutionDeadline
	case enum.ProposalStatusFailed, enum.ProposalStatusExecuted,
		enum.ProposalStatusCancelled, enum.ProposalStatusExpired:
		return nil
	}
	return &at
}

// Outcome decides the result of a closed voting window from the tallies.
func Outcome(p *types.Proposal) enum.ProposalStatus {
	if QuorumMet(p) && ApprovalReached(p) {
		return enum.ProposalStatusPassed
	}
	return enum.ProposalStatusFailed
}

// QuorumMet reports whether the combined vote weight reaches the quorum snapshot.
func QuorumMet(p *types.Proposal) bool {
	return p.TotalVotes() >= p.QuorumRequired
}

// ApprovalReached reports whether yes/(yes+no) is at least the approval threshold.
// Abstentions are excluded and the ratio is zero when nobody voted yes or no.
func ApprovalReached(p *types.Proposal) bool {
	threshold := new(big.Rat)
	if _, ok := threshold.SetString(strconv.FormatFloat(p.ApprovalThreshold, 'f', -1, 64)); !ok {
		return false
	}

	decided := new(big.Int).Add(new(big.Int).SetUint64(p.TotalYes), new(big.Int).SetUint64(p.TotalNo))
	if decided.Sign() == 0 {
		return threshold.Sign() <= 0
	}

	// yes*100 >= threshold*decided
	lhs := new(big.Rat).SetInt(new(big.Int).Mul(new(big.Int).SetUint64(p.TotalYes), big.NewInt(100)))
	rhs := new(big.Rat).Mul(threshold, new(big.Rat).SetInt(decided))
	return lhs.Cmp(rhs) >= 0
}

// ApprovalRatio returns yes/(yes+no) as a percentage, or zero when nobody voted yes or no.
func ApprovalRatio(p *types.Proposal) float64 {
	decided := float64(p.TotalYes) + float64(p.TotalNo)
	if decided == 0 {
		return 0
	}
	return float64(p.TotalYes) / decided * 100
}

// isDue reports whether a stored proposal has a transition pending at now.
func isDue(p *types.Proposal, now time.Time) bool {
	next := NextTransitionAt(p)
	return next != nil && !now.Before(*next)
}

// advance persists any due transitions of a single proposal.
func (e *Engine) advance(ctx context.Context, id string) (*types.Proposal, error) {
	now := e.clock.Now()

	var before enum.ProposalStatus
	p, err := e.store.UpdateProposal(ctx, id, func(p *types.Proposal) error {
		before = p.Status
		Evaluate(p, now)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to advance proposal: %w", err)
	}

	if p.Status != before {
		e.onTransition(ctx, before, p)
	}
	return p, nil
}

// advanceDue persists transitions for every proposal that is due.
func (e *Engine) advanceDue(ctx context.Context) (int, error) {
	advanced := 0

	for range maxDueBatches {
		ids, err := e.store.ListDueProposals(ctx, e.clock.Now(), dueBatchSize)
		if err != nil {
			return advanced, fmt.Errorf("failed to list due proposals: %w", err)
		}

		for _, id := range ids {
			if _, err := e.advance(ctx, id); err != nil {
				return advanced, err
			}
			advanced++
		}

		if len(ids) < dueBatchSize {
			break
		}
	}

	return advanced, nil
}

// onTransition records a status change and settles the deposit of terminal proposals.
func (e *Engine) onTransition(ctx context.Context, from enum.ProposalStatus, p *types.Proposal) {
	e.metrics.transition(p.Status)

	e.logger.Info("Proposal transitioned",
		zap.String("proposalID", p.ID),
		zap.String("from", from.String()),
		zap.String("to", p.Status.String()),
		zap.Uint64("yes", p.TotalYes),
		zap.Uint64("no", p.TotalNo),
		zap.Uint64("abstain", p.TotalAbstain))

	if p.Status.IsTerminal() {
		if err := e.settleDeposit(ctx, p); err != nil {
			e.logger.Warn("Failed to settle deposit, will retry",
				zap.Error(err),
				zap.String("proposalID", p.ID))
		}
	}
}

// settleDeposit refunds or forfeits the deposit of a terminal proposal according
// to the refund policy recorded when it was created. The proposal is updated in place.
func (e *Engine) settleDeposit(ctx context.Context, p *types.Proposal) error {
	if p.DepositStatus != enum.DepositStatusHeld || !p.Status.IsTerminal() {
		return nil
	}

	refund := p.RefundPolicy.Refunds(p.Status)
	if err := e.ledger.ReleaseDeposit(ctx, p.ID, refund); err != nil {
		return fmt.Errorf("failed to release deposit: %w", err)
	}

	status := enum.DepositStatusForfeited
	if refund {
		status = enum.DepositStatusRefunded
	}

	updated, err := e.store.UpdateProposal(ctx, p.ID, func(stored *types.Proposal) error {
		if stored.DepositStatus == enum.DepositStatusHeld {
			stored.DepositStatus = status
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record deposit settlement: %w", err)
	}
	p.DepositStatus = updated.DepositStatus

	e.metrics.deposit(status)
	e.logger.Debug("Settled proposal deposit",
		zap.String("proposalID", p.ID),
		zap.String("depositStatus", status.String()),
		zap.Uint64("amount", p.Deposit))

	return nil
}

// SettleDeposits retries settlement for terminal proposals whose deposit is still held.
// Each settlement is retried with backoff before the sweep gives up on it.
func (e *Engine) SettleDeposits(ctx context.Context) (int, error) {
	var settled atomic.Int64

	for range maxSettleBatches {
		ids, err := e.store.ListUnsettledDeposits(ctx, settleBatchSize)
		if err != nil {
			return int(settled.Load()), fmt.Errorf("failed to list unsettled deposits: %w", err)
		}

		p := pool.New().WithMaxGoroutines(e.sweepConcurrency).WithContext(ctx)
		for _, id := range ids {
			p.Go(func(ctx context.Context) error {
				_, err := utils.WithRetry(ctx, func() (struct{}, error) {
					proposal, err := e.store.GetProposal(ctx, id)
					if err != nil {
						return struct{}{}, fmt.Errorf("failed to get proposal: %w", err)
					}
					return struct{}{}, e.settleDeposit(ctx, proposal)
				}, e.settlementRetry(id))
				if err != nil {
					return fmt.Errorf("proposal %s: %w", id, err)
				}

				settled.Add(1)
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return int(settled.Load()), err
		}

		if len(ids) < settleBatchSize {
			break
		}
	}

	return int(settled.Load()), nil
}

// settlementRetry gives up early on errors a retry cannot fix.
func (e *Engine) settlementRetry(id string) utils.RetryOptions {
	opts := e.settleRetry
	opts.Retryable = func(err error) bool {
		return !errors.Is(err, ErrNotFound)
	}
	opts.OnRetry = func(err error, wait time.Duration) {
		e.logger.Debug("Retrying deposit settlement",
			zap.String("proposalID", id),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	return opts
}

// sweepDue advances every due proposal, running several advances at once.
func (e *Engine) sweepDue(ctx context.Context) (int, error) {
	var advanced atomic.Int64

	for range maxDueBatches {
		ids, err := e.store.ListDueProposals(ctx, e.clock.Now(), dueBatchSize)
		if err != nil {
			return int(advanced.Load()), fmt.Errorf("failed to list due proposals: %w", err)
		}

		p := pool.New().WithMaxGoroutines(e.sweepConcurrency).WithContext(ctx)
		for _, id := range ids {
			p.Go(func(ctx context.Context) error {
				if _, err := e.advance(ctx, id); err != nil {
					return fmt.Errorf("proposal %s: %w", id, err)
				}
				advanced.Add(1)
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return int(advanced.Load()), err
		}

		if len(ids) < dueBatchSize {
			break
		}
	}

	return int(advanced.Load()), nil
}

// TickResult summarizes one sweep.
type TickResult struct {
	Advanced int
	Settled  int
}

// Tick advances every due proposal and retries pending deposit settlements.
// Work is spread over up to the configured sweep concurrency.
func (e *Engine) Tick(ctx context.Context) (result TickResult, err error) {
	ctx, span := e.startSpan(ctx, "Tick")
	defer func() { endSpan(span, err) }()

	result.Advanced, err = e.sweepDue(ctx)
	if err != nil {
		return result, err
	}

	result.Settled, err = e.SettleDeposits(ctx)
	if err != nil {
		return result, err
	}

	span.SetAttributes(
		attribute.Int("governance.advanced", result.Advanced),
		attribute.Int("governance.settled", result.Settled))

	return result, nil
}
