package governance

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/openkeyhub/governance/pkg/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	minTitleLength       = 10
	maxTitleLength       = 200
	minDescriptionLength = 50
	maxDescriptionLength = 20000
)

// CreateProposalRequest describes a new proposal.
type CreateProposalRequest struct {
	Proposer    string
	Payload     types.ProposalPayload
	Title       string
	Description string

	// VotingDuration defaults to the configured voting period when zero.
	VotingDuration time.Duration
	// ExecutionDelay defaults to the configured delay when nil.
	ExecutionDelay *time.Duration
	// StartsAt defaults to now when nil.
	StartsAt *time.Time
}

// CreateProposal validates the request, locks the proposer's deposit and stores a new proposal.
// A proposal whose voting window opens immediately is returned Active.
func (e *Engine) CreateProposal(ctx context.Context, req CreateProposalRequest) (p *types.Proposal, err error) {
	ctx, span := e.startSpan(ctx, "CreateProposal", attribute.String("governance.proposer", req.Proposer))
	defer func() { endSpan(span, err) }()

	cfg := e.Config().Config
	now := e.clock.Now()

	p, err = buildProposal(req, &cfg, now)
	if err != nil {
		return nil, err
	}

	// Settle stale proposals first so the open count is accurate
	if _, err := e.advanceDue(ctx); err != nil {
		return nil, err
	}

	guard := func(open int) error {
		if open >= cfg.MaxProposalsPerUser {
			return fmt.Errorf("%w: %d of %d proposals open", types.ErrProposalLimitExceeded, open, cfg.MaxProposalsPerUser)
		}
		return nil
	}

	open, err := e.store.CountOpenProposals(ctx, p.Proposer)
	if err != nil {
		return nil, fmt.Errorf("failed to count open proposals: %w", err)
	}
	if err := guard(open); err != nil {
		return nil, err
	}

	// Snapshot the quorum against the staked supply at creation
	supply, err := e.ledger.Supply(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get token supply: %w", err)
	}
	p.TotalStakedSnapshot = supply.Staked
	p.QuorumRequired = cfg.QuorumRequired(supply.Staked)

	if cfg.ProposalDeposit > 0 {
		if err := e.ledger.LockDeposit(ctx, p.Proposer, p.ID, cfg.ProposalDeposit); err != nil {
			return nil, fmt.Errorf("failed to lock deposit: %w", err)
		}
		p.Deposit = cfg.ProposalDeposit
		p.DepositStatus = enum.DepositStatusHeld
	}

	Evaluate(p, now)

	if err := e.store.CreateProposal(ctx, p, guard); err != nil {
		if p.DepositStatus == enum.DepositStatusHeld {
			if releaseErr := e.ledger.ReleaseDeposit(ctx, p.ID, true); releaseErr != nil {
				e.logger.Error("Failed to return deposit of rejected proposal",
					zap.Error(releaseErr),
					zap.String("proposalID", p.ID),
					zap.String("proposer", p.Proposer))
			}
		}
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	e.metrics.proposalCreated(p.Kind)
	e.logger.Info("Created proposal",
		zap.String("proposalID", p.ID),
		zap.String("proposer", p.Proposer),
		zap.String("kind", p.Kind.String()),
		zap.String("status", p.Status.String()),
		zap.Uint64("quorumRequired", p.QuorumRequired))

	return p, nil
}

// buildProposal validates the request and fills in every field that does not depend on the ledger.
func buildProposal(req CreateProposalRequest, cfg *types.GovernanceConfig, now time.Time) (*types.Proposal, error) {
	if req.Proposer == "" {
		return nil, fmt.Errorf("%w: proposer is required", types.ErrInvalidInput)
	}
	if req.Payload == nil {
		return nil, fmt.Errorf("%w: proposal type is required", types.ErrInvalidInput)
	}
	if err := req.Payload.Validate(); err != nil {
		return nil, err
	}

	title := utils.CleanLine(req.Title)
	if n := utf8.RuneCountInString(title); n < minTitleLength || n > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be between %d and %d characters",
			types.ErrInvalidInput, minTitleLength, maxTitleLength)
	}

	description := utils.CleanText(req.Description)
	if n := utf8.RuneCountInString(description); n < minDescriptionLength || n > maxDescriptionLength {
		return nil, fmt.Errorf("%w: description must be between %d and %d characters",
			types.ErrInvalidInput, minDescriptionLength, maxDescriptionLength)
	}

	duration := req.VotingDuration
	if duration == 0 {
		duration = cfg.VotingPeriod
	}
	if duration <= 0 || duration < cfg.MinVotingDuration || (cfg.MaxVotingDuration > 0 && duration > cfg.MaxVotingDuration) {
		return nil, fmt.Errorf("%w: voting duration %s outside [%s, %s]",
			types.ErrInvalidInput, duration, cfg.MinVotingDuration, cfg.MaxVotingDuration)
	}

	delay := cfg.ExecutionDelay
	if req.ExecutionDelay != nil {
		delay = *req.ExecutionDelay
	}
	if delay < 0 || (cfg.MaxExecutionDelay > 0 && delay > cfg.MaxExecutionDelay) {
		return nil, fmt.Errorf("%w: execution delay %s outside [0, %s]",
			types.ErrInvalidInput, delay, cfg.MaxExecutionDelay)
	}

	startsAt := now
	if req.StartsAt != nil {
		if req.StartsAt.Before(now) {
			return nil, fmt.Errorf("%w: voting cannot start in the past", types.ErrInvalidInput)
		}
		startsAt = *req.StartsAt
	}
	endsAt := startsAt.Add(duration)

	return &types.Proposal{
		ID:                uuid.Must(uuid.NewV7()).String(),
		Proposer:          req.Proposer,
		Kind:              req.Payload.Kind(),
		Payload:           types.NewPayload(req.Payload),
		RepositoryID:      req.Payload.Repository(),
		Title:             title,
		Description:       description,
		Status:            enum.ProposalStatusDraft,
		CreatedAt:         now,
		UpdatedAt:         now,
		VotingStartsAt:    startsAt,
		VotingEndsAt:      endsAt,
		ExecutionDelay:    delay,
		ExecutionDeadline: endsAt.Add(delay).Add(cfg.ExecutionGracePeriod),
		ApprovalThreshold: cfg.ApprovalThreshold,
		RefundPolicy:      cfg.RefundPolicy,
		DepositStatus:     enum.DepositStatusNone,
		Votes:             []*types.VoteRecord{},
	}, nil
}

// GetProposal returns a proposal with any due transitions applied.
func (e *Engine) GetProposal(ctx context.Context, id string) (*types.Proposal, error) {
	p, err := e.store.GetProposal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	if isDue(p, e.clock.Now()) {
		return e.advance(ctx, id)
	}
	return p, nil
}

// ListProposals returns one page of proposals matching the filter, newest first.
func (e *Engine) ListProposals(
	ctx context.Context, filter types.ProposalFilter, page types.Pagination,
) (*types.ProposalPage, error) {
	if filter.Status != nil && !filter.Status.IsAProposalStatus() {
		return nil, fmt.Errorf("%w: unknown status filter", types.ErrInvalidInput)
	}
	if filter.Kind != nil && !filter.Kind.IsAProposalKind() {
		return nil, fmt.Errorf("%w: unknown proposal type filter", types.ErrInvalidInput)
	}
	if page.Page < 0 || page.Limit < 0 || page.Offset < 0 {
		return nil, fmt.Errorf("%w: pagination values must not be negative", types.ErrInvalidInput)
	}

	if _, err := e.advanceDue(ctx); err != nil {
		return nil, err
	}

	offset, limit := page.Window()
	proposals, total, err := e.store.ListProposals(ctx, filter, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	return &types.ProposalPage{
		Proposals:  proposals,
		TotalCount: total,
		HasMore:    offset+len(proposals) < total,
	}, nil
}

// ExecuteProposal applies the payload of a passed proposal once its execution delay has elapsed.
// The caller must be the proposer or a configured executor.
func (e *Engine) ExecuteProposal(ctx context.Context, id, caller string) (p *types.Proposal, err error) {
	ctx, span := e.startSpan(ctx, "ExecuteProposal",
		attribute.String("governance.proposal_id", id),
		attribute.String("governance.caller", caller))
	defer func() { endSpan(span, err) }()

	cfg := e.Config().Config
	now := e.clock.Now()

	var applied *types.ConfigRecord

	p, err = e.store.UpdateProposal(ctx, id, func(p *types.Proposal) error {
		Evaluate(p, now)

		if p.Status != enum.ProposalStatusPassed {
			return fmt.Errorf("%w: proposal is %s", types.ErrInvalidStateTransition, p.Status)
		}

		if caller == "" || (caller != p.Proposer && !cfg.CanExecute(caller)) {
			return fmt.Errorf("%w: %q may not execute this proposal", types.ErrUnauthorized, caller)
		}

		if now.Before(p.ExecutableAt()) {
			return fmt.Errorf("%w: executable from %s", types.ErrExecutionNotReady, p.ExecutableAt().Format(time.RFC3339))
		}

		result, record, err := e.apply(ctx, p, now)
		if err != nil {
			return err
		}
		applied = record

		p.Status = enum.ProposalStatusExecuted
		p.ExecutedAt = &now
		p.ExecutedBy = caller
		p.ExecutionResult = result
		p.UpdatedAt = now
		p.NextTransitionAt = nil

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute proposal: %w", err)
	}

	if applied != nil {
		e.adoptConfig(applied)
	}

	e.onTransition(ctx, enum.ProposalStatusPassed, p)
	return p, nil
}

// apply runs the payload. Governance config changes are stored as a new config version.
func (e *Engine) apply(ctx context.Context, p *types.Proposal, now time.Time) (string, *types.ConfigRecord, error) {
	change, ok := p.Payload.ProposalPayload.(types.GovernanceConfigChange)
	if !ok {
		result, err := e.executor.Execute(ctx, p)
		if err != nil {
			return "", nil, fmt.Errorf("failed to apply payload: %w", err)
		}
		return result, nil, nil
	}

	if err := change.Validate(); err != nil {
		return "", nil, err
	}

	record := &types.ConfigRecord{
		Config:     change.NewConfig.Clone(),
		ProposalID: p.ID,
		CreatedAt:  now,
	}
	if err := e.store.SaveConfig(ctx, record); err != nil {
		return "", nil, fmt.Errorf("failed to save governance config: %w", err)
	}

	return fmt.Sprintf("governance config version %d applied", record.Version), record, nil
}

// CancelProposal withdraws a Draft or Active proposal. Only the proposer may cancel.
func (e *Engine) CancelProposal(ctx context.Context, id, caller string) (p *types.Proposal, err error) {
	ctx, span := e.startSpan(ctx, "CancelProposal",
		attribute.String("governance.proposal_id", id),
		attribute.String("governance.caller", caller))
	defer func() { endSpan(span, err) }()

	now := e.clock.Now()

	var before enum.ProposalStatus
	p, err = e.store.UpdateProposal(ctx, id, func(p *types.Proposal) error {
		Evaluate(p, now)

		if p.Status != enum.ProposalStatusDraft && p.Status != enum.ProposalStatusActive {
			return fmt.Errorf("%w: proposal is %s", types.ErrInvalidStateTransition, p.Status)
		}
		if caller != p.Proposer {
			return fmt.Errorf("%w: only the proposer may cancel", types.ErrUnauthorized)
		}

		before = p.Status
		p.Status = enum.ProposalStatusCancelled
		p.CancelledAt = &now
		p.UpdatedAt = now
		p.NextTransitionAt = nil

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel proposal: %w", err)
	}

	e.onTransition(ctx, before, p)
	return p, nil
}
