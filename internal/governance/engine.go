package governance

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/openkeyhub/governance/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ProposalStore persists proposals and their votes.
type ProposalStore interface {
	// CreateProposal inserts a proposal. The guard receives the number of open proposals
	// held by the proposer and runs atomically with the insert.
	CreateProposal(ctx context.Context, p *types.Proposal, guard func(open int) error) error
	// CountOpenProposals returns the number of Draft, Active and Passed proposals of a proposer.
	CountOpenProposals(ctx context.Context, proposer string) (int, error)
	GetProposal(ctx context.Context, id string) (*types.Proposal, error)
	// ListProposals returns a window of matching proposals, newest first, and the total match count.
	ListProposals(ctx context.Context, filter types.ProposalFilter, offset, limit int) ([]*types.Proposal, int, error)
	// UpdateProposal applies fn to the proposal while holding its lock. Changes made by fn
	// are discarded when it returns an error.
	UpdateProposal(ctx context.Context, id string, fn func(p *types.Proposal) error) (*types.Proposal, error)
	// ListDueProposals returns IDs of proposals whose next transition is at or before now.
	ListDueProposals(ctx context.Context, now time.Time, limit int) ([]string, error)
	// ListUnsettledDeposits returns IDs of terminal proposals still holding a deposit.
	ListUnsettledDeposits(ctx context.Context, limit int) ([]string, error)
}

// DelegationView resolves delegation edges while a delegation change is being validated.
type DelegationView interface {
	DelegateOf(ctx context.Context, delegator string, scope enum.DelegationScope, target string) (string, error)
}

// DelegationStore persists delegation edges.
type DelegationStore interface {
	// SaveDelegation creates or replaces the edge keyed by delegator, scope and target.
	// Saves are serialized so that check observes a consistent graph.
	SaveDelegation(ctx context.Context, edge *types.DelegationEdge, check func(ctx context.Context, view DelegationView) error) error
	DeleteDelegation(ctx context.Context, delegator string, scope enum.DelegationScope, target string) error
	ListDelegationsFrom(ctx context.Context, delegator string) ([]*types.DelegationEdge, error)
	ListDelegationsTo(ctx context.Context, delegate string) ([]*types.DelegationEdge, error)
}

// DiscussionStore persists discussion threads.
type DiscussionStore interface {
	CreatePost(ctx context.Context, post *types.DiscussionPost) error
	GetPost(ctx context.Context, proposalID, postID string) (*types.DiscussionPost, error)
	// ListPosts returns the posts of a proposal in creation order.
	ListPosts(ctx context.Context, proposalID string) ([]*types.DiscussionPost, error)
	UpdatePost(ctx context.Context, proposalID, postID string, fn func(post *types.DiscussionPost) error) (*types.DiscussionPost, error)
}

// ConfigStore persists versions of the governance configuration.
type ConfigStore interface {
	// LatestConfig returns the highest version or types.ErrConfigNotFound.
	LatestConfig(ctx context.Context) (*types.ConfigRecord, error)
	// SaveConfig stores the record under the next version number and sets its Version.
	SaveConfig(ctx context.Context, record *types.ConfigRecord) error
}

// HistoryStore answers participation queries.
type HistoryStore interface {
	CountDistinctVoters(ctx context.Context) (int, error)
	ListTurnouts(ctx context.Context) ([]types.Turnout, error)
	VoterHistory(ctx context.Context, principal string) (*types.VoterHistory, error)
}

// Store combines every persistence concern of the engine.
type Store interface {
	ProposalStore
	DelegationStore
	DiscussionStore
	ConfigStore
	HistoryStore
}

// TokenLedger reports balances and holds proposal deposits.
type TokenLedger interface {
	BalanceAndStake(ctx context.Context, principal string) (balance, staked uint64, err error)
	Supply(ctx context.Context) (*types.TokenSupply, error)
	// LockDeposit moves amount from the principal's balance into escrow for the proposal.
	LockDeposit(ctx context.Context, principal, proposalID string, amount uint64) error
	// ReleaseDeposit refunds or forfeits the escrowed deposit. Releasing a settled deposit is a no-op.
	ReleaseDeposit(ctx context.Context, proposalID string, refund bool) error
}

// Executor applies the payload of a passed proposal and returns a result summary.
type Executor interface {
	Execute(ctx context.Context, p *types.Proposal) (string, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a clock reading UTC wall time.
func SystemClock() Clock {
	return ClockFunc(func() time.Time { return time.Now().UTC() })
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithExecutor sets the payload executor.
func WithExecutor(executor Executor) Option {
	return func(e *Engine) {
		e.executor = executor
	}
}

// WithMetrics enables prometheus counters.
func WithMetrics(metrics *Metrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// WithSweepConcurrency sets how many proposals Tick processes at once.
func WithSweepConcurrency(n int) Option {
	return func(e *Engine) {
		e.sweepConcurrency = max(n, 1)
	}
}

// WithSettlementRetry sets the backoff used when Tick retries deposit settlement.
func WithSettlementRetry(opts utils.RetryOptions) Option {
	return func(e *Engine) {
		e.settleRetry = opts
	}
}

// Engine runs the proposal lifecycle, voting, delegation and discussion operations.
// It is safe for concurrent use.
type Engine struct {
	store            Store
	ledger           TokenLedger
	executor         Executor
	clock            Clock
	metrics          *Metrics
	sanitizer        *bluemonday.Policy
	config           atomic.Pointer[types.ConfigRecord]
	sweepConcurrency int
	settleRetry      utils.RetryOptions
	tracer           trace.Tracer
	logger           *zap.Logger
}

// New creates an engine. The active configuration is the latest stored version,
// or fallback saved as the first version when none exists.
func New(
	ctx context.Context, store Store, ledger TokenLedger, fallback types.GovernanceConfig, logger *zap.Logger, opts ...Option,
) (*Engine, error) {
	e := &Engine{
		store:            store,
		ledger:           ledger,
		clock:            SystemClock(),
		sanitizer:        newSanitizer(),
		sweepConcurrency: 1,
		settleRetry:      utils.GetSettlementRetryOptions(),
		tracer:           otel.Tracer("github.com/openkeyhub/governance/internal/governance"),
		logger:           logger.Named("governance"),
	}
	e.executor = NewLogExecutor(e.logger)

	for _, opt := range opts {
		opt(e)
	}

	record, err := e.loadConfig(ctx, fallback)
	if err != nil {
		return nil, err
	}
	e.config.Store(record)

	e.logger.Info("Governance engine ready",
		zap.Int64("configVersion", record.Version),
		zap.Float64("quorumPercentage", record.Config.QuorumPercentage),
		zap.Float64("approvalThreshold", record.Config.ApprovalThreshold))

	return e, nil
}

func (e *Engine) loadConfig(ctx context.Context, fallback types.GovernanceConfig) (*types.ConfigRecord, error) {
	record, err := e.store.LatestConfig(ctx)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, types.ErrConfigNotFound) {
		return nil, fmt.Errorf("failed to load governance config: %w", err)
	}

	if err := fallback.Validate(); err != nil {
		return nil, err
	}

	record = &types.ConfigRecord{
		Config:    fallback.Clone(),
		CreatedAt: e.clock.Now(),
	}
	if err := e.store.SaveConfig(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save initial governance config: %w", err)
	}

	return record, nil
}

// Config returns the active configuration record. The record must not be modified.
func (e *Engine) Config() *types.ConfigRecord {
	return e.config.Load()
}

// RefreshConfig adopts a newer configuration version saved by another process.
// It returns true when the active configuration changed.
func (e *Engine) RefreshConfig(ctx context.Context) (bool, error) {
	record, err := e.store.LatestConfig(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load governance config: %w", err)
	}
	return e.adoptConfig(record), nil
}

// adoptConfig swaps in the record if it is newer than the active one.
func (e *Engine) adoptConfig(record *types.ConfigRecord) bool {
	for {
		current := e.config.Load()
		if current != nil && current.Version >= record.Version {
			return false
		}
		if e.config.CompareAndSwap(current, record) {
			e.logger.Info("Governance config updated",
				zap.Int64("configVersion", record.Version),
				zap.String("proposalID", record.ProposalID))
			return true
		}
	}
}

func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "governance."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
