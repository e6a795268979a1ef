package sweep_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/openkeyhub/governance/internal/governance"
	"github.com/openkeyhub/governance/internal/governance/memstore"
	"github.com/openkeyhub/governance/internal/redis"
	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/openkeyhub/governance/internal/worker/sweep"
	"github.com/openkeyhub/governance/pkg/utils"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// flakyLedger fails the first n deposit releases.
type flakyLedger struct {
	*memstore.Ledger
	failures atomic.Int32
}

func (l *flakyLedger) ReleaseDeposit(ctx context.Context, proposalID string, refund bool) error {
	if l.failures.Add(-1) >= 0 {
		return errors.New("ledger unavailable")
	}
	return l.Ledger.ReleaseDeposit(ctx, proposalID, refund)
}

type fixture struct {
	mr     *miniredis.Miniredis
	store  *memstore.Store
	ledger *flakyLedger
	engine *governance.Engine
	locker *redis.Locker
	cache  *redis.Cache
	worker *sweep.Worker

	mu  sync.Mutex
	now time.Time
}

func (f *fixture) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) setNow(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

func setupTest(t *testing.T, ledgerFailures int32) *fixture {
	t.Helper()

	f := &fixture{
		mr:     miniredis.RunT(t),
		store:  memstore.NewStore(),
		ledger: &flakyLedger{Ledger: memstore.NewLedger()},
		now:    epoch,
	}
	f.ledger.failures.Store(ledgerFailures)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{f.mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	logger := zaptest.NewLogger(t)
	f.engine, err = governance.New(t.Context(), f.store, f.ledger, types.DefaultGovernanceConfig(), logger,
		governance.WithClock(f),
		governance.WithSweepConcurrency(4),
		governance.WithSettlementRetry(utils.RetryOptions{
			MaxElapsedTime:  time.Second,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			MaxRetries:      3,
		}))
	require.NoError(t, err)

	f.locker = redis.NewLocker(client, logger)
	f.cache = redis.NewCache(client, logger)
	f.worker = sweep.New(f.engine, f.locker, f.cache, &config.Sweep{
		Interval:    10 * time.Millisecond,
		Concurrency: 4,
		LockTTL:     time.Minute,
	}, logger)

	return f
}

func (f *fixture) createProposal(t *testing.T, proposer string) *types.Proposal {
	t.Helper()

	f.ledger.SetAccount(proposer, 1000, 0)
	p, err := f.engine.CreateProposal(t.Context(), governance.CreateProposalRequest{
		Proposer: proposer,
		Payload: types.TreasurySpend{
			Amount:    5000,
			Recipient: "grants-multisig",
			Purpose:   "Documentation sprint",
		},
		Title:       "Fund the documentation sprint",
		Description: "Allocate treasury funds to pay contributors for a two week documentation sprint on the core repositories.",
	})
	require.NoError(t, err)
	return p
}

func TestRunOnceAdvancesProposals(t *testing.T) {
	t.Parallel()
	f := setupTest(t, 0)

	first := f.createProposal(t, "alice")
	second := f.createProposal(t, "bob")

	_, err := redis.GetOrLoad(t.Context(), f.cache, redis.VotingStatsKey, time.Minute,
		func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)

	result, err := f.worker.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Zero(t, result.Advanced)
	assert.True(t, f.mr.Exists("governance:cache:"+redis.VotingStatsKey))

	f.setNow(first.VotingEndsAt)
	result, err = f.worker.RunOnce(t.Context())
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.Advanced)

	for _, id := range []string{first.ID, second.ID} {
		stored, err := f.store.GetProposal(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, enum.ProposalStatusFailed, stored.Status)
		assert.Equal(t, enum.DepositStatusForfeited, stored.DepositStatus)
	}

	assert.False(t, f.mr.Exists("governance:cache:"+redis.VotingStatsKey))
	assert.False(t, f.mr.Exists("governance:lock:sweep"))
}

func TestRunOnceSkipsWhenLocked(t *testing.T) {
	t.Parallel()
	f := setupTest(t, 0)

	p := f.createProposal(t, "alice")
	f.setNow(p.VotingEndsAt)

	lease, err := f.locker.TryAcquire(t.Context(), "sweep", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, lease)

	result, err := f.worker.RunOnce(t.Context())
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	stored, err := f.store.GetProposal(t.Context(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.ProposalStatusActive, stored.Status)

	require.NoError(t, lease.Release(t.Context()))

	result, err = f.worker.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Advanced)
}

func TestRunOnceRetriesSettlement(t *testing.T) {
	t.Parallel()
	f := setupTest(t, 2)

	p := f.createProposal(t, "alice")
	f.setNow(p.VotingEndsAt)

	result, err := f.worker.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Advanced)
	assert.Equal(t, 1, result.Settled)

	stored, err := f.store.GetProposal(t.Context(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.DepositStatusForfeited, stored.DepositStatus)

	deposit, ok := f.ledger.Deposit(p.ID)
	require.True(t, ok)
	assert.Equal(t, enum.DepositStatusForfeited, deposit.Status)
}

func TestRunOnceReportsExhaustedSettlement(t *testing.T) {
	t.Parallel()
	f := setupTest(t, 100)

	p := f.createProposal(t, "alice")
	f.setNow(p.VotingEndsAt)

	_, err := f.worker.RunOnce(t.Context())
	require.Error(t, err)

	stored, err := f.store.GetProposal(t.Context(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.ProposalStatusFailed, stored.Status)
	assert.Equal(t, enum.DepositStatusHeld, stored.DepositStatus)
	assert.False(t, f.mr.Exists("governance:lock:sweep"))
}

func TestStartStopsOnCancel(t *testing.T) {
	t.Parallel()
	f := setupTest(t, 0)

	p := f.createProposal(t, "alice")
	f.setNow(p.VotingEndsAt)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.worker.Start(ctx)
	}()

	assert.Eventually(t, func() bool {
		stored, err := f.store.GetProposal(context.Background(), p.ID)
		return err == nil && stored.Status == enum.ProposalStatusFailed
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
