package governance_test

import (
	"sync"
	"testing"
	"time"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/governance"
	"github.com/openkeyhub/governance/internal/governance/memstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	engine *governance.Engine
	store  *memstore.Store
	ledger *memstore.Ledger
	clock  *fakeClock
}

// setupTest creates an engine over in-memory storage with the default config,
// optionally adjusted by mutate.
func setupTest(t *testing.T, mutate func(*types.GovernanceConfig), opts ...governance.Option) *fixture {
	t.Helper()

	cfg := types.DefaultGovernanceConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	f := &fixture{
		store:  memstore.NewStore(),
		ledger: memstore.NewLedger(),
		clock:  &fakeClock{now: epoch},
	}

	opts = append([]governance.Option{governance.WithClock(f.clock)}, opts...)
	engine, err := governance.New(t.Context(), f.store, f.ledger, cfg, zaptest.NewLogger(t), opts...)
	require.NoError(t, err)
	f.engine = engine

	return f
}

func newRequest(proposer string) governance.CreateProposalRequest {
	return governance.CreateProposalRequest{
		Proposer: proposer,
		Payload: types.TreasurySpend{
			Amount:    5000,
			Recipient: "grants-multisig",
			Purpose:   "Documentation sprint",
		},
		Title:       "Fund the documentation sprint",
		Description: "Allocate treasury funds to pay contributors for a two week documentation sprint on the core repositories.",
	}
}

// createProposal creates a proposal for proposer, funding the deposit when the balance cannot cover it.
func (f *fixture) createProposal(
	t *testing.T, proposer string, mutate func(*governance.CreateProposalRequest),
) *types.Proposal {
	t.Helper()

	if balance, staked, _ := f.ledger.BalanceAndStake(t.Context(), proposer); balance < 100 {
		f.ledger.SetAccount(proposer, 1000, staked)
	}

	req := newRequest(proposer)
	if mutate != nil {
		mutate(&req)
	}

	p, err := f.engine.CreateProposal(t.Context(), req)
	require.NoError(t, err)
	return p
}

// requireTallyInvariant checks that the tallies equal the sum of recorded vote power.
func requireTallyInvariant(t *testing.T, p *types.Proposal) {
	t.Helper()

	var sum uint64
	for _, v := range p.Votes {
		sum += v.VotingPower
	}
	require.Equal(t, sum, p.TotalVotes())
}
