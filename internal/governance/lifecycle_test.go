package governance_test

import (
	"testing"
	"time"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/openkeyhub/governance/internal/governance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeProposal(yes, no, abstain uint64) *types.Proposal {
	return &types.Proposal{
		ID:                "p-1",
		Status:            enum.ProposalStatusActive,
		VotingStartsAt:    epoch,
		VotingEndsAt:      epoch.Add(7 * 24 * time.Hour),
		ExecutionDelay:    48 * time.Hour,
		ExecutionDeadline: epoch.Add(23 * 24 * time.Hour),
		QuorumRequired:    5000,
		ApprovalThreshold: 60,
		TotalYes:          yes,
		TotalNo:           no,
		TotalAbstain:      abstain,
	}
}

func TestEvaluateOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yes     uint64
		no      uint64
		abstain uint64
		want    enum.ProposalStatus
	}{
		{name: "quorum met and approved", yes: 8000, no: 2000, want: enum.ProposalStatusPassed},
		{name: "quorum met but rejected", yes: 2000, no: 8000, want: enum.ProposalStatusFailed},
		{name: "quorum not met", yes: 3000, want: enum.ProposalStatusFailed},
		{name: "quorum exactly met", yes: 5000, want: enum.ProposalStatusPassed},
		{name: "approval exactly at threshold", yes: 6000, no: 4000, want: enum.ProposalStatusPassed},
		{name: "approval just below threshold", yes: 5999, no: 4001, want: enum.ProposalStatusFailed},
		{name: "abstain counts toward quorum", yes: 1000, abstain: 4000, want: enum.ProposalStatusPassed},
		{name: "only abstentions", abstain: 9000, want: enum.ProposalStatusFailed},
		{name: "no votes", want: enum.ProposalStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := activeProposal(tt.yes, tt.no, tt.abstain)
			changed := governance.Evaluate(p, p.VotingEndsAt)

			assert.True(t, changed)
			assert.Equal(t, tt.want, p.Status)
			require.NotNil(t, p.FinalizedAt)
			assert.Equal(t, p.VotingEndsAt, *p.FinalizedAt)
		})
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	t.Parallel()

	t.Run("open window leaves status unchanged", func(t *testing.T) {
		t.Parallel()

		p := activeProposal(8000, 0, 0)
		now := p.VotingEndsAt.Add(-time.Nanosecond)

		assert.False(t, governance.Evaluate(p, now))
		assert.False(t, governance.Evaluate(p, now))
		assert.Equal(t, enum.ProposalStatusActive, p.Status)
		require.NotNil(t, p.NextTransitionAt)
		assert.Equal(t, p.VotingEndsAt, *p.NextTransitionAt)
	})

	t.Run("terminal proposal is a no-op", func(t *testing.T) {
		t.Parallel()

		p := activeProposal(1000, 0, 0)
		require.True(t, governance.Evaluate(p, p.VotingEndsAt))
		require.Equal(t, enum.ProposalStatusFailed, p.Status)

		snapshot := *p
		assert.False(t, governance.Evaluate(p, p.VotingEndsAt.Add(365*24*time.Hour)))
		assert.Equal(t, snapshot.Status, p.Status)
		assert.Equal(t, snapshot.UpdatedAt, p.UpdatedAt)
		assert.Nil(t, p.NextTransitionAt)
	})

	t.Run("same now twice", func(t *testing.T) {
		t.Parallel()

		p := activeProposal(8000, 0, 0)
		require.True(t, governance.Evaluate(p, p.VotingEndsAt))
		assert.False(t, governance.Evaluate(p, p.VotingEndsAt))
		assert.Equal(t, enum.ProposalStatusPassed, p.Status)
	})
}

func TestEvaluateChainsTransitions(t *testing.T) {
	t.Parallel()

	p := activeProposal(8000, 0, 0)
	p.Status = enum.ProposalStatusDraft

	// A reader arriving after the grace window sees the final state in one step
	require.True(t, governance.Evaluate(p, p.ExecutionDeadline))
	assert.Equal(t, enum.ProposalStatusExpired, p.Status)
	assert.Nil(t, p.NextTransitionAt)
}

func TestEvaluateDraft(t *testing.T) {
	t.Parallel()

	p := activeProposal(0, 0, 0)
	p.Status = enum.ProposalStatusDraft

	assert.False(t, governance.Evaluate(p, p.VotingStartsAt.Add(-time.Second)))
	assert.Equal(t, enum.ProposalStatusDraft, p.Status)
	assert.Equal(t, p.VotingStartsAt, *p.NextTransitionAt)

	assert.True(t, governance.Evaluate(p, p.VotingStartsAt))
	assert.Equal(t, enum.ProposalStatusActive, p.Status)
	assert.Nil(t, p.FinalizedAt)
}

func TestApprovalReached(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		threshold float64
		yes       uint64
		no        uint64
		want      bool
	}{
		{name: "fractional threshold met", threshold: 33.3, yes: 333, no: 667, want: true},
		{name: "fractional threshold missed", threshold: 33.4, yes: 333, no: 667, want: false},
		{name: "unanimous", threshold: 100, yes: 1, no: 0, want: true},
		{name: "zero decided", threshold: 50, want: false},
		{name: "large tallies", threshold: 50, yes: 1 << 62, no: 1 << 62, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &types.Proposal{ApprovalThreshold: tt.threshold, TotalYes: tt.yes, TotalNo: tt.no}
			assert.Equal(t, tt.want, governance.ApprovalReached(p))
		})
	}
}

func TestApprovalRatio(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 80.0, governance.ApprovalRatio(&types.Proposal{TotalYes: 8000, TotalNo: 2000}), 1e-9)
	assert.Zero(t, governance.ApprovalRatio(&types.Proposal{TotalAbstain: 10}))
}

func TestTickAdvancesDueProposals(t *testing.T) {
	t.Parallel()

	f := setupTest(t, nil)
	f.ledger.SetAccount("whale", 0, 50000)

	p := f.createProposal(t, "carol", nil)
	require.Equal(t, enum.ProposalStatusActive, p.Status)

	f.clock.Set(p.VotingEndsAt)
	result, err := f.engine.Tick(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Advanced)

	stored, err := f.store.GetProposal(t.Context(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.ProposalStatusFailed, stored.Status)
	assert.Equal(t, enum.DepositStatusForfeited, stored.DepositStatus)

	// Nothing left to do
	result, err = f.engine.Tick(t.Context())
	require.NoError(t, err)
	assert.Zero(t, result.Advanced)
	assert.Zero(t, result.Settled)
}
