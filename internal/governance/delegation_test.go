package governance_test

import (
	"testing"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelegateVote(t *testing.T) {
	t.Parallel()

	type edge struct {
		from, to string
		scope    enum.DelegationScope
		target   string
	}

	tests := []struct {
		name     string
		existing []edge
		attempt  edge
		wantErr  error
	}{
		{
			name:    "all scope",
			attempt: edge{from: "alice", to: "bob", scope: enum.DelegationScopeAll},
		},
		{
			name:    "self delegation",
			attempt: edge{from: "alice", to: "alice", scope: enum.DelegationScopeAll},
			wantErr: types.ErrSelfDelegation,
		},
		{
			name:     "direct cycle",
			existing: []edge{{from: "bob", to: "alice", scope: enum.DelegationScopeAll}},
			attempt:  edge{from: "alice", to: "bob", scope: enum.DelegationScopeAll},
			wantErr:  types.ErrCyclicDelegation,
		},
		{
			name: "long cycle",
			existing: []edge{
				{from: "bob", to: "carol", scope: enum.DelegationScopeAll},
				{from: "carol", to: "dave", scope: enum.DelegationScopeAll},
				{from: "dave", to: "alice", scope: enum.DelegationScopeAll},
			},
			attempt: edge{from: "alice", to: "bob", scope: enum.DelegationScopeAll},
			wantErr: types.ErrCyclicDelegation,
		},
		{
			name:     "different scopes do not cycle",
			existing: []edge{{from: "bob", to: "alice", scope: enum.DelegationScopeRepository, target: "repo-1"}},
			attempt:  edge{from: "alice", to: "bob", scope: enum.DelegationScopeAll},
		},
		{
			name:     "replacing an edge",
			existing: []edge{{from: "alice", to: "carol", scope: enum.DelegationScopeAll}},
			attempt:  edge{from: "alice", to: "bob", scope: enum.DelegationScopeAll},
		},
		{
			name:    "all scope with target",
			attempt: edge{from: "alice", to: "bob", scope: enum.DelegationScopeAll, target: "repo-1"},
			wantErr: types.ErrInvalidInput,
		},
		{
			name:    "repository scope without target",
			attempt: edge{from: "alice", to: "bob", scope: enum.DelegationScopeRepository},
			wantErr: types.ErrInvalidInput,
		},
		{
			name:    "unknown proposal type",
			attempt: edge{from: "alice", to: "bob", scope: enum.DelegationScopeProposalType, target: "Bribe"},
			wantErr: types.ErrInvalidInput,
		},
		{
			name:    "proposal type is case insensitive",
			attempt: edge{from: "alice", to: "bob", scope: enum.DelegationScopeProposalType, target: "treasuryspend"},
		},
		{
			name:    "missing delegate",
			attempt: edge{from: "alice", scope: enum.DelegationScopeAll},
			wantErr: types.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := setupTest(t, nil)
			for _, e := range tt.existing {
				_, err := f.engine.DelegateVote(t.Context(), e.from, e.to, e.scope, e.target)
				require.NoError(t, err)
			}

			saved, err := f.engine.DelegateVote(t.Context(), tt.attempt.from, tt.attempt.to, tt.attempt.scope, tt.attempt.target)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.attempt.to, saved.Delegate)

			from, _, err := f.engine.ListDelegations(t.Context(), tt.attempt.from)
			require.NoError(t, err)

			found := false
			for _, e := range from {
				if e.Scope == saved.Scope && e.Target == saved.Target {
					assert.Equal(t, tt.attempt.to, e.Delegate)
					found = true
				}
			}
			assert.True(t, found)
		})
	}
}

func TestDelegateVoteCanonicalTarget(t *testing.T) {
	t.Parallel()

	f := setupTest(t, nil)

	saved, err := f.engine.DelegateVote(t.Context(), "alice", "bob", enum.DelegationScopeProposalType, "treasuryspend")
	require.NoError(t, err)
	assert.Equal(t, "TreasurySpend", saved.Target)

	require.NoError(t, f.engine.RevokeDelegation(t.Context(), "alice", enum.DelegationScopeProposalType, "TREASURYSPEND"))
}

func TestDelegateVoteDisabled(t *testing.T) {
	t.Parallel()

	f := setupTest(t, func(c *types.GovernanceConfig) { c.AllowDelegation = false })

	_, err := f.engine.DelegateVote(t.Context(), "alice", "bob", enum.DelegationScopeAll, "")
	require.ErrorIs(t, err, types.ErrDelegationDisabled)
}

func TestRevokeDelegation(t *testing.T) {
	t.Parallel()

	f := setupTest(t, nil)

	err := f.engine.RevokeDelegation(t.Context(), "alice", enum.DelegationScopeAll, "")
	require.ErrorIs(t, err, types.ErrNotFound)

	_, err = f.engine.DelegateVote(t.Context(), "alice", "bob", enum.DelegationScopeAll, "")
	require.NoError(t, err)

	require.NoError(t, f.engine.RevokeDelegation(t.Context(), "alice", enum.DelegationScopeAll, ""))

	from, to, err := f.engine.ListDelegations(t.Context(), "alice")
	require.NoError(t, err)
	assert.Empty(t, from)
	assert.Empty(t, to)
}

func TestEffectivePower(t *testing.T) {
	t.Parallel()

	f := setupTest(t, nil)
	f.ledger.SetAccount("alice", 100, 900)
	f.ledger.SetAccount("bob", 0, 500)
	f.ledger.SetAccount("carol", 50, 0)
	f.ledger.SetAccount("dave", 0, 300)

	_, err := f.engine.DelegateVote(t.Context(), "alice", "bob", enum.DelegationScopeAll, "")
	require.NoError(t, err)
	_, err = f.engine.DelegateVote(t.Context(), "carol", "bob", enum.DelegationScopeRepository, "repo-1")
	require.NoError(t, err)
	_, err = f.engine.DelegateVote(t.Context(), "bob", "dave", enum.DelegationScopeAll, "")
	require.NoError(t, err)

	tests := []struct {
		name      string
		principal string
		scope     enum.DelegationScope
		target    string
		want      uint64
	}{
		{name: "delegated away own power plus all scope delegators", principal: "bob", scope: enum.DelegationScopeAll, want: 1000},
		{name: "fully delegated away", principal: "alice", scope: enum.DelegationScopeAll, want: 0},
		{name: "repository scope", principal: "bob", scope: enum.DelegationScopeRepository, target: "repo-1", want: 550},
		{name: "received power is not passed on", principal: "dave", scope: enum.DelegationScopeAll, want: 800},
		{name: "no delegations", principal: "carol", scope: enum.DelegationScopeAll, want: 50},
		{name: "unknown principal", principal: "nobody", scope: enum.DelegationScopeAll, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			power, err := f.engine.EffectivePower(t.Context(), tt.principal, tt.scope, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, power)
		})
	}
}

func TestEffectivePowerConservesSupply(t *testing.T) {
	t.Parallel()

	f := setupTest(t, nil)
	f.ledger.SetAccount("bob", 0, 500)
	f.ledger.SetAccount("dave", 0, 300)

	_, err := f.engine.DelegateVote(t.Context(), "bob", "dave", enum.DelegationScopeAll, "")
	require.NoError(t, err)

	bob, err := f.engine.EffectivePower(t.Context(), "bob", enum.DelegationScopeAll, "")
	require.NoError(t, err)
	dave, err := f.engine.EffectivePower(t.Context(), "dave", enum.DelegationScopeAll, "")
	require.NoError(t, err)

	assert.Equal(t, uint64(0), bob)
	assert.Equal(t, uint64(800), dave)
	assert.Equal(t, uint64(800), bob+dave)

	info, err := f.engine.GetTokenInfo(t.Context(), "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), info.VotingPower)

	// An all scope edge does not remove power held for a narrower scope
	power, err := f.engine.EffectivePower(t.Context(), "bob", enum.DelegationScopeRepository, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), power)
}
