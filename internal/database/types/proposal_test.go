package types_test

import (
	"math"
	"testing"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
)

func TestPaginationWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page       types.Pagination
		wantOffset int
		wantLimit  int
	}{
		{name: "defaults", page: types.Pagination{}, wantOffset: 0, wantLimit: types.DefaultPageLimit},
		{name: "page two", page: types.Pagination{Page: 2, Limit: 10}, wantOffset: 10, wantLimit: 10},
		{name: "offset wins", page: types.Pagination{Page: 3, Limit: 10, Offset: 5}, wantOffset: 5, wantLimit: 10},
		{name: "limit capped", page: types.Pagination{Limit: 1000}, wantOffset: 0, wantLimit: types.MaxPageLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			offset, limit := tt.page.Window()
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestSaturatingAdd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b uint64
		want uint64
	}{
		{name: "small", a: 2, b: 3, want: 5},
		{name: "reaches max", a: math.MaxUint64 - 1, b: 1, want: math.MaxUint64},
		{name: "overflows", a: math.MaxUint64 - 1, b: 2, want: math.MaxUint64},
		{name: "both max", a: math.MaxUint64, b: math.MaxUint64, want: math.MaxUint64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, types.SaturatingAdd(tt.a, tt.b))
		})
	}
}

func TestProposalTallyAndClone(t *testing.T) {
	t.Parallel()

	p := &types.Proposal{ID: "p1"}
	p.Votes = append(p.Votes, &types.VoteRecord{Voter: "a", Choice: enum.VoteChoiceYes, VotingPower: 10, DelegatedFrom: []string{"b"}})
	p.AddToTally(enum.VoteChoiceYes, 10)
	p.AddToTally(enum.VoteChoiceAbstain, 3)
	p.RemoveFromTally(enum.VoteChoiceAbstain, 3)

	assert.Equal(t, uint64(10), p.TotalVotes())
	assert.NotNil(t, p.VoteOf("a"))
	assert.Nil(t, p.VoteOf("b"))
	assert.Equal(t, "a", p.CarriedBy("b").Voter)

	clone := p.Clone()
	clone.Votes[0].DelegatedFrom[0] = "z"
	clone.TotalYes = 0

	assert.Equal(t, "b", p.Votes[0].DelegatedFrom[0])
	assert.Equal(t, uint64(10), p.TotalYes)
}

func TestBestMatchPrefersNarrowerScope(t *testing.T) {
	t.Parallel()

	p := &types.Proposal{Kind: enum.ProposalKindRepositoryUpdate, RepositoryID: "repo-1"}
	all := &types.DelegationEdge{Delegator: "a", Delegate: "x", Scope: enum.DelegationScopeAll}
	kind := &types.DelegationEdge{
		Delegator: "a", Delegate: "y", Scope: enum.DelegationScopeProposalType, Target: "RepositoryUpdate",
	}
	repo := &types.DelegationEdge{Delegator: "a", Delegate: "z", Scope: enum.DelegationScopeRepository, Target: "repo-1"}
	other := &types.DelegationEdge{Delegator: "a", Delegate: "w", Scope: enum.DelegationScopeRepository, Target: "repo-2"}

	assert.Equal(t, "x", types.BestMatch([]*types.DelegationEdge{all}, p).Delegate)
	assert.Equal(t, "y", types.BestMatch([]*types.DelegationEdge{all, kind}, p).Delegate)
	assert.Equal(t, "z", types.BestMatch([]*types.DelegationEdge{all, kind, repo}, p).Delegate)
	assert.Equal(t, "x", types.BestMatch([]*types.DelegationEdge{other, all}, p).Delegate)
	assert.Nil(t, types.BestMatch([]*types.DelegationEdge{other}, p))
}

func TestToggleReaction(t *testing.T) {
	t.Parallel()

	post := &types.DiscussionPost{}

	assert.True(t, post.ToggleReaction("+1", "alice"))
	assert.True(t, post.ToggleReaction("+1", "bob"))
	assert.True(t, post.ToggleReaction("rocket", "alice"))
	assert.Len(t, post.Reactions, 2)
	assert.Equal(t, []string{"alice", "bob"}, post.Reactions[0].Users)

	assert.False(t, post.ToggleReaction("+1", "alice"))
	assert.Equal(t, []string{"bob"}, post.Reactions[0].Users)

	assert.False(t, post.ToggleReaction("+1", "bob"))
	assert.Len(t, post.Reactions, 1)
	assert.Equal(t, "rocket", post.Reactions[0].Emoji)
}
