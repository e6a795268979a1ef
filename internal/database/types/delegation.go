package types

import (
	"time"

	"github.com/openkeyhub/governance/internal/database/types/enum"
)

// DelegationEdge grants the delegate the delegator's voting power within a scope.
// Target holds the repository ID or proposal kind for the narrower scopes.
type DelegationEdge struct {
	Delegator string               `bun:",pk"      json:"delegator"`
	Scope     enum.DelegationScope `bun:",pk"      json:"scope"`
	Target    string               `bun:",pk"      json:"target,omitempty"`
	Delegate  string               `bun:",notnull" json:"delegate"`
	CreatedAt time.Time            `bun:",notnull" json:"createdAt"`
}

// Matches reports whether the edge applies to the proposal.
func (e *DelegationEdge) Matches(p *Proposal) bool {
	switch e.Scope {
	case enum.DelegationScopeAll:
		return true
	case enum.DelegationScopeRepository:
		return p.RepositoryID != "" && e.Target == p.RepositoryID
	case enum.DelegationScopeProposalType:
		return e.Target == p.Kind.String()
	}
	return false
}

// BestMatch returns the most specific edge that applies to the proposal, or nil.
func BestMatch(edges []*DelegationEdge, p *Proposal) *DelegationEdge {
	var best *DelegationEdge
	for _, e := range edges {
		if !e.Matches(p) {
			continue
		}
		if best == nil || e.Scope.Precedence() > best.Scope.Precedence() {
			best = e
		}
	}
	return best
}
