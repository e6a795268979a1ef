package enum

// DelegationScope limits which proposals a delegation applies to.
//
//go:generate go tool enumer -type=DelegationScope -trimprefix=DelegationScope -text
type DelegationScope int

const (
	// DelegationScopeAll applies to every proposal.
	DelegationScopeAll DelegationScope = iota
	// DelegationScopeRepository applies to proposals targeting one repository.
	DelegationScopeRepository
	// DelegationScopeProposalType applies to proposals of one kind.
	DelegationScopeProposalType
)

// Precedence orders scopes from most to least specific.
func (s DelegationScope) Precedence() int {
	switch s {
	case DelegationScopeRepository:
		return 2
	case DelegationScopeProposalType:
		return 1
	case DelegationScopeAll:
		return 0
	}
	return -1
}
