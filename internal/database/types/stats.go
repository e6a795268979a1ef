package types

import (
	"time"

	"github.com/openkeyhub/governance/internal/database/types/enum"
)

// VotingStats summarizes token supply and governance participation.
type VotingStats struct {
	TotalSupply       uint64  `json:"totalSupply"`
	CirculatingSupply uint64  `json:"circulatingSupply"`
	TotalStaked       uint64  `json:"totalStaked"`
	ActiveVoters      int     `json:"activeVoters"`
	ParticipationRate float64 `json:"participationRate"`
}

// TokenSupply is the supply breakdown reported by the token ledger.
type TokenSupply struct {
	Total       uint64 `json:"total"`
	Circulating uint64 `json:"circulating"`
	Staked      uint64 `json:"staked"`
}

// Turnout is the vote weight cast on a finalized proposal against its staked supply.
type Turnout struct {
	Cast   uint64 `bun:"cast"`
	Staked uint64 `bun:"staked"`
}

// VoterOutcome pairs a principal's vote with the final status of the proposal.
type VoterOutcome struct {
	Choice enum.VoteChoice     `bun:"choice"`
	Status enum.ProposalStatus `bun:"status"`
}

// VoterHistory is the participation record of a principal.
type VoterHistory struct {
	Outcomes       []VoterOutcome
	LastActivityAt *time.Time
}

// TokenInfo describes a principal's holdings and governance standing.
type TokenInfo struct {
	Principal       string            `json:"principal"`
	Balance         uint64            `json:"balance"`
	Staked          uint64            `json:"staked"`
	VotingPower     uint64            `json:"votingPower"`
	DelegatedTo     []*DelegationEdge `json:"delegatedTo"`
	DelegatedFrom   []*DelegationEdge `json:"delegatedFrom"`
	LastActivityAt  *time.Time        `json:"lastActivityAt,omitempty"`
	ReputationScore float64           `json:"reputationScore"`
}
