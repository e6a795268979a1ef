package types

// ProposalRecord is the exported outcome of a finalized proposal.
type ProposalRecord struct {
	ProposalID     string
	Kind           string
	Status         string
	ProposerHash   string
	Yes            uint64
	No             uint64
	Abstain        uint64
	QuorumRequired uint64
	ApprovalRatio  float64
	FinalizedAt    string
}

// VoteRecord is an exported vote with the voter identity hashed.
type VoteRecord struct {
	ProposalID  string
	VoterHash   string
	Choice      string
	VotingPower uint64
	Delegations int
}
