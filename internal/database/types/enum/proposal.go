package enum

// ProposalStatus represents the lifecycle state of a proposal.
//
//go:generate go tool enumer -type=ProposalStatus -trimprefix=ProposalStatus -text
type ProposalStatus int

const (
	// ProposalStatusDraft is a created proposal whose voting window has not opened.
	ProposalStatusDraft ProposalStatus = iota
	// ProposalStatusActive is a proposal accepting votes.
	ProposalStatusActive
	// ProposalStatusPassed met quorum and the approval threshold and awaits execution.
	ProposalStatusPassed
	// ProposalStatusFailed missed quorum or the approval threshold.
	ProposalStatusFailed
	// ProposalStatusExecuted has had its payload applied.
	ProposalStatusExecuted
	// ProposalStatusCancelled was withdrawn by its proposer.
	ProposalStatusCancelled
	// ProposalStatusExpired passed but was not executed within the grace window.
	ProposalStatusExpired
)

// IsTerminal reports whether no further transition can happen.
func (s ProposalStatus) IsTerminal() bool {
	switch s {
	case ProposalStatusFailed, ProposalStatusExecuted, ProposalStatusCancelled, ProposalStatusExpired:
		return true
	case ProposalStatusDraft, ProposalStatusActive, ProposalStatusPassed:
		return false
	}
	return false
}

// IsFinalized reports whether voting on the proposal has been decided.
// Cancelled proposals are not finalized since their vote never completed.
func (s ProposalStatus) IsFinalized() bool {
	switch s {
	case ProposalStatusPassed, ProposalStatusFailed, ProposalStatusExecuted, ProposalStatusExpired:
		return true
	case ProposalStatusDraft, ProposalStatusActive, ProposalStatusCancelled:
		return false
	}
	return false
}

// Approved reports whether the proposal's vote succeeded.
func (s ProposalStatus) Approved() bool {
	return s == ProposalStatusPassed || s == ProposalStatusExecuted || s == ProposalStatusExpired
}

// ProposalKind identifies the payload variant a proposal carries.
//
//go:generate go tool enumer -type=ProposalKind -trimprefix=ProposalKind -text
type ProposalKind int

const (
	ProposalKindRepositoryUpdate ProposalKind = iota
	ProposalKindPlatformUpgrade
	ProposalKindTreasurySpend
	ProposalKindGovernanceConfig
	ProposalKindCollaboratorPromotion
	ProposalKindCustomProposal
)

// DepositStatus tracks what happened to a proposal's deposit.
//
//go:generate go tool enumer -type=DepositStatus -trimprefix=DepositStatus -text
type DepositStatus int

const (
	// DepositStatusNone means no deposit was required.
	DepositStatusNone DepositStatus = iota
	// DepositStatusHeld means the deposit is locked until the proposal settles.
	DepositStatusHeld
	// DepositStatusRefunded means the deposit was returned to the proposer.
	DepositStatusRefunded
	// DepositStatusForfeited means the deposit was kept by the treasury.
	DepositStatusForfeited
)
