package enum

// RefundPolicy decides the fate of a deposit once its proposal is terminal.
//
//go:generate go tool enumer -type=RefundPolicy -trimprefix=RefundPolicy -transform=snake -text
type RefundPolicy int

const (
	// RefundPolicyRefundUnlessFailed returns the deposit unless the vote failed.
	RefundPolicyRefundUnlessFailed RefundPolicy = iota
	// RefundPolicyAlwaysRefund returns the deposit in every terminal state.
	RefundPolicyAlwaysRefund
	// RefundPolicyRefundOnExecute returns the deposit only when the proposal is executed.
	RefundPolicyRefundOnExecute
)

// Refunds reports whether a deposit is returned for a proposal ending in the given status.
func (p RefundPolicy) Refunds(status ProposalStatus) bool {
	switch p {
	case RefundPolicyAlwaysRefund:
		return true
	case RefundPolicyRefundOnExecute:
		return status == ProposalStatusExecuted
	case RefundPolicyRefundUnlessFailed:
		return status != ProposalStatusFailed
	}
	return false
}
