package governance

import "github.com/openkeyhub/governance/internal/database/types"

// Error kinds returned by the engine. They alias the storage sentinels so that
// adapters and callers match the same values with errors.Is.
var (
	ErrNotFound                = types.ErrNotFound
	ErrInvalidInput            = types.ErrInvalidInput
	ErrProposalLimitExceeded   = types.ErrProposalLimitExceeded
	ErrVotingClosed            = types.ErrVotingClosed
	ErrAlreadyVoted            = types.ErrAlreadyVoted
	ErrInsufficientVotingPower = types.ErrInsufficientVotingPower
	ErrUnauthorized            = types.ErrUnauthorized
	ErrInvalidStateTransition  = types.ErrInvalidStateTransition
	ErrExecutionNotReady       = types.ErrExecutionNotReady
	ErrDelegationDisabled      = types.ErrDelegationDisabled
	ErrSelfDelegation          = types.ErrSelfDelegation
	ErrCyclicDelegation        = types.ErrCyclicDelegation
	ErrInvalidParent           = types.ErrInvalidParent
	ErrInvalidConfig           = types.ErrInvalidConfig
	ErrInsufficientBalance     = types.ErrInsufficientBalance
)
