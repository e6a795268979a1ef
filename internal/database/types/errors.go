package types

import (
	"errors"
	"fmt"
)

// Error kinds returned by governance operations. Callers match them with errors.Is.
var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidInput            = errors.New("invalid input")
	ErrProposalLimitExceeded   = errors.New("proposal limit exceeded")
	ErrVotingClosed            = errors.New("voting is closed")
	ErrAlreadyVoted            = errors.New("already voted")
	ErrInsufficientVotingPower = errors.New("insufficient voting power")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrInvalidStateTransition  = errors.New("invalid state transition")
	ErrExecutionNotReady       = errors.New("execution not ready")
	ErrDelegationDisabled      = errors.New("delegation is disabled")
	ErrSelfDelegation          = errors.New("cannot delegate to self")
	ErrCyclicDelegation        = errors.New("delegation would create a cycle")
	ErrInvalidParent           = errors.New("invalid parent post")
	ErrInvalidConfig           = errors.New("invalid governance config")
)

// Specific variants of the kinds above.
var (
	ErrProposalNotFound    = fmt.Errorf("proposal %w", ErrNotFound)
	ErrPostNotFound        = fmt.Errorf("discussion post %w", ErrNotFound)
	ErrDelegationNotFound  = fmt.Errorf("delegation %w", ErrNotFound)
	ErrConfigNotFound      = fmt.Errorf("config record %w", ErrNotFound)
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrDepositNotFound     = fmt.Errorf("deposit %w", ErrNotFound)
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance for deposit", ErrInvalidInput)
)
