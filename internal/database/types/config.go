package types

import (
	"fmt"
	"math"
	"math/big"
	"slices"
	"strconv"
	"time"

	"github.com/openkeyhub/governance/internal/database/types/enum"
)

// GovernanceConfig holds the tunable parameters of the governance process.
type GovernanceConfig struct {
	// Default length of the voting window.
	VotingPeriod time.Duration `json:"votingPeriod" koanf:"voting_period"`
	// Shortest voting window a proposer may request.
	MinVotingDuration time.Duration `json:"minVotingDuration" koanf:"min_voting_duration"`
	// Longest voting window a proposer may request.
	MaxVotingDuration time.Duration `json:"maxVotingDuration" koanf:"max_voting_duration"`
	// Default wait between the end of voting and execution.
	ExecutionDelay time.Duration `json:"executionDelay" koanf:"execution_delay"`
	// Longest execution delay a proposer may request.
	MaxExecutionDelay time.Duration `json:"maxExecutionDelay" koanf:"max_execution_delay"`
	// Time after the execution delay during which a passed proposal may still be executed.
	ExecutionGracePeriod time.Duration `json:"executionGracePeriod" koanf:"execution_grace_period"`
	// Amount locked from the proposer when a proposal is created.
	ProposalDeposit uint64 `json:"proposalDeposit" koanf:"proposal_deposit"`
	// Percentage of staked supply that must vote for a result to count.
	QuorumPercentage float64 `json:"quorumPercentage" koanf:"quorum_percentage"`
	// Percentage of Yes among Yes+No needed to pass.
	ApprovalThreshold float64 `json:"approvalThreshold" koanf:"approval_threshold"`
	// Maximum number of non-terminal proposals per proposer.
	MaxProposalsPerUser int `json:"maxProposalsPerUser" koanf:"max_proposals_per_user"`
	// Minimum effective voting power needed to cast a vote.
	MinVotingPower uint64 `json:"minVotingPower" koanf:"min_voting_power"`
	// Whether voting power may be delegated.
	AllowDelegation bool `json:"allowDelegation" koanf:"allow_delegation"`
	// Whether a voter may replace an earlier vote while voting is open.
	AllowRevote bool `json:"allowRevote" koanf:"allow_revote"`
	// What happens to deposits once a proposal is terminal.
	RefundPolicy enum.RefundPolicy `json:"refundPolicy" koanf:"refund_policy"`
	// Principals allowed to execute any passed proposal besides its proposer.
	Executors []string `json:"executors" koanf:"executors"`
}

// DefaultGovernanceConfig returns the parameters used when none are configured.
func DefaultGovernanceConfig() GovernanceConfig {
	return GovernanceConfig{
		VotingPeriod:         7 * 24 * time.Hour,
		MinVotingDuration:    24 * time.Hour,
		MaxVotingDuration:    30 * 24 * time.Hour,
		ExecutionDelay:       2 * 24 * time.Hour,
		MaxExecutionDelay:    14 * 24 * time.Hour,
		ExecutionGracePeriod: 14 * 24 * time.Hour,
		ProposalDeposit:      100,
		QuorumPercentage:     10,
		ApprovalThreshold:    60,
		MaxProposalsPerUser:  5,
		MinVotingPower:       100,
		AllowDelegation:      true,
		AllowRevote:          false,
		RefundPolicy:         enum.RefundPolicyRefundUnlessFailed,
	}
}

// Validate checks that the parameters are usable.
func (c *GovernanceConfig) Validate() error {
	if !validPercentage(c.QuorumPercentage) {
		return fmt.Errorf("%w: quorum percentage must be in (0, 100], got %v", ErrInvalidConfig, c.QuorumPercentage)
	}

	if !validPercentage(c.ApprovalThreshold) {
		return fmt.Errorf("%w: approval threshold must be in (0, 100], got %v", ErrInvalidConfig, c.ApprovalThreshold)
	}

	if c.MaxProposalsPerUser <= 0 {
		return fmt.Errorf("%w: max proposals per user must be positive", ErrInvalidConfig)
	}

	durations := map[string]time.Duration{
		"voting_period":          c.VotingPeriod,
		"min_voting_duration":    c.MinVotingDuration,
		"max_voting_duration":    c.MaxVotingDuration,
		"execution_delay":        c.ExecutionDelay,
		"max_execution_delay":    c.MaxExecutionDelay,
		"execution_grace_period": c.ExecutionGracePeriod,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
		}
	}

	if c.MaxVotingDuration > 0 {
		if c.MinVotingDuration > c.MaxVotingDuration {
			return fmt.Errorf("%w: min voting duration exceeds max voting duration", ErrInvalidConfig)
		}
		if c.VotingPeriod > c.MaxVotingDuration {
			return fmt.Errorf("%w: voting period exceeds max voting duration", ErrInvalidConfig)
		}
	}

	if c.VotingPeriod < c.MinVotingDuration {
		return fmt.Errorf("%w: voting period is shorter than min voting duration", ErrInvalidConfig)
	}

	// A zero grace period would expire a passed proposal at the moment it becomes executable
	if c.ExecutionGracePeriod <= 0 {
		return fmt.Errorf("%w: execution grace period must be positive", ErrInvalidConfig)
	}

	if c.MaxExecutionDelay > 0 && c.ExecutionDelay > c.MaxExecutionDelay {
		return fmt.Errorf("%w: execution delay exceeds max execution delay", ErrInvalidConfig)
	}

	if !c.RefundPolicy.IsARefundPolicy() {
		return fmt.Errorf("%w: unknown refund policy %d", ErrInvalidConfig, c.RefundPolicy)
	}

	if slices.Contains(c.Executors, "") {
		return fmt.Errorf("%w: executors must not contain empty principals", ErrInvalidConfig)
	}

	return nil
}

// QuorumRequired returns ceil(totalStaked * QuorumPercentage / 100).
func (c *GovernanceConfig) QuorumRequired(totalStaked uint64) uint64 {
	pct, ok := new(big.Rat).SetString(strconv.FormatFloat(c.QuorumPercentage, 'f', -1, 64))
	if !ok {
		return totalStaked
	}

	product := new(big.Rat).Mul(new(big.Rat).SetInt(new(big.Int).SetUint64(totalStaked)), pct)
	product.Quo(product, big.NewRat(100, 1))

	// Ceiling of a non-negative rational
	quo, rem := new(big.Int).QuoRem(product.Num(), product.Denom(), new(big.Int))
	if rem.Sign() > 0 {
		quo.Add(quo, big.NewInt(1))
	}

	if !quo.IsUint64() {
		return math.MaxUint64
	}
	return quo.Uint64()
}

// CanExecute reports whether the principal is a configured executor.
func (c *GovernanceConfig) CanExecute(principal string) bool {
	return slices.Contains(c.Executors, principal)
}

// Clone returns a deep copy of the config.
func (c GovernanceConfig) Clone() GovernanceConfig {
	c.Executors = slices.Clone(c.Executors)
	return c
}

func validPercentage(v float64) bool {
	return !math.IsNaN(v) && v > 0 && v <= 100
}

// ConfigRecord is a versioned snapshot of the governance config.
type ConfigRecord struct {
	Version    int64            `bun:",pk"                json:"version"`
	Config     GovernanceConfig `bun:"type:jsonb,notnull" json:"config"`
	ProposalID string           `bun:",nullzero"          json:"proposalId,omitempty"` // Proposal that applied this config
	CreatedAt  time.Time        `bun:",notnull"           json:"createdAt"`
}
