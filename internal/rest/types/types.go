package types

import (
	"time"

	"github.com/openkeyhub/governance/internal/database/types"
)

// Vote is a single recorded vote.
type Vote struct {
	Voter         string    `json:"voter"`
	Vote          string    `json:"vote"`
	VotingPower   uint64    `json:"votingPower"`
	DelegatedFrom []string  `json:"delegatedFrom,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Proposal is a governance proposal with its derived tally figures.
type Proposal struct {
	ID                    string        `json:"id"`
	Proposer              string        `json:"proposer"`
	ProposalType          types.Payload `json:"proposalType"`
	RepositoryID          string        `json:"repositoryId,omitempty"`
	Title                 string        `json:"title"`
	Description           string        `json:"description"`
	Status                string        `json:"status"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
	VotingStartsAt        time.Time     `json:"votingStartsAt"`
	VotingEndsAt          time.Time     `json:"votingEndsAt"`
	ExecutionDelaySeconds int64         `json:"executionDelaySeconds"`
	ExecutableAt          time.Time     `json:"executableAt"`
	ExecutionDeadline     time.Time     `json:"executionDeadline"`
	TotalYesVotes         uint64        `json:"totalYesVotes"`
	TotalNoVotes          uint64        `json:"totalNoVotes"`
	TotalAbstainVotes     uint64        `json:"totalAbstainVotes"`
	QuorumRequired        uint64        `json:"quorumRequired"`
	QuorumMet             bool          `json:"quorumMet"`
	ApprovalThreshold     float64       `json:"approvalThreshold"`
	ApprovalRatio         float64       `json:"approvalRatio"`
	TotalStakedSnapshot   uint64        `json:"totalStakedSnapshot"`
	Deposit               uint64        `json:"deposit"`
	DepositStatus         string        `json:"depositStatus"`
	RefundPolicy          string        `json:"refundPolicy"`
	ExecutedAt            *time.Time    `json:"executedAt,omitempty"`
	ExecutedBy            string        `json:"executedBy,omitempty"`
	ExecutionResult       string        `json:"executionResult,omitempty"`
	CancelledAt           *time.Time    `json:"cancelledAt,omitempty"`
	FinalizedAt           *time.Time    `json:"finalizedAt,omitempty"`
	Votes                 []Vote        `json:"votes"`
}

// ProposalPage is one page of a proposal listing.
type ProposalPage struct {
	Proposals  []*Proposal `json:"proposals"`
	TotalCount int         `json:"totalCount"`
	HasMore    bool        `json:"hasMore"`
}

// CreateProposalRequest is the body of the create proposal endpoint.
// Durations use Go duration syntax such as "72h".
type CreateProposalRequest struct {
	ProposalType   types.Payload `json:"proposalType"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	VotingDuration string        `json:"votingDuration,omitempty"`
	ExecutionDelay *string       `json:"executionDelay,omitempty"`
	StartsAt       *time.Time    `json:"startsAt,omitempty"`
}

// CastVoteRequest is the body of the cast vote endpoint.
type CastVoteRequest struct {
	Vote   string `json:"vote"`
	Reason string `json:"reason,omitempty"`
}

// Delegation is a delegation edge.
type Delegation struct {
	Delegator string    `json:"delegator"`
	Delegate  string    `json:"delegate"`
	Scope     string    `json:"scope"`
	Target    string    `json:"target,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DelegateRequest is the body of the delegate endpoint.
type DelegateRequest struct {
	Delegate string `json:"delegate"`
	Scope    string `json:"scope"`
	Target   string `json:"target,omitempty"`
}

// DelegationsResponse lists the edges leaving and entering a principal.
type DelegationsResponse struct {
	DelegatedTo   []Delegation `json:"delegatedTo"`
	DelegatedFrom []Delegation `json:"delegatedFrom"`
}

// Reaction is the set of principals that reacted with an emoji.
type Reaction struct {
	Emoji string   `json:"emoji"`
	Users []string `json:"users"`
}

// DiscussionPost is a post in a proposal thread.
type DiscussionPost struct {
	ID         string     `json:"id"`
	ProposalID string     `json:"proposalId"`
	Author     string     `json:"author"`
	Content    string     `json:"content"`
	ParentID   string     `json:"parentId,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	Reactions  []Reaction `json:"reactions"`
}

// CreatePostRequest is the body of the add discussion post endpoint.
type CreatePostRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parentId,omitempty"`
}

// ReactionRequest is the body of the toggle reaction endpoint.
type ReactionRequest struct {
	Emoji string `json:"emoji"`
}

// TokenInfo describes a principal's holdings and governance standing.
type TokenInfo struct {
	Principal       string       `json:"principal"`
	Balance         uint64       `json:"balance"`
	Staked          uint64       `json:"staked"`
	VotingPower     uint64       `json:"votingPower"`
	DelegatedTo     []Delegation `json:"delegatedTo"`
	DelegatedFrom   []Delegation `json:"delegatedFrom"`
	LastActivityAt  *time.Time   `json:"lastActivityAt,omitempty"`
	ReputationScore float64      `json:"reputationScore"`
}

// GovernanceConfig is the active configuration with durations rendered as Go duration strings.
type GovernanceConfig struct {
	Version              int64    `json:"version"`
	ProposalID           string   `json:"proposalId,omitempty"`
	VotingPeriod         string   `json:"votingPeriod"`
	MinVotingDuration    string   `json:"minVotingDuration"`
	MaxVotingDuration    string   `json:"maxVotingDuration"`
	ExecutionDelay       string   `json:"executionDelay"`
	MaxExecutionDelay    string   `json:"maxExecutionDelay"`
	ExecutionGracePeriod string   `json:"executionGracePeriod"`
	ProposalDeposit      uint64   `json:"proposalDeposit"`
	QuorumPercentage     float64  `json:"quorumPercentage"`
	ApprovalThreshold    float64  `json:"approvalThreshold"`
	MaxProposalsPerUser  int      `json:"maxProposalsPerUser"`
	MinVotingPower       uint64   `json:"minVotingPower"`
	AllowDelegation      bool     `json:"allowDelegation"`
	AllowRevote          bool     `json:"allowRevote"`
	RefundPolicy         string   `json:"refundPolicy"`
	Executors            []string `json:"executors"`
}
