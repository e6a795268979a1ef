package types

import (
	"math"
	"slices"
	"time"

	"github.com/openkeyhub/governance/internal/database/types/enum"
)

// Proposal is a governance proposal together with its votes.
type Proposal struct {
	ID                  string              `bun:",pk"                              json:"id"`
	Proposer            string              `bun:",notnull"                         json:"proposer"`
	Kind                enum.ProposalKind   `bun:",notnull"                         json:"kind"`
	Payload             Payload             `bun:"type:jsonb,notnull"               json:"proposalType"`
	RepositoryID        string              `bun:",nullzero"                        json:"repositoryId,omitempty"`
	Title               string              `bun:",notnull"                         json:"title"`
	Description         string              `bun:",notnull"                         json:"description"`
	Status              enum.ProposalStatus `bun:",notnull"                         json:"status"`
	CreatedAt           time.Time           `bun:",notnull"                         json:"createdAt"`
	UpdatedAt           time.Time           `bun:",notnull"                         json:"updatedAt"`
	VotingStartsAt      time.Time           `bun:",notnull"                         json:"votingStartsAt"`
	VotingEndsAt        time.Time           `bun:",notnull"                         json:"votingEndsAt"`
	ExecutionDelay      time.Duration       `bun:",notnull"                         json:"executionDelay"`
	ExecutionDeadline   time.Time           `bun:",notnull"                         json:"executionDeadline"`
	TotalYes            uint64              `bun:",notnull"                         json:"totalYesVotes"`
	TotalNo             uint64              `bun:",notnull"                         json:"totalNoVotes"`
	TotalAbstain        uint64              `bun:",notnull"                         json:"totalAbstainVotes"`
	QuorumRequired      uint64              `bun:",notnull"                         json:"quorumRequired"`
	ApprovalThreshold   float64             `bun:",notnull"                         json:"approvalThreshold"`
	TotalStakedSnapshot uint64              `bun:",notnull"                         json:"totalStakedSnapshot"`
	RefundPolicy        enum.RefundPolicy   `bun:",notnull"                         json:"refundPolicy"`
	Deposit             uint64              `bun:",notnull"                         json:"deposit"`
	DepositStatus       enum.DepositStatus  `bun:",notnull"                         json:"depositStatus"`
	ExecutedAt          *time.Time          `bun:",nullzero"                        json:"executedAt,omitempty"`
	ExecutedBy          string              `bun:",nullzero"                        json:"executedBy,omitempty"`
	ExecutionResult     string              `bun:",nullzero"                        json:"executionResult,omitempty"`
	CancelledAt         *time.Time          `bun:",nullzero"                        json:"cancelledAt,omitempty"`
	FinalizedAt         *time.Time          `bun:",nullzero"                        json:"finalizedAt,omitempty"`
	NextTransitionAt    *time.Time          `bun:",nullzero"                        json:"-"`
	Votes               []*VoteRecord       `bun:"rel:has-many,join:id=proposal_id" json:"votes"`
}

// TotalVotes returns the combined weight of all votes.
func (p *Proposal) TotalVotes() uint64 {
	return SaturatingAdd(SaturatingAdd(p.TotalYes, p.TotalNo), p.TotalAbstain)
}

// SaturatingAdd adds token amounts, clamping at the largest representable value.
func SaturatingAdd(a, b uint64) uint64 {
	if sum := a + b; sum >= a {
		return sum
	}
	return math.MaxUint64
}

// ExecutableAt returns the earliest time the proposal may be executed.
func (p *Proposal) ExecutableAt() time.Time {
	return p.VotingEndsAt.Add(p.ExecutionDelay)
}

// VoteOf returns the vote cast by the voter, or nil if none.
func (p *Proposal) VoteOf(voter string) *VoteRecord {
	for _, v := range p.Votes {
		if v.Voter == voter {
			return v
		}
	}
	return nil
}

// CarriedBy returns the vote whose power includes the principal's delegated power, or nil.
func (p *Proposal) CarriedBy(principal string) *VoteRecord {
	for _, v := range p.Votes {
		if slices.Contains(v.DelegatedFrom, principal) {
			return v
		}
	}
	return nil
}

// AddToTally adds power to the bucket for the choice.
func (p *Proposal) AddToTally(choice enum.VoteChoice, power uint64) {
	switch choice {
	case enum.VoteChoiceYes:
		p.TotalYes = SaturatingAdd(p.TotalYes, power)
	case enum.VoteChoiceNo:
		p.TotalNo = SaturatingAdd(p.TotalNo, power)
	case enum.VoteChoiceAbstain:
		p.TotalAbstain = SaturatingAdd(p.TotalAbstain, power)
	}
}

// RemoveFromTally removes power from the bucket for the choice.
func (p *Proposal) RemoveFromTally(choice enum.VoteChoice, power uint64) {
	switch choice {
	case enum.VoteChoiceYes:
		p.TotalYes -= power
	case enum.VoteChoiceNo:
		p.TotalNo -= power
	case enum.VoteChoiceAbstain:
		p.TotalAbstain -= power
	}
}

// Clone returns a deep copy of the proposal and its votes.
func (p *Proposal) Clone() *Proposal {
	c := *p
	c.ExecutedAt = cloneTime(p.ExecutedAt)
	c.CancelledAt = cloneTime(p.CancelledAt)
	c.FinalizedAt = cloneTime(p.FinalizedAt)
	c.NextTransitionAt = cloneTime(p.NextTransitionAt)

	c.Votes = make([]*VoteRecord, len(p.Votes))
	for i, v := range p.Votes {
		vc := *v
		vc.DelegatedFrom = slices.Clone(v.DelegatedFrom)
		c.Votes[i] = &vc
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// VoteRecord is a single vote on a proposal.
type VoteRecord struct {
	ProposalID    string          `bun:",pk"         json:"-"`
	Voter         string          `bun:",pk"         json:"voter"`
	Choice        enum.VoteChoice `bun:",notnull"    json:"vote"`
	VotingPower   uint64          `bun:",notnull"    json:"votingPower"`
	DelegatedFrom []string        `bun:"type:jsonb"  json:"delegatedFrom,omitempty"` // Delegators whose power is included
	Reason        string          `bun:",nullzero"   json:"reason,omitempty"`
	Timestamp     time.Time       `bun:",notnull"    json:"timestamp"`
}

// ProposalFilter narrows a proposal listing. Zero fields match everything.
type ProposalFilter struct {
	Status   *enum.ProposalStatus
	Proposer string
	Kind     *enum.ProposalKind
	Search   string // Case and accent insensitive title match, applied by the store
}

// Matches reports whether the proposal satisfies the structured fields of the filter.
func (f ProposalFilter) Matches(p *Proposal) bool {
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.Proposer != "" && p.Proposer != f.Proposer {
		return false
	}
	if f.Kind != nil && p.Kind != *f.Kind {
		return false
	}
	return true
}

const (
	// DefaultPageLimit is used when a listing does not specify a limit.
	DefaultPageLimit = 20
	// MaxPageLimit caps the number of proposals in one page.
	MaxPageLimit = 100
)

// Pagination selects a window of a listing.
// Offset takes precedence over Page when both are set.
type Pagination struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Window returns the normalized offset and limit.
func (p Pagination) Window() (offset, limit int) {
	limit = p.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	limit = min(limit, MaxPageLimit)

	switch {
	case p.Offset > 0:
		offset = p.Offset
	case p.Page > 1:
		offset = (p.Page - 1) * limit
	}
	return offset, limit
}

// ProposalPage is one page of a proposal listing.
type ProposalPage struct {
	Proposals  []*Proposal `json:"proposals"`
	TotalCount int         `json:"totalCount"`
	HasMore    bool        `json:"hasMore"`
}
