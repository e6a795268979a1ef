package convert

import (
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/governance"
	restTypes "github.com/openkeyhub/governance/internal/rest/types"
)

// Proposal converts a stored proposal to its REST representation.
func Proposal(p *types.Proposal) *restTypes.Proposal {
	if p == nil {
		return nil
	}

	return &restTypes.Proposal{
		ID:                    p.ID,
		Proposer:              p.Proposer,
		ProposalType:          p.Payload,
		RepositoryID:          p.RepositoryID,
		Title:                 p.Title,
		Description:           p.Description,
		Status:                p.Status.String(),
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
		VotingStartsAt:        p.VotingStartsAt,
		VotingEndsAt:          p.VotingEndsAt,
		ExecutionDelaySeconds: int64(p.ExecutionDelay.Seconds()),
		ExecutableAt:          p.ExecutableAt(),
		ExecutionDeadline:     p.ExecutionDeadline,
		TotalYesVotes:         p.TotalYes,
		TotalNoVotes:          p.TotalNo,
		TotalAbstainVotes:     p.TotalAbstain,
		QuorumRequired:        p.QuorumRequired,
		QuorumMet:             governance.QuorumMet(p),
		ApprovalThreshold:     p.ApprovalThreshold,
		ApprovalRatio:         governance.ApprovalRatio(p),
		TotalStakedSnapshot:   p.TotalStakedSnapshot,
		Deposit:               p.Deposit,
		DepositStatus:         p.DepositStatus.String(),
		RefundPolicy:          p.RefundPolicy.String(),
		ExecutedAt:            p.ExecutedAt,
		ExecutedBy:            p.ExecutedBy,
		ExecutionResult:       p.ExecutionResult,
		CancelledAt:           p.CancelledAt,
		FinalizedAt:           p.FinalizedAt,
		Votes:                 Votes(p.Votes),
	}
}

// ProposalPage converts a page of proposals.
func ProposalPage(page *types.ProposalPage) *restTypes.ProposalPage {
	result := &restTypes.ProposalPage{
		Proposals:  make([]*restTypes.Proposal, len(page.Proposals)),
		TotalCount: page.TotalCount,
		HasMore:    page.HasMore,
	}
	for i, p := range page.Proposals {
		result.Proposals[i] = Proposal(p)
	}
	return result
}

// Vote converts a vote record.
func Vote(v *types.VoteRecord) restTypes.Vote {
	return restTypes.Vote{
		Voter:         v.Voter,
		Vote:          v.Choice.String(),
		VotingPower:   v.VotingPower,
		DelegatedFrom: v.DelegatedFrom,
		Reason:        v.Reason,
		Timestamp:     v.Timestamp,
	}
}

// Votes converts a slice of vote records.
func Votes(votes []*types.VoteRecord) []restTypes.Vote {
	result := make([]restTypes.Vote, len(votes))
	for i, v := range votes {
		result[i] = Vote(v)
	}
	return result
}

// Delegations converts delegation edges.
func Delegations(edges []*types.DelegationEdge) []restTypes.Delegation {
	result := make([]restTypes.Delegation, len(edges))
	for i, e := range edges {
		result[i] = Delegation(e)
	}
	return result
}

// Delegation converts a delegation edge.
func Delegation(e *types.DelegationEdge) restTypes.Delegation {
	return restTypes.Delegation{
		Delegator: e.Delegator,
		Delegate:  e.Delegate,
		Scope:     e.Scope.String(),
		Target:    e.Target,
		CreatedAt: e.CreatedAt,
	}
}

// DiscussionPost converts a discussion post.
func DiscussionPost(post *types.DiscussionPost) *restTypes.DiscussionPost {
	reactions := make([]restTypes.Reaction, len(post.Reactions))
	for i, r := range post.Reactions {
		reactions[i] = restTypes.Reaction{Emoji: r.Emoji, Users: r.Users}
	}

	return &restTypes.DiscussionPost{
		ID:         post.ID,
		ProposalID: post.ProposalID,
		Author:     post.Author,
		Content:    post.Content,
		ParentID:   post.ParentID,
		Timestamp:  post.Timestamp,
		Reactions:  reactions,
	}
}

// DiscussionPosts converts a thread.
func DiscussionPosts(posts []*types.DiscussionPost) []*restTypes.DiscussionPost {
	result := make([]*restTypes.DiscussionPost, len(posts))
	for i, post := range posts {
		result[i] = DiscussionPost(post)
	}
	return result
}

// TokenInfo converts a principal's token info.
func TokenInfo(info *types.TokenInfo) *restTypes.TokenInfo {
	return &restTypes.TokenInfo{
		Principal:       info.Principal,
		Balance:         info.Balance,
		Staked:          info.Staked,
		VotingPower:     info.VotingPower,
		DelegatedTo:     Delegations(info.DelegatedTo),
		DelegatedFrom:   Delegations(info.DelegatedFrom),
		LastActivityAt:  info.LastActivityAt,
		ReputationScore: info.ReputationScore,
	}
}

// GovernanceConfig converts a config record.
func GovernanceConfig(record *types.ConfigRecord) *restTypes.GovernanceConfig {
	cfg := record.Config
	executors := cfg.Executors
	if executors == nil {
		executors = []string{}
	}

	return &restTypes.GovernanceConfig{
		Version:              record.Version,
		ProposalID:           record.ProposalID,
		VotingPeriod:         cfg.VotingPeriod.String(),
		MinVotingDuration:    cfg.MinVotingDuration.String(),
		MaxVotingDuration:    cfg.MaxVotingDuration.String(),
		ExecutionDelay:       cfg.ExecutionDelay.String(),
		MaxExecutionDelay:    cfg.MaxExecutionDelay.String(),
		ExecutionGracePeriod: cfg.ExecutionGracePeriod.String(),
		ProposalDeposit:      cfg.ProposalDeposit,
		QuorumPercentage:     cfg.QuorumPercentage,
		ApprovalThreshold:    cfg.ApprovalThreshold,
		MaxProposalsPerUser:  cfg.MaxProposalsPerUser,
		MinVotingPower:       cfg.MinVotingPower,
		AllowDelegation:      cfg.AllowDelegation,
		AllowRevote:          cfg.AllowRevote,
		RefundPolicy:         cfg.RefundPolicy.String(),
		Executors:            executors,
	}
}
