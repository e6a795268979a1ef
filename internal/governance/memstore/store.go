// Package memstore provides in-memory implementations of the governance store and token ledger.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/openkeyhub/governance/internal/governance"
	"github.com/openkeyhub/governance/pkg/utils"
)

var _ governance.Store = (*Store)(nil)

// proposalEntry guards one proposal so updates on different proposals never contend.
type proposalEntry struct {
	mu       sync.Mutex
	proposal *types.Proposal
}

type edgeKey struct {
	delegator string
	scope     enum.DelegationScope
	target    string
}

// Store keeps all governance state in memory. Values are cloned on the way in and out.
type Store struct {
	mu        sync.RWMutex
	proposals map[string]*proposalEntry
	createMu  sync.Mutex

	delegationMu sync.Mutex
	delegations  map[edgeKey]*types.DelegationEdge

	postMu sync.RWMutex
	posts  map[string][]*types.DiscussionPost

	configMu sync.RWMutex
	configs  []*types.ConfigRecord
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		proposals:   make(map[string]*proposalEntry),
		delegations: make(map[edgeKey]*types.DelegationEdge),
		posts:       make(map[string][]*types.DiscussionPost),
	}
}

// snapshot returns clones of every proposal.
func (s *Store) snapshot() []*types.Proposal {
	s.mu.RLock()
	entries := make([]*proposalEntry, 0, len(s.proposals))
	for _, entry := range s.proposals {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	proposals := make([]*types.Proposal, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		proposals = append(proposals, entry.proposal.Clone())
		entry.mu.Unlock()
	}
	return proposals
}

func (s *Store) entry(id string) (*proposalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.proposals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrProposalNotFound, id)
	}
	return entry, nil
}

func isOpen(status enum.ProposalStatus) bool {
	return !status.IsTerminal()
}

// CreateProposal implements governance.ProposalStore.
func (s *Store) CreateProposal(ctx context.Context, p *types.Proposal, guard func(open int) error) error {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	open, err := s.CountOpenProposals(ctx, p.Proposer)
	if err != nil {
		return err
	}
	if err := guard(open); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.proposals[p.ID]; ok {
		return fmt.Errorf("%w: proposal %s already exists", types.ErrInvalidInput, p.ID)
	}
	s.proposals[p.ID] = &proposalEntry{proposal: p.Clone()}

	return nil
}

// CountOpenProposals implements governance.ProposalStore.
func (s *Store) CountOpenProposals(_ context.Context, proposer string) (int, error) {
	open := 0
	for _, p := range s.snapshot() {
		if p.Proposer == proposer && isOpen(p.Status) {
			open++
		}
	}
	return open, nil
}

// GetProposal implements governance.ProposalStore.
func (s *Store) GetProposal(_ context.Context, id string) (*types.Proposal, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	return entry.proposal.Clone(), nil
}

// ListProposals implements governance.ProposalStore.
func (s *Store) ListProposals(
	_ context.Context, filter types.ProposalFilter, offset, limit int,
) ([]*types.Proposal, int, error) {
	normalizer := utils.NewTextNormalizer()

	matched := make([]*types.Proposal, 0)
	for _, p := range s.snapshot() {
		if !filter.Matches(p) {
			continue
		}
		if filter.Search != "" && !normalizer.Contains(p.Title, filter.Search) {
			continue
		}
		matched = append(matched, p)
	}

	slices.SortFunc(matched, func(a, b *types.Proposal) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	total := len(matched)
	if offset >= total {
		return []*types.Proposal{}, total, nil
	}
	end := min(offset+limit, total)

	return matched[offset:end], total, nil
}

// UpdateProposal implements governance.ProposalStore.
func (s *Store) UpdateProposal(
	_ context.Context, id string, fn func(p *types.Proposal) error,
) (*types.Proposal, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	working := entry.proposal.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	entry.proposal = working

	return working.Clone(), nil
}

// ListDueProposals implements governance.ProposalStore.
func (s *Store) ListDueProposals(_ context.Context, now time.Time, limit int) ([]string, error) {
	due := make([]*types.Proposal, 0)
	for _, p := range s.snapshot() {
		if p.NextTransitionAt != nil && !now.Before(*p.NextTransitionAt) {
			due = append(due, p)
		}
	}

	slices.SortFunc(due, func(a, b *types.Proposal) int {
		return a.NextTransitionAt.Compare(*b.NextTransitionAt)
	})

	ids := make([]string, 0, min(len(due), limit))
	for _, p := range due[:min(len(due), limit)] {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// ListUnsettledDeposits implements governance.ProposalStore.
func (s *Store) ListUnsettledDeposits(_ context.Context, limit int) ([]string, error) {
	ids := make([]string, 0)
	for _, p := range s.snapshot() {
		if p.Status.IsTerminal() && p.DepositStatus == enum.DepositStatusHeld {
			ids = append(ids, p.ID)
		}
	}

	slices.Sort(ids)
	return ids[:min(len(ids), limit)], nil
}

// delegationView reads edges while the delegation lock is held.
type delegationView struct {
	s *Store
}

func (v delegationView) DelegateOf(
	_ context.Context, delegator string, scope enum.DelegationScope, target string,
) (string, error) {
	if edge, ok := v.s.delegations[edgeKey{delegator, scope, target}]; ok {
		return edge.Delegate, nil
	}
	return "", nil
}

// SaveDelegation implements governance.DelegationStore.
func (s *Store) SaveDelegation(
	ctx context.Context, edge *types.DelegationEdge, check func(ctx context.Context, view governance.DelegationView) error,
) error {
	s.delegationMu.Lock()
	defer s.delegationMu.Unlock()

	if err := check(ctx, delegationView{s}); err != nil {
		return err
	}

	stored := *edge
	s.delegations[edgeKey{edge.Delegator, edge.Scope, edge.Target}] = &stored
	return nil
}

// DeleteDelegation implements governance.DelegationStore.
func (s *Store) DeleteDelegation(
	_ context.Context, delegator string, scope enum.DelegationScope, target string,
) error {
	s.delegationMu.Lock()
	defer s.delegationMu.Unlock()

	key := edgeKey{delegator, scope, target}
	if _, ok := s.delegations[key]; !ok {
		return types.ErrDelegationNotFound
	}
	delete(s.delegations, key)
	return nil
}

// ListDelegationsFrom implements governance.DelegationStore.
func (s *Store) ListDelegationsFrom(_ context.Context, delegator string) ([]*types.DelegationEdge, error) {
	return s.listDelegations(func(e *types.DelegationEdge) bool { return e.Delegator == delegator }), nil
}

// ListDelegationsTo implements governance.DelegationStore.
func (s *Store) ListDelegationsTo(_ context.Context, delegate string) ([]*types.DelegationEdge, error) {
	return s.listDelegations(func(e *types.DelegationEdge) bool { return e.Delegate == delegate }), nil
}

func (s *Store) listDelegations(keep func(*types.DelegationEdge) bool) []*types.DelegationEdge {
	s.delegationMu.Lock()
	defer s.delegationMu.Unlock()

	edges := make([]*types.DelegationEdge, 0)
	for _, edge := range s.delegations {
		if keep(edge) {
			c := *edge
			edges = append(edges, &c)
		}
	}

	slices.SortFunc(edges, func(a, b *types.DelegationEdge) int {
		return cmp.Or(
			cmp.Compare(a.Delegator, b.Delegator),
			cmp.Compare(a.Scope, b.Scope),
			cmp.Compare(a.Target, b.Target),
		)
	})
	return edges
}

// CreatePost implements governance.DiscussionStore.
func (s *Store) CreatePost(_ context.Context, post *types.DiscussionPost) error {
	s.postMu.Lock()
	defer s.postMu.Unlock()

	s.posts[post.ProposalID] = append(s.posts[post.ProposalID], post.Clone())
	return nil
}

// GetPost implements governance.DiscussionStore.
func (s *Store) GetPost(_ context.Context, proposalID, postID string) (*types.DiscussionPost, error) {
	s.postMu.RLock()
	defer s.postMu.RUnlock()

	for _, post := range s.posts[proposalID] {
		if post.ID == postID {
			return post.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", types.ErrPostNotFound, postID)
}

// ListPosts implements governance.DiscussionStore.
func (s *Store) ListPosts(_ context.Context, proposalID string) ([]*types.DiscussionPost, error) {
	s.postMu.RLock()
	defer s.postMu.RUnlock()

	thread := s.posts[proposalID]
	posts := make([]*types.DiscussionPost, 0, len(thread))
	for _, post := range thread {
		posts = append(posts, post.Clone())
	}

	slices.SortStableFunc(posts, func(a, b *types.DiscussionPost) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return posts, nil
}

// UpdatePost implements governance.DiscussionStore.
func (s *Store) UpdatePost(
	_ context.Context, proposalID, postID string, fn func(post *types.DiscussionPost) error,
) (*types.DiscussionPost, error) {
	s.postMu.Lock()
	defer s.postMu.Unlock()

	thread := s.posts[proposalID]
	for i, post := range thread {
		if post.ID != postID {
			continue
		}

		working := post.Clone()
		if err := fn(working); err != nil {
			return nil, err
		}
		thread[i] = working

		return working.Clone(), nil
	}
	return nil, fmt.Errorf("%w: %s", types.ErrPostNotFound, postID)
}

// LatestConfig implements governance.ConfigStore.
func (s *Store) LatestConfig(_ context.Context) (*types.ConfigRecord, error) {
	s.configMu.RLock()
	defer s.configMu.RUnlock()

	if len(s.configs) == 0 {
		return nil, types.ErrConfigNotFound
	}
	record := *s.configs[len(s.configs)-1]
	record.Config = record.Config.Clone()
	return &record, nil
}

// SaveConfig implements governance.ConfigStore.
func (s *Store) SaveConfig(_ context.Context, record *types.ConfigRecord) error {
	s.configMu.Lock()
	defer s.configMu.Unlock()

	record.Version = int64(len(s.configs) + 1)

	stored := *record
	stored.Config = record.Config.Clone()
	s.configs = append(s.configs, &stored)
	return nil
}

// CountDistinctVoters implements governance.HistoryStore.
func (s *Store) CountDistinctVoters(_ context.Context) (int, error) {
	voters := make(map[string]struct{})
	for _, p := range s.snapshot() {
		for _, v := range p.Votes {
			voters[v.Voter] = struct{}{}
		}
	}
	return len(voters), nil
}

// ListTurnouts implements governance.HistoryStore.
func (s *Store) ListTurnouts(_ context.Context) ([]types.Turnout, error) {
	turnouts := make([]types.Turnout, 0)
	for _, p := range s.snapshot() {
		if p.Status.IsFinalized() {
			turnouts = append(turnouts, types.Turnout{Cast: p.TotalVotes(), Staked: p.TotalStakedSnapshot})
		}
	}
	return turnouts, nil
}

// VoterHistory implements governance.HistoryStore.
func (s *Store) VoterHistory(_ context.Context, principal string) (*types.VoterHistory, error) {
	history := &types.VoterHistory{Outcomes: []types.VoterOutcome{}}

	touch := func(t time.Time) {
		if history.LastActivityAt == nil || t.After(*history.LastActivityAt) {
			history.LastActivityAt = &t
		}
	}

	for _, p := range s.snapshot() {
		if p.Proposer == principal {
			touch(p.CreatedAt)
		}
		if v := p.VoteOf(principal); v != nil {
			touch(v.Timestamp)
			history.Outcomes = append(history.Outcomes, types.VoterOutcome{Choice: v.Choice, Status: p.Status})
		}
	}

	s.postMu.RLock()
	for _, thread := range s.posts {
		for _, post := range thread {
			if post.Author == principal {
				touch(post.Timestamp)
			}
		}
	}
	s.postMu.RUnlock()

	return history, nil
}
