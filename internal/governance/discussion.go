package governance

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/pkg/utils"
	"go.uber.org/zap"
)

const (
	maxPostLength  = 5000
	maxEmojiLength = 16
)

// newSanitizer strips all markup from discussion posts.
func newSanitizer() *bluemonday.Policy {
	return bluemonday.StrictPolicy()
}

// AddDiscussionPost appends a post to a proposal's thread.
// A non-empty parentID must name an existing post on the same proposal.
func (e *Engine) AddDiscussionPost(
	ctx context.Context, proposalID, author, content, parentID string,
) (*types.DiscussionPost, error) {
	if author == "" {
		return nil, fmt.Errorf("%w: author is required", types.ErrInvalidInput)
	}

	if _, err := e.store.GetProposal(ctx, proposalID); err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	content = e.sanitizeContent(content)
	if n := utf8.RuneCountInString(content); n == 0 || n > maxPostLength {
		return nil, fmt.Errorf("%w: content must be between 1 and %d characters", types.ErrInvalidInput, maxPostLength)
	}

	if parentID != "" {
		if _, err := e.store.GetPost(ctx, proposalID, parentID); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				return nil, fmt.Errorf("%w: post %s is not in this thread", types.ErrInvalidParent, parentID)
			}
			return nil, fmt.Errorf("failed to get parent post: %w", err)
		}
	}

	post := &types.DiscussionPost{
		ID:         uuid.Must(uuid.NewV7()).String(),
		ProposalID: proposalID,
		Author:     author,
		Content:    content,
		ParentID:   parentID,
		Timestamp:  e.clock.Now(),
		Reactions:  []types.Reaction{},
	}
	if err := e.store.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	e.logger.Debug("Added discussion post",
		zap.String("proposalID", proposalID),
		zap.String("postID", post.ID),
		zap.String("author", author),
		zap.Bool("reply", parentID != ""))

	return post, nil
}

// sanitizeContent removes markup and normalizes spacing. The strict policy entity-encodes
// what it keeps, so the result is decoded back to plain text before the length check.
// Renderers must escape it again.
func (e *Engine) sanitizeContent(content string) string {
	return utils.CleanText(html.UnescapeString(e.sanitizer.Sanitize(content)))
}

// ListDiscussion returns a proposal's posts in creation order.
func (e *Engine) ListDiscussion(ctx context.Context, proposalID string) ([]*types.DiscussionPost, error) {
	if _, err := e.store.GetProposal(ctx, proposalID); err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	posts, err := e.store.ListPosts(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// ToggleReaction adds the principal to the emoji's reaction on a post, or removes
// them if already present.
func (e *Engine) ToggleReaction(
	ctx context.Context, proposalID, postID, principal, emoji string,
) (*types.DiscussionPost, error) {
	if principal == "" {
		return nil, fmt.Errorf("%w: principal is required", types.ErrInvalidInput)
	}

	emoji = strings.TrimSpace(emoji)
	if emoji == "" || len(emoji) > maxEmojiLength || strings.ContainsFunc(emoji, unicode.IsSpace) {
		return nil, fmt.Errorf("%w: reaction must be a single emoji", types.ErrInvalidInput)
	}

	var added bool
	post, err := e.store.UpdatePost(ctx, proposalID, postID, func(post *types.DiscussionPost) error {
		added = post.ToggleReaction(emoji, principal)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to toggle reaction: %w", err)
	}

	e.logger.Debug("Toggled reaction",
		zap.String("postID", postID),
		zap.String("principal", principal),
		zap.String("emoji", emoji),
		zap.Bool("added", added))

	return post, nil
}
